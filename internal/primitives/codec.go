package primitives

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DecodeJSON parses a portable MachineConfig from JSON. Unknown fields are
// rejected so typos in hand-written configs surface immediately.
func DecodeJSON(data []byte) (MachineConfig, error) {
	var cfg MachineConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return MachineConfig{}, fmt.Errorf("decode machine config json: %w", err)
	}
	cfg.Context = cfg.Context.Clone()
	return cfg, nil
}

// DecodeYAML parses a portable MachineConfig from YAML with strict field checking.
func DecodeYAML(data []byte) (MachineConfig, error) {
	var cfg MachineConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return MachineConfig{}, fmt.Errorf("decode machine config yaml: %w", err)
	}
	cfg.Context = cfg.Context.Clone()
	return cfg, nil
}

// EncodeJSON renders cfg as indented JSON. Closure actions or guards fail with
// ErrNotPortable.
func EncodeJSON(cfg MachineConfig) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode machine config %q: %w", cfg.ID, err)
	}
	return data, nil
}

// EncodeYAML renders cfg as YAML. Closure actions or guards fail with
// ErrNotPortable.
func EncodeYAML(cfg MachineConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode machine config %q: %w", cfg.ID, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
