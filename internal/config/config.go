// Package config loads statekernel settings from defaults, an optional YAML
// file and STATEKERNEL_* environment variables, in that order of precedence
// (environment wins).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "STATEKERNEL_"

var (
	// ErrUnknownField classifies strict YAML failures caused by unknown keys.
	ErrUnknownField = errors.New("unknown config field")
	// ErrInvalid is returned by Validate.
	ErrInvalid = errors.New("invalid config")
)

// Config holds the settings shared by the CLI and the gallery server.
type Config struct {
	LogLevel  string `yaml:"logLevel" env:"LOG_LEVEL"`
	LogPretty bool   `yaml:"logPretty" env:"LOG_PRETTY"`

	// Listen is the gallery server address.
	Listen string `yaml:"listen" env:"LISTEN"`
	// VectorsDir holds <component>.unified.json files.
	VectorsDir string `yaml:"vectorsDir" env:"VECTORS_DIR"`
	// SessionsDir persists gallery sessions. Empty keeps them in memory only.
	SessionsDir string `yaml:"sessionsDir" env:"SESSIONS_DIR"`
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int `yaml:"rateLimit" env:"RATE_LIMIT"`
	// Workers bounds concurrent conformance jobs; 0 means one per component.
	Workers int `yaml:"workers" env:"WORKERS"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:   "info",
		Listen:     ":8080",
		VectorsDir: "vectors",
		RateLimit:  120,
	}
}

// Load layers path (or $STATEKERNEL_CONFIG when path is empty) and the
// environment over Default, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var loc struct {
			File string `env:"CONFIG"`
		}
		if err := parseEnv(&loc); err != nil {
			return Config{}, err
		}
		path = loc.File
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := parseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// loadFile decodes a YAML file over cfg. Unknown keys and trailing documents
// are rejected.
func loadFile(path string, cfg *Config) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format %q (only YAML supported)", ext)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return fmt.Errorf("%w: %w", ErrUnknownField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("config file contains multiple documents or trailing content")
	}
	return nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: logLevel %q", ErrInvalid, c.LogLevel))
	}
	if c.Listen == "" {
		errs = append(errs, fmt.Errorf("%w: listen is required", ErrInvalid))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("%w: rateLimit must be >= 0, got %d", ErrInvalid, c.RateLimit))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalid, c.Workers))
	}
	return errors.Join(errs...)
}
