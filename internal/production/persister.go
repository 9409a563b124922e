package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"github.com/comalice/statekernel/internal/core"
)

// ErrInvalidKey is returned for keys that cannot be used as a file name.
var ErrInvalidKey = errors.New("invalid snapshot key")

// Persister stores machine snapshots under caller-chosen keys.
type Persister interface {
	Save(ctx context.Context, key string, snapshot core.MachineSnapshot) error
	Load(ctx context.Context, key string) (core.MachineSnapshot, error)
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// filePersister writes one file per key, atomically replaced on every save.
type filePersister struct {
	dir       string
	ext       string
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
}

func newFilePersister(dir, ext string, marshal func(any) ([]byte, error), unmarshal func([]byte, any) error) (*filePersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &filePersister{dir: dir, ext: ext, marshal: marshal, unmarshal: unmarshal}, nil
}

func (p *filePersister) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(p.dir, key+p.ext), nil
}

func (p *filePersister) Save(ctx context.Context, key string, snapshot core.MachineSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn, err := p.path(key)
	if err != nil {
		return err
	}
	data, err := p.marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot %q: %w", key, err)
	}

	pending, err := renameio.NewPendingFile(fn)
	if err != nil {
		return fmt.Errorf("create pending %s: %w", fn, err)
	}
	defer pending.Cleanup() //nolint:errcheck // no-op after a successful replace

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", fn, err)
	}
	return nil
}

func (p *filePersister) Load(ctx context.Context, key string) (core.MachineSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return core.MachineSnapshot{}, err
	}
	fn, err := p.path(key)
	if err != nil {
		return core.MachineSnapshot{}, err
	}
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.MachineSnapshot{}, fmt.Errorf("snapshot %q: %w", key, os.ErrNotExist)
		}
		return core.MachineSnapshot{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var snapshot core.MachineSnapshot
	if err := p.unmarshal(data, &snapshot); err != nil {
		return core.MachineSnapshot{}, fmt.Errorf("unmarshal snapshot %q: %w", key, err)
	}
	if snapshot.Context != nil {
		snapshot.Context = snapshot.Context.Clone()
	}
	return snapshot, nil
}

func (p *filePersister) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn, err := p.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fn); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", fn, err)
	}
	return nil
}

func (p *filePersister) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", p.dir, err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, p.ext) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, p.ext))
	}
	slices.Sort(keys)
	return keys, nil
}

// JSONPersister is a file-based persister using indented JSON.
type JSONPersister struct {
	*filePersister
}

// NewJSONPersister creates a JSONPersister, ensuring the directory exists.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	fp, err := newFilePersister(dir, ".json", func(v any) ([]byte, error) {
		return json.MarshalIndent(v, "", "  ")
	}, json.Unmarshal)
	if err != nil {
		return nil, err
	}
	return &JSONPersister{fp}, nil
}

// YAMLPersister is a file-based persister using YAML.
type YAMLPersister struct {
	*filePersister
}

// NewYAMLPersister creates a YAMLPersister, ensuring the directory exists.
func NewYAMLPersister(dir string) (*YAMLPersister, error) {
	fp, err := newFilePersister(dir, ".yaml", yaml.Marshal, yaml.Unmarshal)
	if err != nil {
		return nil, err
	}
	return &YAMLPersister{fp}, nil
}
