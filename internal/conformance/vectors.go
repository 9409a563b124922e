package conformance

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/comalice/statekernel/internal/primitives"
)

// Vector provenances.
const (
	SourceYAML = "yaml"
	SourceITF  = "itf"
)

// FileSuffix is the file name suffix of unified vector files.
const FileSuffix = ".unified.json"

// ErrInvalidVectors is returned for structurally broken vector files.
var ErrInvalidVectors = errors.New("invalid vectors")

var errNoAfterContext = fmt.Errorf("%w: after context is required", ErrInvalidVectors)

// UnifiedVectors is the content of one `<component>.unified.json` file.
type UnifiedVectors struct {
	Component string     `json:"component"`
	Generated string     `json:"generated,omitempty"`
	Sources   *Sources   `json:"sources,omitempty"`
	Scenarios []Scenario `json:"scenarios"`
}

// Sources counts scenarios per provenance.
type Sources struct {
	YAML int `json:"yaml"`
	ITF  int `json:"itf"`
}

// Scenario is a named list of steps from one provenance.
type Scenario struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Steps  []Step `json:"steps"`
}

// Step is a full before/after snapshot around a single event.
type Step struct {
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload,omitempty"`
	Before  Snapshot       `json:"before"`
	After   Snapshot       `json:"after"`
}

// Snapshot is a machine state name plus its context. A nil Context on the
// after side means the context is not asserted.
type Snapshot struct {
	Context primitives.Context `json:"context"`
	State   string             `json:"state"`
}

// Validate checks the fields every runner relies on.
func (v *UnifiedVectors) Validate() error {
	var errs []error
	if v.Component == "" {
		errs = append(errs, fmt.Errorf("%w: component is required", ErrInvalidVectors))
	}
	for i, sc := range v.Scenarios {
		if sc.Source != SourceYAML && sc.Source != SourceITF {
			errs = append(errs, fmt.Errorf("%w: scenario %d %q: unknown source %q", ErrInvalidVectors, i, sc.Name, sc.Source))
		}
		for j, st := range sc.Steps {
			if st.Event == "" {
				errs = append(errs, fmt.Errorf("%w: scenario %q step %d: event is required", ErrInvalidVectors, sc.Name, j+1))
			}
			if st.Before.State == "" || st.After.State == "" {
				errs = append(errs, fmt.Errorf("%w: scenario %q step %d: before and after state are required", ErrInvalidVectors, sc.Name, j+1))
			}
			if st.After.Context == nil {
				errs = append(errs, fmt.Errorf("scenario %q step %d: %w", sc.Name, j+1, errNoAfterContext))
			}
		}
	}
	return errors.Join(errs...)
}

// Steps returns the total number of steps across scenarios.
func (v *UnifiedVectors) Steps() int {
	n := 0
	for _, sc := range v.Scenarios {
		n += len(sc.Steps)
	}
	return n
}

// Decode reads and validates one vector document.
func Decode(r io.Reader) (UnifiedVectors, error) {
	var v UnifiedVectors
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return UnifiedVectors{}, fmt.Errorf("decode vectors: %w", err)
	}
	if err := v.Validate(); err != nil {
		return UnifiedVectors{}, err
	}
	return v, nil
}

// Load reads a vector file.
func Load(path string) (UnifiedVectors, error) {
	f, err := os.Open(path)
	if err != nil {
		return UnifiedVectors{}, fmt.Errorf("open vectors: %w", err)
	}
	defer f.Close()

	v, err := Decode(f)
	if err != nil {
		return UnifiedVectors{}, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// LoadDir loads every `*.unified.json` file in dir, keyed by component.
func LoadDir(dir string) (map[string]UnifiedVectors, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+FileSuffix))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dir, err)
	}
	out := make(map[string]UnifiedVectors, len(paths))
	for _, p := range paths {
		v, err := Load(p)
		if err != nil {
			return nil, err
		}
		if want := strings.TrimSuffix(filepath.Base(p), FileSuffix); v.Component != want {
			return nil, fmt.Errorf("%s: %w: component %q does not match file name", p, ErrInvalidVectors, v.Component)
		}
		out[v.Component] = v
	}
	return out, nil
}

// Path returns the conventional vector file path for component inside dir.
func Path(dir, component string) string {
	return filepath.Join(dir, component+FileSuffix)
}
