package core

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/comalice/statekernel/internal/primitives"
)

var (
	ErrNotFound = errors.New("machine config not found")
	ErrExists   = errors.New("machine config already registered")
)

// ConfigFactory returns a fresh MachineConfig on every call.
type ConfigFactory func() primitives.MachineConfig

// Registry maps component IDs to config factories.
type Registry interface {
	// Register adds a factory under id.
	Register(id string, f ConfigFactory) error

	// Lookup builds a fresh config for id.
	Lookup(id string) (primitives.MachineConfig, error)

	// IDs returns registered IDs, sorted.
	IDs() []string
}

// MapRegistry is an in-memory Registry safe for concurrent use.
type MapRegistry struct {
	mu        sync.RWMutex
	factories map[string]ConfigFactory
}

// NewMapRegistry returns an empty registry.
func NewMapRegistry() *MapRegistry {
	return &MapRegistry{factories: make(map[string]ConfigFactory)}
}

func (r *MapRegistry) Register(id string, f ConfigFactory) error {
	if id == "" || f == nil {
		return fmt.Errorf("register %q: id and factory are required", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[id]; ok {
		return fmt.Errorf("register %q: %w", id, ErrExists)
	}
	r.factories[id] = f
	return nil
}

// MustRegister is Register that panics on error, for package-level tables.
func (r *MapRegistry) MustRegister(id string, f ConfigFactory) *MapRegistry {
	if err := r.Register(id, f); err != nil {
		panic(err)
	}
	return r
}

func (r *MapRegistry) Lookup(id string) (primitives.MachineConfig, error) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return primitives.MachineConfig{}, fmt.Errorf("lookup %q: %w", id, ErrNotFound)
	}
	return f(), nil
}

func (r *MapRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}
