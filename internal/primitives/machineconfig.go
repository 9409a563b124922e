// MachineConfig is the top-level, serializable definition of a machine: its
// states, initial state, default context and the named guards and actions the
// states refer to.
package primitives

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// MachineConfig defines the complete machine configuration.
type MachineConfig struct {
	Version string                  `json:"version,omitempty" yaml:"version,omitempty"`
	ID      string                  `json:"id" yaml:"id"`
	Initial string                  `json:"initial" yaml:"initial"`
	Context Context                 `json:"context,omitempty" yaml:"context,omitempty"`
	States  map[string]*StateConfig `json:"states" yaml:"states"`
	Guards  map[string]GuardConfig  `json:"guards,omitempty" yaml:"guards,omitempty"`
	Actions map[string]ActionConfig `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// Clone returns a deep copy of the configuration. Closures are shared;
// every map and slice is copied.
func (m MachineConfig) Clone() MachineConfig {
	out := m
	if m.Context != nil {
		out.Context = m.Context.Clone()
	}
	if m.States != nil {
		out.States = make(map[string]*StateConfig, len(m.States))
		for name, s := range m.States {
			out.States[name] = s.Clone()
		}
	}
	if m.Guards != nil {
		out.Guards = maps.Clone(m.Guards)
	}
	if m.Actions != nil {
		out.Actions = make(map[string]ActionConfig, len(m.Actions))
		for name, a := range m.Actions {
			a.Emits = slices.Clone(a.Emits)
			out.Actions[name] = a
		}
	}
	return out
}

// GuardRef locates a transition that names a guard.
type GuardRef struct {
	State string
	Event string
	Guard string
}

// Validate validates the entire machine configuration:
//   - non-empty ID, Initial and States
//   - Initial exists in States
//   - every state validates
//   - every transition target exists in States
//   - every referenced action and guard is declared
//
// All defects are reported together, each as a *ConfigError.
func (m *MachineConfig) Validate() error {
	errs := m.structuralErrors()
	for _, ref := range m.MissingGuards() {
		errs = append(errs, &ConfigError{
			Machine: m.ID, State: ref.State, Event: ref.Event, Name: ref.Guard,
			Err: ErrUndeclaredGuard,
		})
	}
	return errors.Join(errs...)
}

// ValidateStructure runs every check of Validate except the undeclared-guard
// check. Callers that accept undeclared guards must treat them as failing.
func (m *MachineConfig) ValidateStructure() error {
	return errors.Join(m.structuralErrors()...)
}

func (m *MachineConfig) structuralErrors() []error {
	var errs []error
	fail := func(e *ConfigError) {
		e.Machine = m.ID
		errs = append(errs, e)
	}
	if m.ID == "" {
		fail(&ConfigError{Err: errors.New("machine ID is required")})
	}
	if m.Initial == "" {
		fail(&ConfigError{Err: errors.New("initial state is required")})
	}
	if len(m.States) == 0 {
		fail(&ConfigError{Err: errors.New("states map is required and cannot be empty")})
		return errs
	}
	if m.Initial != "" {
		if _, ok := m.States[m.Initial]; !ok {
			fail(&ConfigError{State: m.Initial, Err: fmt.Errorf("initial: %w", ErrUnknownState)})
		}
	}

	for _, name := range m.StateNames() {
		state := m.States[name]
		if state == nil {
			fail(&ConfigError{State: name, Err: errors.New("state config is nil")})
			continue
		}
		if err := state.Validate(); err != nil {
			fail(&ConfigError{State: name, Err: err})
			continue
		}
		for _, action := range state.Exit {
			if _, ok := m.Actions[action]; !ok {
				fail(&ConfigError{State: name, Name: action, Err: fmt.Errorf("exit: %w", ErrUndeclaredAction)})
			}
		}
		for _, action := range state.Entry {
			if _, ok := m.Actions[action]; !ok {
				fail(&ConfigError{State: name, Name: action, Err: fmt.Errorf("entry: %w", ErrUndeclaredAction)})
			}
		}
		for _, event := range state.Events() {
			trans := state.On[event]
			if _, ok := m.States[trans.Target]; !ok {
				fail(&ConfigError{State: name, Event: event, Name: trans.Target, Err: ErrUnknownTarget})
			}
			for _, action := range trans.Actions {
				if _, ok := m.Actions[action]; !ok {
					fail(&ConfigError{State: name, Event: event, Name: action, Err: ErrUndeclaredAction})
				}
			}
		}
	}

	for _, name := range slices.Sorted(maps.Keys(m.Actions)) {
		a := m.Actions[name]
		if !a.IsClosure() && a.Mutation == "" {
			fail(&ConfigError{Name: name, Err: fmt.Errorf("action: %w: empty mutation", ErrInvalidExpression)})
		}
	}
	for _, name := range slices.Sorted(maps.Keys(m.Guards)) {
		g := m.Guards[name]
		if !g.IsClosure() && g.Expr == "" {
			fail(&ConfigError{Name: name, Err: fmt.Errorf("guard: %w: empty expression", ErrInvalidExpression)})
		}
	}
	return errs
}

// MissingGuards lists transitions whose guard name is not declared in Guards,
// in state then event order.
func (m *MachineConfig) MissingGuards() []GuardRef {
	var refs []GuardRef
	for _, name := range m.StateNames() {
		state := m.States[name]
		if state == nil {
			continue
		}
		for _, event := range state.Events() {
			g := state.On[event].Guard
			if g == "" {
				continue
			}
			if _, ok := m.Guards[g]; !ok {
				refs = append(refs, GuardRef{State: name, Event: event, Guard: g})
			}
		}
	}
	return refs
}

// StateNames returns the declared state names in sorted order.
func (m *MachineConfig) StateNames() []string {
	return slices.Sorted(maps.Keys(m.States))
}

// FindState resolves a state by name.
func (m *MachineConfig) FindState(name string) (*StateConfig, error) {
	if name == "" {
		return nil, errors.New("state name cannot be empty")
	}
	s, ok := m.States[name]
	if !ok || s == nil {
		return nil, fmt.Errorf("state %q: %w", name, ErrUnknownState)
	}
	return s, nil
}

// Unreachable returns states that no path of transitions reaches from Initial,
// sorted. They are legal (a seeded engine may start there) but usually a
// modelling mistake.
func (m *MachineConfig) Unreachable() []string {
	visited := make(map[string]bool)
	m.markReachable(m.Initial, visited)
	var out []string
	for _, name := range m.StateNames() {
		if !visited[name] {
			out = append(out, name)
		}
	}
	return out
}

func (m *MachineConfig) markReachable(name string, visited map[string]bool) {
	state, ok := m.States[name]
	if !ok || state == nil || visited[name] {
		return
	}
	visited[name] = true
	for _, event := range state.Events() {
		m.markReachable(state.On[event].Target, visited)
	}
}

// Portable reports whether every action and guard uses the expression form.
func (m *MachineConfig) Portable() bool {
	for _, a := range m.Actions {
		if a.IsClosure() {
			return false
		}
	}
	for _, g := range m.Guards {
		if g.IsClosure() {
			return false
		}
	}
	return true
}
