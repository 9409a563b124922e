// StateConfig represents one discrete state: the actions run on entering and
// leaving it and the events it reacts to.
package primitives

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// StateConfig defines a single flat state.
type StateConfig struct {
	Entry []string                    `json:"entry,omitempty" yaml:"entry,omitempty"`
	Exit  []string                    `json:"exit,omitempty" yaml:"exit,omitempty"`
	On    map[string]TransitionConfig `json:"on,omitempty" yaml:"on,omitempty"`
}

// NewStateConfig creates an empty StateConfig.
func NewStateConfig() *StateConfig {
	return &StateConfig{}
}

// WithOn sets the event-to-transition map.
func (s *StateConfig) WithOn(on map[string]TransitionConfig) *StateConfig {
	s.On = maps.Clone(on)
	return s
}

// Clone returns a deep copy of s. A nil state clones to nil.
func (s *StateConfig) Clone() *StateConfig {
	if s == nil {
		return nil
	}
	out := &StateConfig{
		Entry: slices.Clone(s.Entry),
		Exit:  slices.Clone(s.Exit),
	}
	if s.On != nil {
		out.On = make(map[string]TransitionConfig, len(s.On))
		for event, t := range s.On {
			t.Actions = slices.Clone(t.Actions)
			out.On[event] = t
		}
	}
	return out
}

// AddTransition adds or replaces the transition for an event.
func (s *StateConfig) AddTransition(event string, trans TransitionConfig) *StateConfig {
	if s.On == nil {
		s.On = make(map[string]TransitionConfig)
	}
	s.On[event] = trans
	return s
}

// Transition adds a transition from event to target.
// Usage: .Transition("OPEN", "open") or .Transition("OPEN", "open", TransitionConfig{Guard: "canOpen"}).
func (s *StateConfig) Transition(event, target string, transOpts ...TransitionConfig) *StateConfig {
	trans := TransitionConfig{Target: target}
	if len(transOpts) > 0 {
		trans = transOpts[0]
		trans.Target = target
	}
	return s.AddTransition(event, trans)
}

// AddEntry appends entry actions.
func (s *StateConfig) AddEntry(actions ...string) *StateConfig {
	s.Entry = append(s.Entry, actions...)
	return s
}

// AddExit appends exit actions.
func (s *StateConfig) AddExit(actions ...string) *StateConfig {
	s.Exit = append(s.Exit, actions...)
	return s
}

// Events returns the handled event names in sorted order.
func (s *StateConfig) Events() []string {
	return slices.Sorted(maps.Keys(s.On))
}

// ActionNames returns every action referenced by the state in run-order groups:
// exit, transitions (sorted by event), entry.
func (s *StateConfig) ActionNames() []string {
	names := slices.Clone(s.Exit)
	for _, event := range s.Events() {
		names = append(names, s.On[event].Actions...)
	}
	return append(names, s.Entry...)
}

// Validate checks event names and transition syntax.
func (s *StateConfig) Validate() error {
	for i, a := range s.Entry {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("empty entry action name at index %d", i)
		}
	}
	for i, a := range s.Exit {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("empty exit action name at index %d", i)
		}
	}
	for _, event := range s.Events() {
		if strings.TrimSpace(event) == "" {
			return fmt.Errorf("empty event name in On map")
		}
		if err := s.On[event].Validate(); err != nil {
			return fmt.Errorf("event %q: %w", event, err)
		}
	}
	return nil
}
