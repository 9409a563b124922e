// TransitionConfig describes where an event leads from a state, optionally
// gated by a guard and accompanied by actions.
//
// The serialized form accepts a bare target name as shorthand for a
// transition without guard or actions, and emits that shorthand when it can.
package primitives

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// TransitionConfig defines a single (state, event) -> target rule.
type TransitionConfig struct {
	Target  string   `json:"target" yaml:"target"`
	Actions []string `json:"actions,omitempty" yaml:"actions,omitempty"`
	Guard   string   `json:"guard,omitempty" yaml:"guard,omitempty"`
}

// To returns the shorthand transition to target.
func To(target string) TransitionConfig {
	return TransitionConfig{Target: target}
}

// WithGuard returns a copy of t gated by guard.
func (t TransitionConfig) WithGuard(guard string) TransitionConfig {
	t.Guard = guard
	return t
}

// WithActions returns a copy of t running actions in order.
func (t TransitionConfig) WithActions(actions ...string) TransitionConfig {
	t.Actions = append([]string(nil), actions...)
	return t
}

// IsShorthand reports whether t has neither guard nor actions.
func (t TransitionConfig) IsShorthand() bool {
	return t.Guard == "" && len(t.Actions) == 0
}

// Validate checks the target name syntax.
func (t TransitionConfig) Validate() error {
	if t.Target == "" {
		return errors.New("target is required")
	}
	if strings.IndexFunc(t.Target, unicode.IsSpace) >= 0 {
		return fmt.Errorf("invalid target %q: contains whitespace", t.Target)
	}
	for i, a := range t.Actions {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("empty action name at index %d", i)
		}
	}
	return nil
}

type transitionObject TransitionConfig

func (t TransitionConfig) MarshalJSON() ([]byte, error) {
	if t.IsShorthand() {
		return json.Marshal(t.Target)
	}
	return json.Marshal(transitionObject(t))
}

func (t *TransitionConfig) UnmarshalJSON(data []byte) error {
	var target string
	if err := json.Unmarshal(data, &target); err == nil {
		*t = TransitionConfig{Target: target}
		return nil
	}
	var obj transitionObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("transition must be a target name or an object: %w", err)
	}
	*t = TransitionConfig(obj)
	return nil
}

func (t TransitionConfig) MarshalYAML() (any, error) {
	if t.IsShorthand() {
		return t.Target, nil
	}
	return transitionObject(t), nil
}

func (t *TransitionConfig) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*t = TransitionConfig{Target: node.Value}
		return nil
	case yaml.MappingNode:
		var obj transitionObject
		if err := node.Decode(&obj); err != nil {
			return err
		}
		*t = TransitionConfig(obj)
		return nil
	default:
		return fmt.Errorf("line %d: transition must be a target name or a mapping", node.Line)
	}
}
