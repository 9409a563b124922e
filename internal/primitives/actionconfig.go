// ActionConfig and GuardConfig are the two-tier evaluation strategy: a
// portable expression understood by every interpreter, or a closure that only
// works inside this process.
package primitives

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ActionFunc is the closure form of an action. It may mutate ctx arbitrarily.
type ActionFunc func(ctx Context, ev Event)

// GuardFunc is the closure form of a guard. It must not mutate ctx.
type GuardFunc func(ctx Context, ev Event) bool

// ActionConfig is either a mutation expression of the form
// `context.<field> = <expr>` or a closure. Exactly one of Mutation and Func is set.
type ActionConfig struct {
	Mutation    string
	Description string
	Emits       []string
	Func        ActionFunc
}

// Mutation returns the portable action for src.
func Mutation(src string) ActionConfig {
	return ActionConfig{Mutation: src}
}

// ActionClosure returns a non-portable action backed by fn.
func ActionClosure(fn ActionFunc) ActionConfig {
	return ActionConfig{Func: fn}
}

// IsClosure reports whether a is the closure variant.
func (a ActionConfig) IsClosure() bool {
	return a.Func != nil
}

type actionObject struct {
	Mutation    string   `json:"mutation" yaml:"mutation"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Emits       []string `json:"emits,omitempty" yaml:"emits,omitempty"`
}

func (a ActionConfig) encoded() (any, error) {
	if a.IsClosure() {
		return nil, ErrNotPortable
	}
	if a.Description == "" && len(a.Emits) == 0 {
		return a.Mutation, nil
	}
	return actionObject{Mutation: a.Mutation, Description: a.Description, Emits: a.Emits}, nil
}

func (a ActionConfig) MarshalJSON() ([]byte, error) {
	v, err := a.encoded()
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func (a *ActionConfig) UnmarshalJSON(data []byte) error {
	var src string
	if err := json.Unmarshal(data, &src); err == nil {
		*a = ActionConfig{Mutation: src}
		return nil
	}
	var obj actionObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("action must be a mutation string or an object: %w", err)
	}
	*a = ActionConfig{Mutation: obj.Mutation, Description: obj.Description, Emits: obj.Emits}
	return nil
}

func (a ActionConfig) MarshalYAML() (any, error) {
	return a.encoded()
}

func (a *ActionConfig) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*a = ActionConfig{Mutation: node.Value}
		return nil
	case yaml.MappingNode:
		var obj actionObject
		if err := node.Decode(&obj); err != nil {
			return err
		}
		*a = ActionConfig{Mutation: obj.Mutation, Description: obj.Description, Emits: obj.Emits}
		return nil
	default:
		return fmt.Errorf("line %d: action must be a mutation string or a mapping", node.Line)
	}
}

// GuardConfig is either a boolean expression or a closure. Exactly one of Expr
// and Func is set.
type GuardConfig struct {
	Expr string
	Func GuardFunc
}

// Guard returns the portable guard for expr.
func Guard(expr string) GuardConfig {
	return GuardConfig{Expr: expr}
}

// GuardClosure returns a non-portable guard backed by fn.
func GuardClosure(fn GuardFunc) GuardConfig {
	return GuardConfig{Func: fn}
}

// IsClosure reports whether g is the closure variant.
func (g GuardConfig) IsClosure() bool {
	return g.Func != nil
}

func (g GuardConfig) MarshalJSON() ([]byte, error) {
	if g.IsClosure() {
		return nil, ErrNotPortable
	}
	return json.Marshal(g.Expr)
}

func (g *GuardConfig) UnmarshalJSON(data []byte) error {
	var src string
	if err := json.Unmarshal(data, &src); err != nil {
		return fmt.Errorf("guard must be an expression string: %w", err)
	}
	*g = GuardConfig{Expr: src}
	return nil
}

func (g GuardConfig) MarshalYAML() (any, error) {
	if g.IsClosure() {
		return nil, ErrNotPortable
	}
	return g.Expr, nil
}

func (g *GuardConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: guard must be an expression string", node.Line)
	}
	*g = GuardConfig{Expr: node.Value}
	return nil
}
