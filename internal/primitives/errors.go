package primitives

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidConfig     = errors.New("invalid machine config")
	ErrUnknownState      = errors.New("unknown state")
	ErrUnknownTarget     = errors.New("unknown transition target")
	ErrUndeclaredGuard   = errors.New("undeclared guard")
	ErrUndeclaredAction  = errors.New("undeclared action")
	ErrInvalidExpression = errors.New("invalid expression")
	ErrNotPortable       = errors.New("closure cannot be serialized")
)

// ConfigError locates a configuration defect inside a machine definition.
// It matches ErrInvalidConfig as well as the more specific wrapped error.
type ConfigError struct {
	Machine string
	State   string
	Event   string
	Name    string // guard or action name
	Source  string // expression text, when the defect is in an expression
	Err     error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "machine %q", e.Machine)
	if e.State != "" {
		fmt.Fprintf(&b, " state %q", e.State)
	}
	if e.Event != "" {
		fmt.Fprintf(&b, " event %q", e.Event)
	}
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " source %q", e.Source)
	}
	b.WriteString(": ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString(ErrInvalidConfig.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidConfig}
	}
	return []error{ErrInvalidConfig, e.Err}
}
