// Package statekernel is a declarative finite-state-machine interpreter for
// interactive UI primitives.
//
// A machine is described by a MachineConfig: named states with entry and exit
// actions, event-triggered transitions with optional guards, and an initial
// context. Guards and actions are either portable expressions, shared with
// every other interpreter of the same config, or Go closures for host-only
// behaviour.
//
//	cfg := statekernel.NewMachineBuilder("switch", "unchecked").
//		With("checked", false).
//		Action("setChecked", "context.checked = true").
//		State("unchecked").OnDo("TOGGLE", "checked", "setChecked").Done().
//		State("checked").Done().
//		MustBuild()
//
//	m, err := statekernel.New(cfg)
//	res := m.Send(statekernel.NewEvent("TOGGLE", nil))
//
// The built-in primitives live in package components.
package statekernel

import (
	"github.com/comalice/statekernel/internal/core"
	"github.com/comalice/statekernel/internal/primitives"
)

type (
	MachineConfig    = primitives.MachineConfig
	StateConfig      = primitives.StateConfig
	TransitionConfig = primitives.TransitionConfig
	ActionConfig     = primitives.ActionConfig
	GuardConfig      = primitives.GuardConfig
	ActionFunc       = primitives.ActionFunc
	GuardFunc        = primitives.GuardFunc
	Context          = primitives.Context
	Event            = primitives.Event
	TransitionResult = primitives.TransitionResult
	MachineBuilder   = primitives.MachineBuilder
	ConfigError      = primitives.ConfigError

	Machine          = core.Machine
	Option           = core.Option
	Snapshot         = core.MachineSnapshot
	Observer         = core.Observer
	ObserverFuncs    = core.ObserverFuncs
	TransitionRecord = core.TransitionRecord
	RejectionRecord  = core.RejectionRecord
	Registry         = core.Registry
)

var (
	ErrInvalidConfig     = primitives.ErrInvalidConfig
	ErrUnknownState      = primitives.ErrUnknownState
	ErrUnknownTarget     = primitives.ErrUnknownTarget
	ErrUndeclaredGuard   = primitives.ErrUndeclaredGuard
	ErrUndeclaredAction  = primitives.ErrUndeclaredAction
	ErrInvalidExpression = primitives.ErrInvalidExpression
	ErrNotPortable       = primitives.ErrNotPortable
	ErrSnapshotMismatch  = core.ErrSnapshotMismatch
)

var (
	WithLogger           = core.WithLogger
	WithObserver         = core.WithObserver
	WithLenientGuards    = core.WithLenientGuards
	WithClock            = core.WithClock
	WithExprCache        = core.WithExprCache
	WithActionMiddleware = core.WithActionMiddleware
)

// New starts a machine in cfg.Initial.
func New(cfg MachineConfig, opts ...Option) (*Machine, error) {
	return core.NewMachine(cfg, opts...)
}

// NewAt starts a machine in state with a copy of ctx, ignoring cfg.Initial
// and cfg.Context.
func NewAt(cfg MachineConfig, state string, ctx Context, opts ...Option) (*Machine, error) {
	return core.NewMachineAt(cfg, state, ctx, opts...)
}

// Restore rebuilds a machine from a snapshot taken with Machine.Snapshot.
func Restore(cfg MachineConfig, snap Snapshot, opts ...Option) (*Machine, error) {
	return core.NewMachineFromSnapshot(cfg, snap, opts...)
}

// NewMachineBuilder starts a config with the given id and initial state.
func NewMachineBuilder(id, initial string) *MachineBuilder {
	return primitives.NewMachineBuilder(id, initial)
}

// NewEvent returns an event. A nil payload is valid.
func NewEvent(name string, payload map[string]any) Event {
	return primitives.NewEvent(name, payload)
}

// DecodeJSON parses a portable JSON config. Unknown fields are rejected; New
// validates the result.
func DecodeJSON(data []byte) (MachineConfig, error) { return primitives.DecodeJSON(data) }

// DecodeYAML parses a portable YAML config with strict field checking.
func DecodeYAML(data []byte) (MachineConfig, error) { return primitives.DecodeYAML(data) }

// EncodeJSON renders cfg as indented JSON. Closures fail with ErrNotPortable.
func EncodeJSON(cfg MachineConfig) ([]byte, error) { return primitives.EncodeJSON(cfg) }
