package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/comalice/statekernel/internal/conformance"
	"github.com/comalice/statekernel/internal/core"
	"github.com/comalice/statekernel/internal/primitives"
)

// DirectAdapter drives a core.Machine in memory.
type DirectAdapter struct {
	m *core.Machine
}

// NewDirectAdapter wraps m.
func NewDirectAdapter(m *core.Machine) *DirectAdapter {
	return &DirectAdapter{m: m}
}

func (a *DirectAdapter) State() string               { return a.m.State() }
func (a *DirectAdapter) Context() primitives.Context { return a.m.Context() }

func (a *DirectAdapter) Send(ev primitives.Event) primitives.TransitionResult {
	return a.m.Send(ev)
}

// SnapshotAdapter persists the machine as a JSON snapshot after every event
// and rebuilds it before the next one, the way a server holding sessions on
// disk would.
type SnapshotAdapter struct {
	cfg  primitives.MachineConfig
	opts []core.Option
	data []byte
}

// NewSnapshotAdapter serializes m immediately.
func NewSnapshotAdapter(cfg primitives.MachineConfig, m *core.Machine, opts ...core.Option) (*SnapshotAdapter, error) {
	a := &SnapshotAdapter{cfg: cfg, opts: opts}
	if err := a.store(m); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *SnapshotAdapter) store(m *core.Machine) error {
	data, err := json.Marshal(m.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	a.data = data
	return nil
}

func (a *SnapshotAdapter) load() (*core.Machine, error) {
	var snap core.MachineSnapshot
	if err := json.Unmarshal(a.data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return core.NewMachineFromSnapshot(a.cfg, snap, a.opts...)
}

func (a *SnapshotAdapter) mustLoad() *core.Machine {
	m, err := a.load()
	if err != nil {
		panic(err)
	}
	return m
}

func (a *SnapshotAdapter) State() string               { return a.mustLoad().State() }
func (a *SnapshotAdapter) Context() primitives.Context { return a.mustLoad().Context() }

func (a *SnapshotAdapter) Send(ev primitives.Event) primitives.TransitionResult {
	m := a.mustLoad()
	res := m.Send(ev)
	if err := a.store(m); err != nil {
		panic(err)
	}
	return res
}

// DirectFactory builds DirectAdapters over cfg.
func DirectFactory(cfg primitives.MachineConfig, opts ...core.Option) conformance.Factory {
	return func(state string, ctx primitives.Context) (conformance.Interpreter, error) {
		m, err := core.NewMachineAt(cfg, state, ctx, opts...)
		if err != nil {
			return nil, err
		}
		return NewDirectAdapter(m), nil
	}
}

// SnapshotFactory builds SnapshotAdapters over cfg.
func SnapshotFactory(cfg primitives.MachineConfig, opts ...core.Option) conformance.Factory {
	return func(state string, ctx primitives.Context) (conformance.Interpreter, error) {
		m, err := core.NewMachineAt(cfg, state, ctx, opts...)
		if err != nil {
			return nil, err
		}
		a, err := NewSnapshotAdapter(cfg, m, opts...)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}
