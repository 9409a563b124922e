package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/comalice/statekernel/internal/primitives"
)

// ErrSnapshotMismatch is returned when a snapshot was taken from a different
// machine or config version.
var ErrSnapshotMismatch = errors.New("snapshot does not match config")

// MachineSnapshot is the serializable runtime state of a Machine.
type MachineSnapshot struct {
	MachineID string             `json:"machineID" yaml:"machineID"`
	Version   string             `json:"version" yaml:"version"`
	State     string             `json:"state" yaml:"state"`
	Context   primitives.Context `json:"context" yaml:"context"`
	Timestamp time.Time          `json:"timestamp" yaml:"timestamp"`
}

// Snapshot captures the current state and a deep copy of the context.
func (m *Machine) Snapshot() MachineSnapshot {
	return MachineSnapshot{
		MachineID: m.config.ID,
		Version:   primitives.ComputeVersion(&m.config),
		State:     m.state,
		Context:   m.ctx.Clone(),
		Timestamp: m.now(),
	}
}

// NewMachineFromSnapshot rebuilds a machine from cfg at the state and context
// recorded in snap. The snapshot must come from the same machine ID and, when
// it records one, the same config version.
func NewMachineFromSnapshot(cfg primitives.MachineConfig, snap MachineSnapshot, opts ...Option) (*Machine, error) {
	if snap.MachineID != cfg.ID {
		return nil, fmt.Errorf("machine ID mismatch: have %q, snapshot %q: %w", cfg.ID, snap.MachineID, ErrSnapshotMismatch)
	}
	if snap.Version != "" {
		if v := primitives.ComputeVersion(&cfg); v != snap.Version {
			return nil, fmt.Errorf("machine %q version mismatch: have %q, snapshot %q: %w", cfg.ID, v, snap.Version, ErrSnapshotMismatch)
		}
	}
	return NewMachineAt(cfg, snap.State, snap.Context, opts...)
}
