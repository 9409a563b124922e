package core

import (
	"time"

	"github.com/comalice/statekernel/internal/primitives"
)

// RejectReason explains why an event did not produce a transition.
type RejectReason string

const (
	// RejectUnmatched means the current state has no transition for the event.
	RejectUnmatched RejectReason = "unmatched"
	// RejectGuard means the transition's guard evaluated falsy.
	RejectGuard RejectReason = "guard"
	// RejectError means a guard or action failed and the machine rolled back.
	RejectError RejectReason = "error"
)

// TransitionRecord describes a completed transition.
type TransitionRecord struct {
	MachineID string
	Event     primitives.Event
	Source    string
	Target    string
	Guard     string
	Actions   []string
	Timestamp time.Time
	Duration  time.Duration
}

// RejectionRecord describes an event that left the machine unchanged.
type RejectionRecord struct {
	MachineID string
	Event     primitives.Event
	State     string
	Guard     string
	Reason    RejectReason
	Err       error
	Timestamp time.Time
}

// Observer is notified synchronously at the end of every Send. Observers must
// not call back into the Machine.
type Observer interface {
	OnTransition(TransitionRecord)
	OnRejected(RejectionRecord)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Transition func(TransitionRecord)
	Rejected   func(RejectionRecord)
}

func (o ObserverFuncs) OnTransition(r TransitionRecord) {
	if o.Transition != nil {
		o.Transition(r)
	}
}

func (o ObserverFuncs) OnRejected(r RejectionRecord) {
	if o.Rejected != nil {
		o.Rejected(r)
	}
}
