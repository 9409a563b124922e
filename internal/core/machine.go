// Package core provides the runtime tier of the engine: the Machine, its
// functional options, transition observers, snapshots and the config registry.
//
// A Machine is synchronous and single-owner. Send runs the whole transition
// before returning and never spawns goroutines; callers that share a Machine
// between goroutines serialize access themselves.
package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/comalice/statekernel/internal/expr"
	"github.com/comalice/statekernel/internal/extensibility"
	xlog "github.com/comalice/statekernel/internal/log"
	"github.com/comalice/statekernel/internal/primitives"
)

// GuardEvaluator decides whether a named guard allows a transition.
type GuardEvaluator interface {
	Eval(name string, ctx primitives.Context, ev primitives.Event) (bool, error)
}

// ActionRunner executes a named action against the working context.
type ActionRunner interface {
	Run(name string, ctx primitives.Context, ev primitives.Event) error
}

// Option applies configuration to Machine via functional options pattern.
type Option func(*Machine)

// Machine is a running instance of a MachineConfig: the current state name
// plus a privately owned context.
type Machine struct {
	config primitives.MachineConfig
	state  string
	ctx    primitives.Context

	guards  GuardEvaluator
	actions ActionRunner

	cache         *expr.Cache
	wrapActions   func(ActionRunner) ActionRunner
	logger        zerolog.Logger
	observers     []Observer
	lenientGuards bool
	now           func() time.Time
}

// NewMachine validates and compiles cfg, then starts the machine in
// cfg.Initial with a deep copy of cfg.Context.
func NewMachine(cfg primitives.MachineConfig, opts ...Option) (*Machine, error) {
	m, err := newMachine(cfg, opts)
	if err != nil {
		return nil, err
	}
	m.state = cfg.Initial
	m.ctx = cfg.Context.Clone()
	return m, nil
}

// NewMachineAt builds a machine seeded with an explicit state and context,
// bypassing cfg.Initial and cfg.Context. The context is deep-copied.
func NewMachineAt(cfg primitives.MachineConfig, state string, ctx primitives.Context, opts ...Option) (*Machine, error) {
	m, err := newMachine(cfg, opts)
	if err != nil {
		return nil, err
	}
	if _, ok := m.config.States[state]; !ok {
		return nil, &primitives.ConfigError{Machine: cfg.ID, State: state, Err: primitives.ErrUnknownState}
	}
	m.state = state
	m.ctx = ctx.Clone()
	return m, nil
}

func newMachine(cfg primitives.MachineConfig, opts []Option) (*Machine, error) {
	cfg = cfg.Clone()
	m := &Machine{
		config: cfg,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With().Str(xlog.FieldMachineID, cfg.ID).Logger()

	if m.lenientGuards {
		if err := cfg.ValidateStructure(); err != nil {
			return nil, err
		}
		for _, ref := range cfg.MissingGuards() {
			m.logger.Warn().
				Str(xlog.FieldGuard, ref.Guard).
				Str(xlog.FieldEvent, ref.Event).
				Str(xlog.FieldOldState, ref.State).
				Msg("undeclared guard will always fail")
		}
	} else if err := cfg.Validate(); err != nil {
		return nil, err
	}

	guards, gerr := extensibility.CompileGuards(&cfg, m.cache)
	actions, aerr := extensibility.CompileActions(&cfg, m.cache)
	if err := errors.Join(gerr, aerr); err != nil {
		return nil, err
	}
	m.guards = guards

	var runner ActionRunner = actions
	if m.logger.GetLevel() <= zerolog.DebugLevel {
		runner = extensibility.NewLoggingActionRunner(actions, m.logger)
	}
	if m.wrapActions != nil {
		runner = m.wrapActions(runner)
	}
	m.actions = runner
	return m, nil
}

// ID returns the machine config ID.
func (m *Machine) ID() string { return m.config.ID }

// Config returns a deep copy of the machine's configuration.
func (m *Machine) Config() primitives.MachineConfig { return m.config.Clone() }

// State returns the current state name.
func (m *Machine) State() string { return m.state }

// IsInState reports whether the machine is currently in state name.
func (m *Machine) IsInState(name string) bool { return m.state == name }

// Context returns a deep copy of the current context.
func (m *Machine) Context() primitives.Context { return m.ctx.Clone() }

// Send delivers ev and reports the outcome. Action failures roll the machine
// back, are logged, and surface as an unhandled result; use Dispatch to
// receive the error.
func (m *Machine) Send(ev primitives.Event) primitives.TransitionResult {
	res, err := m.Dispatch(ev)
	if err != nil {
		m.logger.Error().Err(err).Str(xlog.FieldEvent, ev.Name).Str(xlog.FieldOldState, m.state).Msg("transition rolled back")
	}
	return res
}

// Dispatch delivers ev like Send but returns action and guard evaluation
// errors. On error the state and context are exactly as before the call.
func (m *Machine) Dispatch(ev primitives.Event) (primitives.TransitionResult, error) {
	start := m.now()
	source := m.state
	sc := m.config.States[source]
	if sc == nil {
		return primitives.Unhandled(), fmt.Errorf("machine %q: current state %q: %w", m.config.ID, source, primitives.ErrUnknownState)
	}

	trans, ok := sc.On[ev.Name]
	if !ok {
		m.reject(ev, source, "", RejectUnmatched, nil, start)
		return primitives.Unhandled(), nil
	}

	if trans.Guard != "" {
		allowed, err := m.guards.Eval(trans.Guard, m.ctx, ev)
		if err != nil {
			m.reject(ev, source, trans.Guard, RejectError, err, start)
			return primitives.Unhandled(), fmt.Errorf("machine %q event %q: %w", m.config.ID, ev.Name, err)
		}
		if !allowed {
			m.reject(ev, source, trans.Guard, RejectGuard, nil, start)
			return primitives.Unhandled(), nil
		}
	}

	target := m.config.States[trans.Target]
	executed := make([]string, 0, len(sc.Exit)+len(trans.Actions)+len(target.Entry))
	working := m.ctx.Clone()
	run := func(names []string) error {
		for _, name := range names {
			if err := m.actions.Run(name, working, ev); err != nil {
				return err
			}
			executed = append(executed, name)
		}
		return nil
	}

	if err := run(sc.Exit); err != nil {
		return m.fail(ev, source, err, start)
	}
	if err := run(trans.Actions); err != nil {
		return m.fail(ev, source, err, start)
	}
	m.state = trans.Target
	if err := run(target.Entry); err != nil {
		m.state = source
		return m.fail(ev, source, err, start)
	}
	m.ctx = working

	res := primitives.TransitionResult{
		Handled:         true,
		NewState:        trans.Target,
		ActionsExecuted: executed,
	}
	m.logger.Debug().
		Str(xlog.FieldEvent, ev.Name).
		Str(xlog.FieldOldState, source).
		Str(xlog.FieldNewState, trans.Target).
		Strs(xlog.FieldActions, executed).
		Msg("transition")
	if len(m.observers) > 0 {
		rec := TransitionRecord{
			MachineID: m.config.ID,
			Event:     ev,
			Source:    source,
			Target:    trans.Target,
			Guard:     trans.Guard,
			Actions:   append([]string(nil), executed...),
			Timestamp: start,
			Duration:  m.now().Sub(start),
		}
		for _, o := range m.observers {
			o.OnTransition(rec)
		}
	}
	return res, nil
}

func (m *Machine) fail(ev primitives.Event, source string, err error, start time.Time) (primitives.TransitionResult, error) {
	m.reject(ev, source, "", RejectError, err, start)
	return primitives.Unhandled(), fmt.Errorf("machine %q event %q in %q: %w", m.config.ID, ev.Name, source, err)
}

func (m *Machine) reject(ev primitives.Event, state, guard string, reason RejectReason, err error, start time.Time) {
	m.logger.Debug().
		Str(xlog.FieldEvent, ev.Name).
		Str(xlog.FieldOldState, state).
		Str(xlog.FieldReason, string(reason)).
		Msg("event not handled")
	if len(m.observers) == 0 {
		return
	}
	rec := RejectionRecord{
		MachineID: m.config.ID,
		Event:     ev,
		State:     state,
		Guard:     guard,
		Reason:    reason,
		Err:       err,
		Timestamp: start,
	}
	for _, o := range m.observers {
		o.OnRejected(rec)
	}
}
