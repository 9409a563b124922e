package core

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/comalice/statekernel/internal/expr"
)

// WithLogger configures the Machine logger. At debug level every action,
// transition and rejection is logged. Defaults to zerolog.Nop().
func WithLogger(l zerolog.Logger) Option {
	return func(m *Machine) {
		m.logger = l
	}
}

// WithObserver registers an Observer. May be given more than once; observers
// are notified in registration order.
func WithObserver(o Observer) Option {
	return func(m *Machine) {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
}

// WithLenientGuards accepts transitions that name undeclared guards. Such
// guards are logged at construction and always fail.
func WithLenientGuards() Option {
	return func(m *Machine) {
		m.lenientGuards = true
	}
}

// WithClock overrides the time source used for records and snapshots.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithExprCache shares compiled expressions between machines built from the
// same configs.
func WithExprCache(c *expr.Cache) Option {
	return func(m *Machine) {
		m.cache = c
	}
}

// WithActionMiddleware wraps the compiled action runner, outermost last.
func WithActionMiddleware(wrap func(ActionRunner) ActionRunner) Option {
	return func(m *Machine) {
		if wrap == nil {
			return
		}
		if prev := m.wrapActions; prev != nil {
			m.wrapActions = func(r ActionRunner) ActionRunner { return wrap(prev(r)) }
			return
		}
		m.wrapActions = wrap
	}
}
