package extensibility

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/comalice/statekernel/internal/expr"
	xlog "github.com/comalice/statekernel/internal/log"
	"github.com/comalice/statekernel/internal/primitives"
)

// ActionRunner executes a named action against a context.
type ActionRunner interface {
	Run(name string, ctx primitives.Context, ev primitives.Event) error
}

// ActionTable is the compiled arena of a machine's actions, indexed by name.
type ActionTable struct {
	mutations map[string]*expr.Mutation
	funcs     map[string]primitives.ActionFunc
}

// CompileActions compiles every action declared in cfg. Each mutation must be
// a single `context.<field> = <expr>` assignment.
func CompileActions(cfg *primitives.MachineConfig, cache *expr.Cache) (*ActionTable, error) {
	t := &ActionTable{
		mutations: make(map[string]*expr.Mutation),
		funcs:     make(map[string]primitives.ActionFunc),
	}
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(cfg.Actions)) {
		a := cfg.Actions[name]
		if a.IsClosure() {
			t.funcs[name] = a.Func
			continue
		}
		var (
			m   *expr.Mutation
			err error
		)
		if cache != nil {
			m, err = cache.CompileMutation(a.Mutation)
		} else {
			m, err = expr.CompileMutation(a.Mutation)
		}
		if err != nil {
			errs = append(errs, &primitives.ConfigError{
				Machine: cfg.ID,
				Name:    name,
				Source:  a.Mutation,
				Err:     fmt.Errorf("action: %w: %w", primitives.ErrInvalidExpression, err),
			})
			continue
		}
		t.mutations[name] = m
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

// Target returns the field a mutation action assigns, or "" for closures.
func (t *ActionTable) Target(name string) string {
	if m, ok := t.mutations[name]; ok {
		return m.Field
	}
	return ""
}

// Run executes the named action. Mutations compute their value from ctx before
// assigning it; closures run with the live ctx and a panic is returned as an
// error.
func (t *ActionTable) Run(name string, ctx primitives.Context, ev primitives.Event) (err error) {
	if m, ok := t.mutations[name]; ok {
		v, err := m.Value(expr.Env{Context: ctx, EventName: ev.Name, Payload: ev.Payload})
		if err != nil {
			return fmt.Errorf("action %q: %w", name, err)
		}
		ctx[m.Field] = primitives.CloneValue(v)
		return nil
	}
	fn, ok := t.funcs[name]
	if !ok {
		return fmt.Errorf("action %q: %w", name, primitives.ErrUndeclaredAction)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action %q panicked: %v", name, r)
		}
	}()
	fn(ctx, ev)
	return nil
}

// LoggingActionRunner wraps an ActionRunner and logs each execution at debug level.
type LoggingActionRunner struct {
	inner  ActionRunner
	logger zerolog.Logger
}

// NewLoggingActionRunner creates a new LoggingActionRunner wrapping the given inner runner.
func NewLoggingActionRunner(inner ActionRunner, logger zerolog.Logger) *LoggingActionRunner {
	return &LoggingActionRunner{inner: inner, logger: logger}
}

// Run logs before and after delegating to the inner runner.
func (r *LoggingActionRunner) Run(name string, ctx primitives.Context, ev primitives.Event) error {
	start := time.Now()
	err := r.inner.Run(name, ctx, ev)
	entry := r.logger.Debug()
	if err != nil {
		entry = r.logger.Warn().Err(err)
	}
	entry.
		Str(xlog.FieldAction, name).
		Str(xlog.FieldEvent, ev.Name).
		Dur("duration", time.Since(start)).
		Msg("action executed")
	return err
}
