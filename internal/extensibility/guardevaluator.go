package extensibility

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/comalice/statekernel/internal/expr"
	"github.com/comalice/statekernel/internal/primitives"
)

// GuardTable is the compiled arena of a machine's guards, indexed by name.
// It is immutable after construction and safe to share between engines built
// from the same config.
type GuardTable struct {
	exprs map[string]*expr.Program
	funcs map[string]primitives.GuardFunc
}

// CompileGuards compiles every guard declared in cfg. All malformed
// expressions are reported together, each naming the guard and its source.
// A nil cache compiles without memoization.
func CompileGuards(cfg *primitives.MachineConfig, cache *expr.Cache) (*GuardTable, error) {
	t := &GuardTable{
		exprs: make(map[string]*expr.Program),
		funcs: make(map[string]primitives.GuardFunc),
	}
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(cfg.Guards)) {
		g := cfg.Guards[name]
		if g.IsClosure() {
			t.funcs[name] = g.Func
			continue
		}
		var (
			prog *expr.Program
			err  error
		)
		if cache != nil {
			prog, err = cache.Compile(g.Expr)
		} else {
			prog, err = expr.Compile(g.Expr)
		}
		if err != nil {
			errs = append(errs, &primitives.ConfigError{
				Machine: cfg.ID,
				Name:    name,
				Source:  g.Expr,
				Err:     fmt.Errorf("guard: %w: %w", primitives.ErrInvalidExpression, err),
			})
			continue
		}
		t.exprs[name] = prog
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

// Has reports whether name is declared.
func (t *GuardTable) Has(name string) bool {
	if _, ok := t.exprs[name]; ok {
		return true
	}
	_, ok := t.funcs[name]
	return ok
}

// Eval evaluates a guard against ctx. Undeclared guards fail closed: they
// return false and never allow a transition. Closure guards receive a copy of
// ctx so they cannot mutate engine state.
func (t *GuardTable) Eval(name string, ctx primitives.Context, ev primitives.Event) (bool, error) {
	if prog, ok := t.exprs[name]; ok {
		ok, err := prog.Bool(expr.Env{Context: ctx, EventName: ev.Name, Payload: ev.Payload})
		if err != nil {
			return false, fmt.Errorf("guard %q: %w", name, err)
		}
		return ok, nil
	}
	if fn, ok := t.funcs[name]; ok {
		return fn(ctx.Clone(), ev), nil
	}
	return false, nil
}

// Fields returns the context fields read by an expression guard.
func (t *GuardTable) Fields(name string) []string {
	if prog, ok := t.exprs[name]; ok {
		return prog.Fields()
	}
	return nil
}
