package conformance

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/comalice/statekernel/internal/core"
	xlog "github.com/comalice/statekernel/internal/log"
	"github.com/comalice/statekernel/internal/primitives"
)

// Interpreter is the surface a machine implementation exposes to the runner.
type Interpreter interface {
	State() string
	Context() primitives.Context
	Send(ev primitives.Event) primitives.TransitionResult
}

// Factory builds an interpreter seeded at state with ctx.
type Factory func(state string, ctx primitives.Context) (Interpreter, error)

// NativeFactory seeds core.Machines built from cfg.
func NativeFactory(cfg primitives.MachineConfig, opts ...core.Option) Factory {
	return func(state string, ctx primitives.Context) (Interpreter, error) {
		m, err := core.NewMachineAt(cfg, state, ctx, opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// Mismatch localizes one failed step.
type Mismatch struct {
	Component   string
	Scenario    string
	Source      string
	Step        int // 1-based
	Event       string
	WantState   string
	GotState    string
	ContextDiff string // cmp.Diff(want, got); empty when contexts match
	Err         error  // step could not be run
}

func (m Mismatch) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %q step %d (%s)", m.Component, m.Source, m.Scenario, m.Step, m.Event)
	if m.Err != nil {
		fmt.Fprintf(&b, ": %v", m.Err)
		return b.String()
	}
	if m.WantState != m.GotState {
		fmt.Fprintf(&b, ": state want %q got %q", m.WantState, m.GotState)
	}
	if m.ContextDiff != "" {
		fmt.Fprintf(&b, ": context mismatch (-want +got):\n%s", m.ContextDiff)
	}
	return b.String()
}

// Report is the outcome of running one component's vectors.
type Report struct {
	Component string
	Passed    int
	Failed    []Mismatch
}

// OK reports whether every step passed.
func (r Report) OK() bool { return len(r.Failed) == 0 }

// Total is the number of steps run.
func (r Report) Total() int { return r.Passed + len(r.Failed) }

// Runner executes vectors against interpreters from Factory.
type Runner struct {
	Factory Factory
	Infer   Inference
	Logger  zerolog.Logger
}

// NewRunner returns a Runner for component using its inference rule.
func NewRunner(component string, f Factory) *Runner {
	return &Runner{Factory: f, Infer: InferenceFor(component), Logger: zerolog.Nop()}
}

// Seed returns the before snapshot with inferred fields filled in.
func (r *Runner) Seed(step Step) primitives.Context {
	return r.Infer.Context(step.Before.State, step.Before.Context)
}

// Expected returns the context a step must end with. Fields missing from
// after are inferred from the after state, then overlaid onto the inferred
// before context.
func (r *Runner) Expected(step Step) primitives.Context {
	after := r.Infer.Context(step.After.State, step.After.Context)
	return r.Seed(step).Merge(after)
}

// RunStep runs one step on a fresh interpreter. It returns nil when the step
// passes; the returned Mismatch has no location fields set.
func (r *Runner) RunStep(step Step) *Mismatch {
	if step.After.Context == nil {
		return &Mismatch{Event: step.Event, WantState: step.After.State, Err: errNoAfterContext}
	}
	m, err := r.Factory(step.Before.State, r.Seed(step))
	if err != nil {
		return &Mismatch{Event: step.Event, WantState: step.After.State, Err: err}
	}
	m.Send(primitives.NewEvent(step.Event, r.Infer.EventPayload(step)))

	var out Mismatch
	failed := false
	if got := m.State(); got != step.After.State {
		out.WantState, out.GotState = step.After.State, got
		failed = true
	}
	want := r.Expected(step)
	if diff := cmp.Diff(withoutNulls(want), withoutNulls(m.Context()), cmpopts.EquateEmpty()); diff != "" {
		out.ContextDiff = diff
		failed = true
	}
	if !failed {
		return nil
	}
	if out.WantState == "" {
		out.WantState, out.GotState = step.After.State, m.State()
	}
	out.Event = step.Event
	return &out
}

// withoutNulls drops top-level null fields: a field holding null and an
// absent field read the same to every guard and action.
func withoutNulls(ctx primitives.Context) primitives.Context {
	out := make(primitives.Context, len(ctx))
	for k, v := range ctx {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// RunScenario runs every step of sc independently and returns the failures
// plus the number of passing steps.
func (r *Runner) RunScenario(component string, sc Scenario) (passed int, failed []Mismatch) {
	for i, step := range sc.Steps {
		mm := r.RunStep(step)
		if mm == nil {
			passed++
			continue
		}
		mm.Component = component
		mm.Scenario = sc.Name
		mm.Source = sc.Source
		mm.Step = i + 1
		mm.Event = step.Event
		r.Logger.Debug().
			Str(xlog.FieldComponent, component).
			Str(xlog.FieldScenario, sc.Name).
			Int(xlog.FieldStep, i+1).
			Str(xlog.FieldEvent, step.Event).
			Msg("step failed")
		failed = append(failed, *mm)
	}
	return passed, failed
}

// Run runs all scenarios in v.
func (r *Runner) Run(v UnifiedVectors) Report {
	rep := Report{Component: v.Component}
	for _, sc := range v.Scenarios {
		p, f := r.RunScenario(v.Component, sc)
		rep.Passed += p
		rep.Failed = append(rep.Failed, f...)
	}
	return rep
}

// Job pairs a component's vectors with the runner that checks them.
type Job struct {
	Vectors UnifiedVectors
	Runner  *Runner
}

// RunAll runs jobs concurrently, at most limit at a time (limit <= 0 means
// no limit). Reports are returned in job order.
func RunAll(ctx context.Context, jobs []Job, limit int) ([]Report, error) {
	reports := make([]Report, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = job.Runner.Run(job.Vectors)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
