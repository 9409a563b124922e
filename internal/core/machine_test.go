package core

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/comalice/statekernel/internal/primitives"
)

func switchConfig() primitives.MachineConfig {
	return primitives.NewMachineBuilder("switch", "unchecked").
		With("checked", false).
		With("disabled", false).
		Guard("canToggle", "!context.disabled").
		Action("setChecked", "context.checked = true").
		Action("setUnchecked", "context.checked = false").
		State("unchecked").OnGuarded("TOGGLE", "checked", "canToggle", "setChecked").Done().
		State("checked").OnGuarded("TOGGLE", "unchecked", "canToggle", "setUnchecked").Done().
		MustBuild()
}

func orderedConfig() primitives.MachineConfig {
	return primitives.NewMachineBuilder("ordered", "a").
		With("log", "").
		Action("exitA", "context.log = context.log + 'x'").
		Action("step", "context.log = context.log + 't'").
		Action("enterB", "context.log = context.log + 'e'").
		State("a").Exit("exitA").OnDo("GO", "b", "step").Done().
		State("b").Entry("enterB").On("BACK", "a").Done().
		MustBuild()
}

func mustMachine(t *testing.T, cfg primitives.MachineConfig, opts ...Option) *Machine {
	t.Helper()
	m, err := NewMachine(cfg, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestMachine_InitialState(t *testing.T) {
	m := mustMachine(t, switchConfig())
	if got := m.State(); got != "unchecked" {
		t.Errorf("State() = %q, want unchecked", got)
	}
	if !m.IsInState("unchecked") || m.IsInState("checked") {
		t.Error("IsInState disagrees with State")
	}
	if m.ID() != "switch" {
		t.Errorf("ID() = %q", m.ID())
	}
	want := primitives.Context{"checked": false, "disabled": false}
	if diff := cmp.Diff(want, m.Context()); diff != "" {
		t.Errorf("Context() mismatch (-want +got):\n%s", diff)
	}
}

func TestMachine_SwitchToggle(t *testing.T) {
	m := mustMachine(t, switchConfig())

	res := m.Send(primitives.NewEvent("TOGGLE", nil))
	want := primitives.TransitionResult{Handled: true, NewState: "checked", ActionsExecuted: []string{"setChecked"}}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("first TOGGLE (-want +got):\n%s", diff)
	}
	if got := m.Context()["checked"]; got != true {
		t.Errorf("checked = %v, want true", got)
	}

	res = m.Send(primitives.NewEvent("TOGGLE", nil))
	if !res.Handled || res.NewState != "unchecked" {
		t.Errorf("second TOGGLE = %+v", res)
	}
	if got := m.Context()["checked"]; got != false {
		t.Errorf("checked = %v, want false", got)
	}
}

func TestMachine_DisabledSwitchIgnoresToggle(t *testing.T) {
	m, err := NewMachineAt(switchConfig(), "unchecked", primitives.Context{"checked": false, "disabled": true})
	if err != nil {
		t.Fatal(err)
	}
	res := m.Send(primitives.NewEvent("TOGGLE", nil))
	if diff := cmp.Diff(primitives.Unhandled(), res); diff != "" {
		t.Errorf("result (-want +got):\n%s", diff)
	}
	if m.State() != "unchecked" || m.Context()["checked"] != false {
		t.Errorf("state changed: %s %v", m.State(), m.Context())
	}
}

func TestMachine_UnmatchedEventIsNoop(t *testing.T) {
	m := mustMachine(t, switchConfig())
	before := m.Context()

	for i := 0; i < 3; i++ {
		res := m.Send(primitives.NewEvent("HOVER", map[string]any{"x": 1}))
		if res.Handled || res.NewState != "" || len(res.ActionsExecuted) != 0 || res.ActionsExecuted == nil {
			t.Fatalf("send %d: %+v", i, res)
		}
	}
	if m.State() != "unchecked" {
		t.Errorf("State() = %q", m.State())
	}
	if diff := cmp.Diff(before, m.Context()); diff != "" {
		t.Errorf("context changed (-before +after):\n%s", diff)
	}
}

func TestMachine_FailedGuardEqualsUnmatched(t *testing.T) {
	disabled := primitives.Context{"checked": false, "disabled": true}
	a, err := NewMachineAt(switchConfig(), "unchecked", disabled)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewMachineAt(switchConfig(), "unchecked", disabled)
	if err != nil {
		t.Fatal(err)
	}
	guarded := a.Send(primitives.NewEvent("TOGGLE", nil))
	unmatched := b.Send(primitives.NewEvent("NOPE", nil))
	if diff := cmp.Diff(unmatched, guarded); diff != "" {
		t.Errorf("guard failure differs from unmatched (-unmatched +guard):\n%s", diff)
	}
	if diff := cmp.Diff(b.Context(), a.Context()); diff != "" {
		t.Errorf("contexts differ:\n%s", diff)
	}
}

func TestMachine_ActionOrder(t *testing.T) {
	m := mustMachine(t, orderedConfig())
	res := m.Send(primitives.NewEvent("GO", nil))
	if diff := cmp.Diff([]string{"exitA", "step", "enterB"}, res.ActionsExecuted); diff != "" {
		t.Errorf("ActionsExecuted (-want +got):\n%s", diff)
	}
	if got := m.Context()["log"]; got != "xte" {
		t.Errorf("log = %q, want xte", got)
	}

	res = m.Send(primitives.NewEvent("BACK", nil))
	if !res.Handled || res.ActionsExecuted == nil || len(res.ActionsExecuted) != 0 {
		t.Errorf("transition without actions = %+v", res)
	}
}

func TestMachine_GuardSeesPreTransitionContext(t *testing.T) {
	cfg := primitives.NewMachineBuilder("once", "idle").
		With("armed", true).
		Guard("armed", "context.armed").
		Action("disarm", "context.armed = false").
		State("idle").Exit("disarm").OnGuarded("FIRE", "idle", "armed").Done().
		MustBuild()
	m := mustMachine(t, cfg)

	if res := m.Send(primitives.NewEvent("FIRE", nil)); !res.Handled {
		t.Fatal("first FIRE should pass the guard")
	}
	if res := m.Send(primitives.NewEvent("FIRE", nil)); res.Handled {
		t.Fatal("second FIRE should see armed=false")
	}
}

func TestMachine_DialogEscape(t *testing.T) {
	cfg := primitives.NewMachineBuilder("dialog", "closed").
		With("open", false).
		With("preventClose", false).
		Guard("canClose", "!context.preventClose").
		Action("setOpen", "context.open = true").
		Action("setClosed", "context.open = false").
		State("closed").OnDo("OPEN", "open", "setOpen").Done().
		State("open").OnGuarded("ESCAPE", "closed", "canClose", "setClosed").Done().
		MustBuild()

	tests := []struct {
		name         string
		preventClose bool
		wantState    string
		wantHandled  bool
	}{
		{"closes", false, "closed", true},
		{"prevented", true, "open", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMachineAt(cfg, "open", primitives.Context{"open": true, "preventClose": tt.preventClose})
			if err != nil {
				t.Fatal(err)
			}
			res := m.Send(primitives.NewEvent("ESCAPE", nil))
			if res.Handled != tt.wantHandled || m.State() != tt.wantState {
				t.Errorf("got handled=%v state=%q", res.Handled, m.State())
			}
			if got := m.Context()["open"]; got != !tt.wantHandled {
				t.Errorf("open = %v", got)
			}
		})
	}
}

func TestMachine_SelectPayload(t *testing.T) {
	cfg := primitives.NewMachineBuilder("toggle-group", "idle").
		With("selectedId", nil).
		Action("select", "context.selectedId = event.payload.id").
		State("idle").OnDo("SELECT", "idle", "select").Done().
		MustBuild()
	m := mustMachine(t, cfg)
	res := m.Send(primitives.NewEvent("SELECT", map[string]any{"id": "item-1"}))
	if !res.Handled || res.NewState != "idle" {
		t.Fatalf("SELECT = %+v", res)
	}
	if got := m.Context()["selectedId"]; got != "item-1" {
		t.Errorf("selectedId = %v", got)
	}
}

func TestMachine_ContextReturnsCopy(t *testing.T) {
	seed := primitives.Context{"checked": false, "disabled": false, "meta": map[string]any{"n": 1}}
	m, err := NewMachineAt(switchConfig(), "unchecked", seed)
	if err != nil {
		t.Fatal(err)
	}
	seed["disabled"] = true
	seed["meta"].(map[string]any)["n"] = 2

	got := m.Context()
	got["checked"] = true
	got["meta"].(map[string]any)["n"] = 3

	again := m.Context()
	if again["checked"] != false || again["disabled"] != false {
		t.Errorf("engine context leaked: %v", again)
	}
	if n := again["meta"].(map[string]any)["n"]; n != 1.0 {
		t.Errorf("nested value leaked: %v", n)
	}
}

func TestMachine_ConfigContextNotShared(t *testing.T) {
	cfg := switchConfig()
	m := mustMachine(t, cfg)
	m.Send(primitives.NewEvent("TOGGLE", nil))
	if cfg.Context["checked"] != false {
		t.Error("Send mutated the config's default context")
	}
}

func TestMachine_ConfigMapsNotShared(t *testing.T) {
	cfg := orderedConfig()
	m := mustMachine(t, cfg)

	delete(cfg.States, "b")
	cfg.States["a"].On["GO"] = primitives.To("nowhere")
	cfg.States["a"].Exit[0] = "missing"

	got := m.Config()
	got.States["a"].On["GO"] = primitives.To("nowhere")
	delete(got.States, "b")
	delete(got.Actions, "step")

	res := m.Send(primitives.NewEvent("GO", nil))
	if !res.Handled || res.NewState != "b" {
		t.Fatalf("Send(GO) = %+v, want handled into b", res)
	}
	if diff := cmp.Diff([]string{"exitA", "step", "enterB"}, res.ActionsExecuted); diff != "" {
		t.Errorf("ActionsExecuted mismatch (-want +got):\n%s", diff)
	}
	if _, ok := m.Config().States["b"]; !ok {
		t.Error("Config() lost state b after the caller edited a copy")
	}
}

func TestMachine_ClosureActionsAndGuards(t *testing.T) {
	cfg := primitives.NewMachineBuilder("closure", "idle").
		With("count", 0).
		GuardFunc("underLimit", func(ctx primitives.Context, _ primitives.Event) bool {
			n, _ := primitives.ToFloat(ctx["count"])
			return n < 2
		}).
		ActionFunc("bump", func(ctx primitives.Context, ev primitives.Event) {
			n, _ := primitives.ToFloat(ctx["count"])
			ctx["count"] = n + 1
		}).
		State("idle").OnGuarded("BUMP", "idle", "underLimit", "bump").Done().
		MustBuild()
	m := mustMachine(t, cfg)
	for i := 0; i < 5; i++ {
		m.Send(primitives.NewEvent("BUMP", nil))
	}
	if got := m.Context()["count"]; got != 2.0 {
		t.Errorf("count = %v, want 2", got)
	}
}

func TestMachine_ActionFailureRollsBack(t *testing.T) {
	cfg := primitives.NewMachineBuilder("fragile", "a").
		With("n", 1).
		With("s", "text").
		Action("inc", "context.n = context.n + 1").
		Action("bad", "context.n = context.s * 2").
		State("a").OnDo("GO", "b", "inc", "bad").Done().
		State("b").Done().
		MustBuild()

	var rejected []RejectionRecord
	m := mustMachine(t, cfg, WithObserver(ObserverFuncs{
		Rejected: func(r RejectionRecord) { rejected = append(rejected, r) },
	}))

	res, err := m.Dispatch(primitives.NewEvent("GO", nil))
	if err == nil {
		t.Fatal("expected an error")
	}
	if res.Handled {
		t.Errorf("result = %+v", res)
	}
	if m.State() != "a" {
		t.Errorf("State() = %q, want a", m.State())
	}
	if got := m.Context()["n"]; got != 1.0 {
		t.Errorf("n = %v, want 1", got)
	}
	if len(rejected) != 1 || rejected[0].Reason != RejectError || rejected[0].Err == nil {
		t.Errorf("rejections = %+v", rejected)
	}

	if res := m.Send(primitives.NewEvent("GO", nil)); res.Handled {
		t.Error("Send should report the rolled back transition as unhandled")
	}
}

func TestMachine_EntryFailureRestoresState(t *testing.T) {
	cfg := primitives.NewMachineBuilder("entry", "a").
		ActionFunc("explode", func(primitives.Context, primitives.Event) { panic("no") }).
		State("a").On("GO", "b").Done().
		State("b").Entry("explode").Done().
		MustBuild()
	m := mustMachine(t, cfg)
	if _, err := m.Dispatch(primitives.NewEvent("GO", nil)); err == nil {
		t.Fatal("expected panic to surface as error")
	}
	if m.State() != "a" {
		t.Errorf("State() = %q", m.State())
	}
}

func TestNewMachine_ConstructionErrors(t *testing.T) {
	base := func() primitives.MachineConfig { return switchConfig() }
	tests := []struct {
		name   string
		mutate func(*primitives.MachineConfig)
		want   error
	}{
		{"unknown initial", func(c *primitives.MachineConfig) { c.Initial = "nowhere" }, primitives.ErrUnknownState},
		{"unknown target", func(c *primitives.MachineConfig) {
			c.States["checked"].AddTransition("RESET", primitives.To("gone"))
		}, primitives.ErrUnknownTarget},
		{"undeclared guard", func(c *primitives.MachineConfig) { delete(c.Guards, "canToggle") }, primitives.ErrUndeclaredGuard},
		{"undeclared action", func(c *primitives.MachineConfig) { delete(c.Actions, "setChecked") }, primitives.ErrUndeclaredAction},
		{"malformed guard", func(c *primitives.MachineConfig) {
			c.Guards["canToggle"] = primitives.Guard("!context.")
		}, primitives.ErrInvalidExpression},
		{"malformed action", func(c *primitives.MachineConfig) {
			c.Actions["setChecked"] = primitives.Mutation("context.checked = true; context.x = 1")
		}, primitives.ErrInvalidExpression},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			_, err := NewMachine(cfg)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, primitives.ErrInvalidConfig) {
				t.Errorf("err = %v, want it to match ErrInvalidConfig", err)
			}
		})
	}
}

func TestNewMachine_LenientGuards(t *testing.T) {
	cfg := switchConfig()
	delete(cfg.Guards, "canToggle")
	m, err := NewMachine(cfg, WithLenientGuards())
	if err != nil {
		t.Fatal(err)
	}
	if res := m.Send(primitives.NewEvent("TOGGLE", nil)); res.Handled {
		t.Error("undeclared guard must fail closed")
	}
}

func TestNewMachineAt_UnknownState(t *testing.T) {
	_, err := NewMachineAt(switchConfig(), "maybe", nil)
	if !errors.Is(err, primitives.ErrUnknownState) {
		t.Fatalf("err = %v", err)
	}
}

func TestMachine_Observers(t *testing.T) {
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var trans []TransitionRecord
	var rej []RejectionRecord
	obs := ObserverFuncs{
		Transition: func(r TransitionRecord) { trans = append(trans, r) },
		Rejected:   func(r RejectionRecord) { rej = append(rej, r) },
	}
	m, err := NewMachineAt(switchConfig(), "unchecked", primitives.Context{"checked": false, "disabled": false},
		WithObserver(obs), WithClock(func() time.Time { return clock }))
	if err != nil {
		t.Fatal(err)
	}

	m.Send(primitives.NewEvent("TOGGLE", nil))
	m.Send(primitives.NewEvent("HOVER", nil))

	if len(trans) != 1 {
		t.Fatalf("transitions = %d", len(trans))
	}
	want := TransitionRecord{
		MachineID: "switch",
		Event:     primitives.NewEvent("TOGGLE", nil),
		Source:    "unchecked",
		Target:    "checked",
		Guard:     "canToggle",
		Actions:   []string{"setChecked"},
		Timestamp: clock,
	}
	if diff := cmp.Diff(want, trans[0]); diff != "" {
		t.Errorf("record (-want +got):\n%s", diff)
	}
	if len(rej) != 1 || rej[0].Reason != RejectUnmatched || rej[0].State != "checked" {
		t.Errorf("rejections = %+v", rej)
	}
}

func TestMachine_ActionMiddleware(t *testing.T) {
	var seen []string
	mw := func(next ActionRunner) ActionRunner {
		return runnerFunc(func(name string, ctx primitives.Context, ev primitives.Event) error {
			seen = append(seen, name)
			return next.Run(name, ctx, ev)
		})
	}
	m := mustMachine(t, orderedConfig(), WithActionMiddleware(mw))
	m.Send(primitives.NewEvent("GO", nil))
	if diff := cmp.Diff([]string{"exitA", "step", "enterB"}, seen); diff != "" {
		t.Errorf("middleware saw (-want +got):\n%s", diff)
	}
}

type runnerFunc func(name string, ctx primitives.Context, ev primitives.Event) error

func (f runnerFunc) Run(name string, ctx primitives.Context, ev primitives.Event) error {
	return f(name, ctx, ev)
}
