package conformance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/comalice/statekernel/internal/primitives"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// dialogConfig is a minimal open/close machine that keeps the open flag in
// step with the state.
func dialogConfig() primitives.MachineConfig {
	return primitives.NewMachineBuilder("dialog", "closed").
		With("open", false).
		With("locked", false).
		Guard("unlocked", "!context.locked").
		Action("setOpen", "context.open = true").
		Action("setClosed", "context.open = false").
		State("closed").
		OnGuarded("OPEN", "open", "unlocked", "setOpen").
		Done().
		State("open").
		OnDo("CLOSE", "closed", "setClosed").
		Done().
		MustBuild()
}

func snap(state string, ctx primitives.Context) Snapshot {
	return Snapshot{State: state, Context: ctx}
}

func TestRunStepPasses(t *testing.T) {
	r := NewRunner("dialog", NativeFactory(dialogConfig()))

	tests := []struct {
		name string
		step Step
	}{
		{"full contexts", Step{
			Event:  "OPEN",
			Before: snap("closed", primitives.Context{"open": false, "locked": false}),
			After:  snap("open", primitives.Context{"open": true, "locked": false}),
		}},
		{"inferred open flag", Step{
			Event:  "OPEN",
			Before: snap("closed", primitives.Context{}),
			After:  snap("open", primitives.Context{}),
		}},
		{"guard blocks", Step{
			Event:  "OPEN",
			Before: snap("closed", primitives.Context{"locked": true}),
			After:  snap("closed", primitives.Context{"locked": true}),
		}},
		{"unchanged fields carried from before", Step{
			Event:  "CLOSE",
			Before: snap("open", primitives.Context{"locked": true}),
			After:  snap("closed", primitives.Context{}),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, r.RunStep(tt.step))
		})
	}
}

func TestRunStepMismatch(t *testing.T) {
	r := NewRunner("dialog", NativeFactory(dialogConfig()))

	mm := r.RunStep(Step{
		Event:  "OPEN",
		Before: snap("closed", primitives.Context{"locked": true}),
		After:  snap("open", primitives.Context{"locked": true}),
	})
	require.NotNil(t, mm)
	assert.Equal(t, "open", mm.WantState)
	assert.Equal(t, "closed", mm.GotState)
	assert.Contains(t, mm.ContextDiff, "open")

	mm = r.RunStep(Step{
		Event:  "OPEN",
		Before: snap("closed", primitives.Context{}),
		After:  snap("open", primitives.Context{"open": true, "extra": 1}),
	})
	require.NotNil(t, mm)
	assert.Equal(t, mm.WantState, mm.GotState)
	assert.Contains(t, mm.ContextDiff, "extra")
}

func TestRunStepNullEqualsAbsent(t *testing.T) {
	r := NewRunner("dialog", NativeFactory(dialogConfig()))
	assert.Nil(t, r.RunStep(Step{
		Event:  "OPEN",
		Before: snap("closed", primitives.Context{}),
		After:  snap("open", primitives.Context{"note": nil}),
	}))
}

func TestRunStepFactoryError(t *testing.T) {
	boom := errors.New("boom")
	r := NewRunner("dialog", func(string, primitives.Context) (Interpreter, error) { return nil, boom })

	mm := r.RunStep(Step{Event: "OPEN", Before: snap("closed", nil), After: snap("open", primitives.Context{})})
	require.NotNil(t, mm)
	assert.ErrorIs(t, mm.Err, boom)
	assert.Contains(t, mm.String(), "boom")
}

func TestRunStepRequiresAfterContext(t *testing.T) {
	r := NewRunner("dialog", NativeFactory(dialogConfig()))

	sc := Scenario{Name: "bare", Source: SourceITF, Steps: []Step{
		{Event: "OPEN", Before: snap("closed", primitives.Context{}), After: snap("open", nil)},
	}}
	passed, failed := r.RunScenario("dialog", sc)
	assert.Zero(t, passed)
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed[0].Err, ErrInvalidVectors)
	assert.Contains(t, failed[0].String(), "after context is required")
}

func TestRunStepsAreIsolated(t *testing.T) {
	r := NewRunner("dialog", NativeFactory(dialogConfig()))

	// The second step would fail if it inherited the first step's result.
	sc := Scenario{Name: "twice", Source: SourceYAML, Steps: []Step{
		{Event: "OPEN", Before: snap("closed", primitives.Context{}), After: snap("open", primitives.Context{})},
		{Event: "OPEN", Before: snap("closed", primitives.Context{}), After: snap("open", primitives.Context{})},
	}}
	passed, failed := r.RunScenario("dialog", sc)
	assert.Equal(t, 2, passed)
	assert.Empty(t, failed)
}

func TestRunReportsLocation(t *testing.T) {
	r := NewRunner("dialog", NativeFactory(dialogConfig()))
	v := UnifiedVectors{Component: "dialog", Scenarios: []Scenario{
		{Name: "ok", Source: SourceYAML, Steps: []Step{
			{Event: "OPEN", Before: snap("closed", primitives.Context{}), After: snap("open", primitives.Context{})},
		}},
		{Name: "itf-trace-dialog", Source: SourceITF, Steps: []Step{
			{Event: "CLOSE", Before: snap("open", primitives.Context{}), After: snap("closed", primitives.Context{})},
			{Event: "CLOSE", Before: snap("open", primitives.Context{}), After: snap("open", primitives.Context{})},
		}},
	}}

	rep := r.Run(v)
	assert.False(t, rep.OK())
	assert.Equal(t, 3, rep.Total())
	assert.Equal(t, 2, rep.Passed)
	require.Len(t, rep.Failed, 1)

	mm := rep.Failed[0]
	assert.Equal(t, "dialog", mm.Component)
	assert.Equal(t, "itf-trace-dialog", mm.Scenario)
	assert.Equal(t, SourceITF, mm.Source)
	assert.Equal(t, 2, mm.Step)
	assert.Equal(t, "CLOSE", mm.Event)
	assert.Contains(t, mm.String(), `"itf-trace-dialog" step 2 (CLOSE)`)
	assert.Contains(t, mm.String(), `state want "open" got "closed"`)
}

func TestRunAll(t *testing.T) {
	r := NewRunner("dialog", NativeFactory(dialogConfig()))
	ok := UnifiedVectors{Component: "dialog", Scenarios: []Scenario{{Name: "a", Source: SourceYAML, Steps: []Step{
		{Event: "OPEN", Before: snap("closed", nil), After: snap("open", primitives.Context{})},
	}}}}
	bad := UnifiedVectors{Component: "dialog-bad", Scenarios: []Scenario{{Name: "b", Source: SourceYAML, Steps: []Step{
		{Event: "OPEN", Before: snap("closed", nil), After: snap("closed", primitives.Context{})},
	}}}}

	reps, err := RunAll(context.Background(), []Job{{ok, r}, {bad, r}, {ok, r}}, 2)
	require.NoError(t, err)
	require.Len(t, reps, 3)
	assert.True(t, reps[0].OK())
	assert.False(t, reps[1].OK())
	assert.Equal(t, "dialog-bad", reps[1].Component)
	assert.True(t, reps[2].OK())
}

func TestRunAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner("dialog", NativeFactory(dialogConfig()))
	_, err := RunAll(ctx, []Job{{UnifiedVectors{Component: "dialog"}, r}}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNativeFactoryUnknownState(t *testing.T) {
	m, err := NativeFactory(dialogConfig())("ajar", nil)
	assert.Error(t, err)
	assert.Nil(t, m)
}
