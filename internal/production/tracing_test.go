package production

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/comalice/statekernel/internal/core"
	"github.com/comalice/statekernel/internal/primitives"
)

func TestTracerObserver(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	m := newDialog(t,
		core.WithObserver(NewTracer(context.Background(), tp)),
		core.WithClock(func() time.Time { return at }))

	m.Send(primitives.NewEvent("OPEN", nil))
	m.Send(primitives.NewEvent("OPEN", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, "machine.transition", spans[0].Name)
	assert.True(t, spans[0].StartTime.Equal(at))
	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "dialog", attrs["machine.id"])
	assert.Equal(t, "closed", attrs["from_state"])
	assert.Equal(t, "open", attrs["to_state"])
	assert.Equal(t, []string{"setOpen"}, attrs["actions"])

	assert.Equal(t, "machine.rejected", spans[1].Name)
}
