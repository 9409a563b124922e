package production

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/comalice/statekernel/internal/core"
)

const tracerName = "github.com/comalice/statekernel"

// Tracer is a core.Observer that emits one span per Send. Spans are
// backdated to the record timestamp so their duration matches the send.
type Tracer struct {
	tracer trace.Tracer
	parent context.Context
}

// NewTracer creates a Tracer from tp. A nil tp uses the global provider.
// Spans are children of any span found in parent.
func NewTracer(parent context.Context, tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if parent == nil {
		parent = context.Background()
	}
	return &Tracer{tracer: tp.Tracer(tracerName), parent: parent}
}

func (t *Tracer) OnTransition(r core.TransitionRecord) {
	_, span := t.tracer.Start(t.parent, "machine.transition",
		trace.WithTimestamp(r.Timestamp),
		trace.WithAttributes(
			attribute.String("machine.id", r.MachineID),
			attribute.String("event", r.Event.Name),
			attribute.String("from_state", r.Source),
			attribute.String("to_state", r.Target),
			attribute.StringSlice("actions", r.Actions),
		))
	if r.Guard != "" {
		span.SetAttributes(attribute.String("guard", r.Guard))
	}
	span.End(trace.WithTimestamp(r.Timestamp.Add(r.Duration)))
}

func (t *Tracer) OnRejected(r core.RejectionRecord) {
	_, span := t.tracer.Start(t.parent, "machine.rejected",
		trace.WithTimestamp(r.Timestamp),
		trace.WithAttributes(
			attribute.String("machine.id", r.MachineID),
			attribute.String("event", r.Event.Name),
			attribute.String("state", r.State),
			attribute.String("reason", string(r.Reason)),
		))
	if r.Err != nil {
		span.RecordError(r.Err)
		span.SetStatus(codes.Error, r.Err.Error())
	}
	span.End()
}
