package conformance

import (
	"github.com/comalice/statekernel/internal/primitives"
)

// Inference reconstructs context fields and payloads that ITF traces omit
// because the state name already determines them.
type Inference struct {
	// Fields returns the fields implied by state. Only fields missing from a
	// snapshot are filled in.
	Fields func(state string) primitives.Context
	// Payload returns a payload for a step that carries none, or nil.
	Payload func(step Step) map[string]any
}

// Context returns a copy of ctx with every missing inferred field filled in.
func (inf Inference) Context(state string, ctx primitives.Context) primitives.Context {
	out := ctx.Clone()
	if inf.Fields == nil {
		return out
	}
	for k, v := range inf.Fields(state) {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// EventPayload returns the step payload, inferring one when it is missing.
func (inf Inference) EventPayload(step Step) map[string]any {
	if step.Payload != nil || inf.Payload == nil {
		return step.Payload
	}
	return inf.Payload(step)
}

// openIn is visible when the machine occupies any of states.
func openIn(states ...string) func(string) primitives.Context {
	return func(state string) primitives.Context {
		open := false
		for _, s := range states {
			if state == s {
				open = true
				break
			}
		}
		return primitives.Context{"open": open}
	}
}

// Rules holds the per-component inference rules:
//
//   - dialog, collapsible, select: open = state == "open"
//   - tooltip: open = state == "open" || state == "closing"; a tooltip
//     stays visible while its close delay runs
//   - switch: checked = state == "checked"
//   - togglegroup: a SELECT step without payload selects after.selectedId
//
// Other components get no inference.
var Rules = map[string]Inference{
	"dialog":      {Fields: openIn("open")},
	"collapsible": {Fields: openIn("open")},
	"select":      {Fields: openIn("open")},
	"tooltip":     {Fields: openIn("open", "closing")},
	"switch": {Fields: func(state string) primitives.Context {
		return primitives.Context{"checked": state == "checked"}
	}},
	"togglegroup": {Payload: func(step Step) map[string]any {
		if step.Event != "SELECT" || step.After.Context == nil {
			return nil
		}
		id, ok := step.After.Context["selectedId"]
		if !ok {
			return nil
		}
		return map[string]any{"id": id}
	}},
}

// InferenceFor returns the rule for component, or the zero rule.
func InferenceFor(component string) Inference {
	return Rules[component]
}
