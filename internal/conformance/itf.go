package conformance

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/comalice/statekernel/internal/primitives"
)

// itfFields are the state variables lifted from an ITF state into context.
var itfFields = []string{
	"checked",
	"disabled",
	"readOnly",
	"focused",
	"indeterminate",
	"loading",
	"pressed",
	"selectedId",
	"focusedId",
}

type itfTrace struct {
	States []map[string]json.RawMessage `json:"states"`
}

// ParseITF converts an ITF trace into one scenario named
// `itf-trace-<component>` whose steps are consecutive state pairs. Traces with
// fewer than two states yield no scenario.
//
// The event of a step is the after state's `_action`, upper-cased, or else is
// inferred from which context field changed. The state name comes from
// `_state` or `state` and defaults to "idle".
func ParseITF(component string, data []byte) ([]Scenario, error) {
	var trace itfTrace
	if err := json.Unmarshal(data, &trace); err != nil {
		return nil, fmt.Errorf("parse itf trace: %w", err)
	}
	if len(trace.States) < 2 {
		return nil, nil
	}

	states := make([]map[string]any, len(trace.States))
	for i, raw := range trace.States {
		s := make(map[string]any, len(raw))
		for k, v := range raw {
			val, err := decodeITFValue(v)
			if err != nil {
				return nil, fmt.Errorf("parse itf trace: state %d field %q: %w", i, k, err)
			}
			s[k] = val
		}
		states[i] = s
	}

	steps := make([]Step, 0, len(states)-1)
	for i := 1; i < len(states); i++ {
		before, after := states[i-1], states[i]
		beforeCtx, afterCtx := itfContext(before), itfContext(after)

		event := InferEvent(beforeCtx, afterCtx)
		if action, ok := after["_action"].(string); ok && action != "" {
			event = strings.ToUpper(action)
		}

		step := Step{
			Event:  event,
			Before: Snapshot{State: itfState(before), Context: beforeCtx},
			After:  Snapshot{State: itfState(after), Context: afterCtx},
		}
		if event == "SELECT_TAB" {
			if id, ok := after["selectedId"]; ok {
				step.Payload = map[string]any{"id": id}
			}
		}
		steps = append(steps, step)
	}

	return []Scenario{{
		Name:   "itf-trace-" + component,
		Source: SourceITF,
		Steps:  steps,
	}}, nil
}

// decodeITFValue decodes a JSON value, unwrapping ITF `{"#bigint": "n"}`
// integers into float64.
func decodeITFValue(raw json.RawMessage) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return unwrapBigint(v)
}

func unwrapBigint(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		if s, ok := t["#bigint"].(string); ok && len(t) == 1 {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("bad #bigint %q", s)
			}
			return f, nil
		}
		for k, vv := range t {
			u, err := unwrapBigint(vv)
			if err != nil {
				return nil, err
			}
			t[k] = u
		}
	case []any:
		for i, vv := range t {
			u, err := unwrapBigint(vv)
			if err != nil {
				return nil, err
			}
			t[i] = u
		}
	}
	return v, nil
}

func itfContext(state map[string]any) primitives.Context {
	ctx := primitives.Context{}
	for _, f := range itfFields {
		if v, ok := state[f]; ok {
			ctx[f] = v
		}
	}
	return ctx
}

func itfState(state map[string]any) string {
	for _, k := range []string{"_state", "state"} {
		if s, ok := state[k].(string); ok {
			return s
		}
	}
	return "idle"
}

// InferEvent names the event that most plausibly caused before to become
// after, checking fields in a fixed priority order. It returns "UNKNOWN"
// when no tracked field changed.
func InferEvent(before, after primitives.Context) string {
	changed := func(f string) bool {
		bv, bok := before[f]
		av, aok := after[f]
		return bok != aok || !reflect.DeepEqual(bv, av)
	}
	is := func(f string) bool {
		b, _ := after[f].(bool)
		return b
	}
	switch {
	case changed("checked"):
		return "TOGGLE"
	case changed("focused"):
		if is("focused") {
			return "FOCUS"
		}
		return "BLUR"
	case changed("pressed"):
		if is("pressed") {
			return "PRESS_DOWN"
		}
		return "PRESS_UP"
	case changed("loading"):
		if is("loading") {
			return "START_LOADING"
		}
		return "STOP_LOADING"
	case changed("selectedId"):
		return "SELECT_TAB"
	case changed("focusedId"):
		return "FOCUS_NEXT"
	case changed("indeterminate"):
		return "SET_INDETERMINATE"
	}
	return "UNKNOWN"
}
