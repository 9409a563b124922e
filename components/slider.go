package components

import "github.com/comalice/statekernel/internal/primitives"

// Slider holds a numeric value clamped to [min, max]. Keyboard steps move by
// step; SET_VALUE and DRAG take payload.value.
func Slider() primitives.MachineConfig {
	const clampPayload = "payload.value > context.max ? context.max : (payload.value < context.min ? context.min : payload.value)"
	return primitives.NewMachineBuilder(NameSlider, "idle").
		With("value", 50).
		With("min", 0).
		With("max", 100).
		With("step", 1).
		With("disabled", false).
		Guard("canInteract", "!context.disabled").
		Guard("canIncrement", "!context.disabled && context.value < context.max").
		Guard("canDecrement", "!context.disabled && context.value > context.min").
		Action("increment", "context.value = context.value + context.step > context.max ? context.max : context.value + context.step").
		Action("decrement", "context.value = context.value - context.step < context.min ? context.min : context.value - context.step").
		Action("setValue", "context.value = "+clampPayload).
		Action("toMin", "context.value = context.min").
		Action("toMax", "context.value = context.max").
		State("idle").
		OnGuarded("INCREMENT", "idle", "canIncrement", "increment").
		OnGuarded("DECREMENT", "idle", "canDecrement", "decrement").
		OnGuarded("SET_VALUE", "idle", "canInteract", "setValue").
		OnGuarded("HOME", "idle", "canInteract", "toMin").
		OnGuarded("END", "idle", "canInteract", "toMax").
		OnGuarded("POINTER_DOWN", "dragging", "canInteract").
		Done().
		State("dragging").
		OnDo("DRAG", "dragging", "setValue").
		On("POINTER_UP", "idle").
		Done().
		MustBuild()
}
