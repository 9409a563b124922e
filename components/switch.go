package components

import "github.com/comalice/statekernel/internal/primitives"

// Switch is a two-state on/off control. TOGGLE is blocked while the switch
// is disabled or read-only; focus is tracked in context.
func Switch() primitives.MachineConfig {
	return primitives.NewMachineBuilder(NameSwitch, "unchecked").
		With("checked", false).
		With("disabled", false).
		With("readOnly", false).
		With("focused", false).
		Guard("canToggle", "!context.disabled && !context.readOnly").
		Action("setChecked", "context.checked = true").
		Action("setUnchecked", "context.checked = false").
		Action("setFocused", "context.focused = true").
		Action("setBlurred", "context.focused = false").
		State("unchecked").
		OnGuarded("TOGGLE", "checked", "canToggle", "setChecked").
		OnDo("FOCUS", "unchecked", "setFocused").
		OnDo("BLUR", "unchecked", "setBlurred").
		Done().
		State("checked").
		OnGuarded("TOGGLE", "unchecked", "canToggle", "setUnchecked").
		OnDo("FOCUS", "checked", "setFocused").
		OnDo("BLUR", "checked", "setBlurred").
		Done().
		MustBuild()
}
