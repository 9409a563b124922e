package components

import "github.com/comalice/statekernel/internal/primitives"

// Checkbox is a tri-state checkbox. Leaving the indeterminate state always
// clears the indeterminate flag.
func Checkbox() primitives.MachineConfig {
	return primitives.NewMachineBuilder(NameCheckbox, "unchecked").
		With("checked", false).
		With("indeterminate", false).
		With("disabled", false).
		Guard("canToggle", "!context.disabled").
		Action("setChecked", "context.checked = true").
		Action("setUnchecked", "context.checked = false").
		Action("setIndeterminate", "context.indeterminate = true").
		Action("clearIndeterminate", "context.indeterminate = false").
		State("unchecked").
		OnGuarded("TOGGLE", "checked", "canToggle", "setChecked").
		OnDo("SET_INDETERMINATE", "indeterminate", "setIndeterminate").
		Done().
		State("checked").
		OnGuarded("TOGGLE", "unchecked", "canToggle", "setUnchecked").
		OnDo("SET_INDETERMINATE", "indeterminate", "setIndeterminate").
		Done().
		State("indeterminate").
		Exit("clearIndeterminate").
		OnGuarded("TOGGLE", "checked", "canToggle", "setChecked").
		Done().
		MustBuild()
}
