package components

import "github.com/comalice/statekernel/internal/primitives"

// Select is a single-choice listbox. The highlighted option follows the
// pointer or arrow keys; SELECT picks a value from the payload and CONFIRM
// commits the highlighted one.
func Select() primitives.MachineConfig {
	return primitives.NewMachineBuilder(NameSelect, "closed").
		With("open", false).
		With("disabled", false).
		With("selectedValue", nil).
		With("highlightedValue", nil).
		Guard("canInteract", "!context.disabled").
		Action("setOpen", "context.open = true").
		Action("setClosed", "context.open = false").
		Action("highlightSelected", "context.highlightedValue = context.selectedValue").
		Action("highlight", "context.highlightedValue = payload.value").
		Action("selectValue", "context.selectedValue = payload.value").
		Action("commitHighlighted", "context.selectedValue = context.highlightedValue").
		State("closed").
		Exit("highlightSelected").
		OnGuarded("OPEN", "open", "canInteract", "setOpen").
		OnGuarded("TOGGLE", "open", "canInteract", "setOpen").
		Done().
		State("open").
		OnDo("CLOSE", "closed", "setClosed").
		OnDo("TOGGLE", "closed", "setClosed").
		OnDo("ESCAPE", "closed", "setClosed").
		OnDo("HIGHLIGHT", "open", "highlight").
		OnGuarded("SELECT", "closed", "canInteract", "selectValue", "setClosed").
		OnGuarded("CONFIRM", "closed", "canInteract", "commitHighlighted", "setClosed").
		Done().
		MustBuild()
}
