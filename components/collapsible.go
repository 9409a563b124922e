package components

import "github.com/comalice/statekernel/internal/primitives"

// Collapsible is a disclosure section. Every transition is blocked while
// disabled.
func Collapsible() primitives.MachineConfig {
	return primitives.NewMachineBuilder(NameCollapsible, "closed").
		With("open", false).
		With("disabled", false).
		Guard("canToggle", "!context.disabled").
		Action("setOpen", "context.open = true").
		Action("setClosed", "context.open = false").
		State("closed").
		OnGuarded("TOGGLE", "open", "canToggle", "setOpen").
		OnGuarded("OPEN", "open", "canToggle", "setOpen").
		Done().
		State("open").
		OnGuarded("TOGGLE", "closed", "canToggle", "setClosed").
		OnGuarded("CLOSE", "closed", "canToggle", "setClosed").
		Done().
		MustBuild()
}
