package components

import "github.com/comalice/statekernel/internal/primitives"

// Tooltip shows after a hover delay and hides after a close delay. It stays
// visible, with open=true, while closing. Keyboard focus shows it at once.
// Delays are driven by the host sending DELAY_ELAPSED.
func Tooltip() primitives.MachineConfig {
	return primitives.NewMachineBuilder(NameTooltip, "closed").
		With("open", false).
		With("disabled", false).
		Guard("canShow", "!context.disabled").
		Action("setOpen", "context.open = true").
		Action("setClosed", "context.open = false").
		State("closed").
		OnGuarded("POINTER_ENTER", "opening", "canShow").
		OnGuarded("FOCUS", "open", "canShow", "setOpen").
		Done().
		State("opening").
		OnDo("DELAY_ELAPSED", "open", "setOpen").
		On("POINTER_LEAVE", "closed").
		Done().
		State("open").
		On("POINTER_LEAVE", "closing").
		OnDo("BLUR", "closed", "setClosed").
		OnDo("ESCAPE", "closed", "setClosed").
		Done().
		State("closing").
		OnDo("DELAY_ELAPSED", "closed", "setClosed").
		On("POINTER_ENTER", "open").
		OnDo("ESCAPE", "closed", "setClosed").
		Done().
		MustBuild()
}
