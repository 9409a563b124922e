package components

import "github.com/comalice/statekernel/internal/primitives"

// Dialog is a modal dialog. ESCAPE and BACKDROP_CLICK honour preventClose;
// an explicit CLOSE always closes. The open flag is maintained by entry
// actions.
func Dialog() primitives.MachineConfig {
	return primitives.NewMachineBuilder(NameDialog, "closed").
		With("open", false).
		With("preventClose", false).
		Guard("canClose", "!context.preventClose").
		Action("setOpen", "context.open = true").
		Action("setClosed", "context.open = false").
		State("closed").
		Entry("setClosed").
		On("OPEN", "open").
		Done().
		State("open").
		Entry("setOpen").
		On("CLOSE", "closed").
		OnGuarded("ESCAPE", "closed", "canClose").
		OnGuarded("BACKDROP_CLICK", "closed", "canClose").
		Done().
		MustBuild()
}
