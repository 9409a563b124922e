package production

import (
	"testing"

	"github.com/comalice/statekernel/internal/core"
	"github.com/comalice/statekernel/internal/primitives"
)

func dialogConfig() primitives.MachineConfig {
	return primitives.NewMachineBuilder("dialog", "closed").
		With("open", false).
		With("preventClose", false).
		Guard("canClose", "!context.preventClose").
		Action("setOpen", "context.open = true").
		Action("setClosed", "context.open = false").
		State("closed").OnDo("OPEN", "open", "setOpen").Done().
		State("open").
		OnGuarded("ESCAPE", "closed", "canClose", "setClosed").
		OnDo("CLOSE", "closed", "setClosed").
		Done().
		MustBuild()
}

func newDialog(t *testing.T, opts ...core.Option) *core.Machine {
	t.Helper()
	m, err := core.NewMachine(dialogConfig(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	return m
}
