package components

import "github.com/comalice/statekernel/internal/primitives"

// ToggleGroup is a single-selection group of toggle items addressed by id.
// Selecting an item also moves focus to it. Roving focus cycles between the
// first two items.
func ToggleGroup() primitives.MachineConfig {
	return primitives.NewMachineBuilder(NameToggleGroup, "idle").
		With("selectedId", "item-0").
		With("focusedId", "item-0").
		With("disabled", false).
		Guard("canInteract", "!context.disabled").
		Action("selectItem", "context.selectedId = event.payload.id").
		Action("focusItem", "context.focusedId = event.payload.id").
		Action("focusNext", "context.focusedId = (context.focusedId == 'item-0') ? 'item-1' : 'item-0'").
		Action("activateFocused", "context.selectedId = context.focusedId").
		State("idle").
		OnGuarded("SELECT", "idle", "canInteract", "selectItem", "focusItem").
		OnGuarded("FOCUS_NEXT", "idle", "canInteract", "focusNext").
		OnGuarded("FOCUS_PREV", "idle", "canInteract", "focusNext").
		OnGuarded("ACTIVATE", "idle", "canInteract", "activateFocused").
		Done().
		MustBuild()
}
