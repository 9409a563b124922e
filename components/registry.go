package components

import (
	"github.com/comalice/statekernel/internal/core"
	"github.com/comalice/statekernel/internal/primitives"
)

// Component names, matching vector file names.
const (
	NameSwitch      = "switch"
	NameCheckbox    = "checkbox"
	NameDialog      = "dialog"
	NameCollapsible = "collapsible"
	NameTooltip     = "tooltip"
	NameSelect      = "select"
	NameSlider      = "slider"
	NameToggleGroup = "togglegroup"
)

var factories = map[string]core.ConfigFactory{
	NameSwitch:      Switch,
	NameCheckbox:    Checkbox,
	NameDialog:      Dialog,
	NameCollapsible: Collapsible,
	NameTooltip:     Tooltip,
	NameSelect:      Select,
	NameSlider:      Slider,
	NameToggleGroup: ToggleGroup,
}

// Registry returns a registry holding every primitive.
func Registry() *core.MapRegistry {
	r := core.NewMapRegistry()
	for id, f := range factories {
		r.MustRegister(id, f)
	}
	return r
}

// Config returns the config for name.
func Config(name string) (primitives.MachineConfig, bool) {
	f, ok := factories[name]
	if !ok {
		return primitives.MachineConfig{}, false
	}
	return f(), true
}
