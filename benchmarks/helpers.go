// Package benchmarks holds engine benchmarks and the config generators they
// share.
package benchmarks

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/comalice/statekernel/internal/core"
	"github.com/comalice/statekernel/internal/primitives"
)

// GenFlatConfig creates n states cycling on "TICK". Every transition bumps a
// counter through a portable mutation.
func GenFlatConfig(n int) primitives.MachineConfig {
	if n < 1 {
		n = 1
	}
	b := primitives.NewMachineBuilder(fmt.Sprintf("flat_%d", n), "s0").
		With("ticks", 0).
		Action("tick", "context.ticks = context.ticks + 1")
	for i := 0; i < n; i++ {
		b.State(fmt.Sprintf("s%d", i)).OnDo("TICK", fmt.Sprintf("s%d", (i+1)%n), "tick")
	}
	return b.MustBuild()
}

// GenGuardedConfig creates one state with n guarded self-transitions, event
// E<i> guarded by `context.level >= i`.
func GenGuardedConfig(n int) primitives.MachineConfig {
	if n < 1 {
		n = 1
	}
	b := primitives.NewMachineBuilder(fmt.Sprintf("guarded_%d", n), "main").
		With("level", float64(n/2))
	main := b.State("main")
	for i := 0; i < n; i++ {
		guard := fmt.Sprintf("atLeast%d", i)
		b.Guard(guard, fmt.Sprintf("context.level >= %d", i))
		main.OnGuarded(fmt.Sprintf("E%d", i), "main", guard)
	}
	return b.MustBuild()
}

// GenClosureConfig is GenFlatConfig with a closure counter instead of an
// expression.
func GenClosureConfig(n int) primitives.MachineConfig {
	if n < 1 {
		n = 1
	}
	b := primitives.NewMachineBuilder(fmt.Sprintf("closure_%d", n), "s0").
		With("ticks", 0).
		ActionFunc("tick", func(ctx primitives.Context, _ primitives.Event) {
			v, _ := ctx["ticks"].(float64)
			ctx["ticks"] = v + 1
		})
	for i := 0; i < n; i++ {
		b.State(fmt.Sprintf("s%d", i)).OnDo("TICK", fmt.Sprintf("s%d", (i+1)%n), "tick")
	}
	return b.MustBuild()
}

// GenSnapshotYAML runs a flat machine for ticks events and returns its
// snapshot as YAML.
func GenSnapshotYAML(numStates, ticks int) []byte {
	m, err := core.NewMachine(GenFlatConfig(numStates))
	if err != nil {
		panic(err)
	}
	e := primitives.NewEvent("TICK", nil)
	for i := 0; i < ticks; i++ {
		m.Send(e)
	}
	data, err := yaml.Marshal(m.Snapshot())
	if err != nil {
		panic(err)
	}
	return data
}
