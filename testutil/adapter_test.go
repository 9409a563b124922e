package testutil

import (
	"testing"

	"github.com/comalice/statekernel/components"
	"github.com/comalice/statekernel/internal/conformance"
	"github.com/comalice/statekernel/internal/primitives"
)

// TestAdapters runs every component's vectors through both adapters.
func TestAdapters(t *testing.T) {
	all, err := conformance.LoadDir("../components/testdata")
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(all) == 0 {
		t.Fatal("no vectors found")
	}

	factories := []struct {
		name string
		make func(primitives.MachineConfig) conformance.Factory
	}{
		{"Direct", func(cfg primitives.MachineConfig) conformance.Factory { return DirectFactory(cfg) }},
		{"Snapshot", func(cfg primitives.MachineConfig) conformance.Factory { return SnapshotFactory(cfg) }},
	}

	for _, f := range factories {
		t.Run(f.name, func(t *testing.T) {
			for name, v := range all {
				cfg, ok := components.Config(name)
				if !ok {
					t.Fatalf("no config for %q", name)
				}
				rep := conformance.NewRunner(name, f.make(cfg)).Run(v)
				for _, mm := range rep.Failed {
					t.Errorf("%s", mm)
				}
				if rep.Total() != v.Steps() {
					t.Errorf("%s: ran %d steps, want %d", name, rep.Total(), v.Steps())
				}
			}
		})
	}
}

func TestSnapshotAdapterKeepsState(t *testing.T) {
	cfg := components.Switch()
	f := SnapshotFactory(cfg)
	a, err := f("unchecked", nil)
	if err != nil {
		t.Fatal(err)
	}

	a.Send(primitives.NewEvent("TOGGLE", nil))
	a.Send(primitives.NewEvent("FOCUS", nil))

	if got := a.State(); got != "checked" {
		t.Errorf("state = %q, want checked", got)
	}
	ctx := a.Context()
	if ctx["checked"] != true || ctx["focused"] != true {
		t.Errorf("context = %v, want checked and focused", ctx)
	}
}

func TestFactoryRejectsUnknownState(t *testing.T) {
	for name, f := range map[string]conformance.Factory{
		"Direct":   DirectFactory(components.Dialog()),
		"Snapshot": SnapshotFactory(components.Dialog()),
	} {
		if _, err := f("ajar", nil); err == nil {
			t.Errorf("%s: expected error for unknown state", name)
		}
	}
}
