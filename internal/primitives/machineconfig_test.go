package primitives

import (
	"errors"
	"strings"
	"testing"
)

func validSwitch() *MachineConfig {
	return &MachineConfig{
		ID:      "switch",
		Initial: "unchecked",
		Context: Context{"checked": false, "disabled": false},
		States: map[string]*StateConfig{
			"unchecked": NewStateConfig().AddTransition("TOGGLE", To("checked").WithGuard("canToggle").WithActions("setChecked")),
			"checked":   NewStateConfig().AddTransition("TOGGLE", To("unchecked").WithGuard("canToggle").WithActions("setChecked")),
		},
		Guards:  map[string]GuardConfig{"canToggle": Guard("!context.disabled")},
		Actions: map[string]ActionConfig{"setChecked": Mutation("context.checked = !context.checked")},
	}
}

func TestMachineConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*MachineConfig)
		wantErr     error
		errContains string
	}{
		{
			name:   "valid",
			mutate: func(*MachineConfig) {},
		},
		{
			name:        "missing machine ID",
			mutate:      func(m *MachineConfig) { m.ID = "" },
			wantErr:     ErrInvalidConfig,
			errContains: "machine ID is required",
		},
		{
			name:        "missing initial",
			mutate:      func(m *MachineConfig) { m.Initial = "" },
			wantErr:     ErrInvalidConfig,
			errContains: "initial state is required",
		},
		{
			name:        "initial not found",
			mutate:      func(m *MachineConfig) { m.Initial = "missing" },
			wantErr:     ErrUnknownState,
			errContains: `state "missing"`,
		},
		{
			name:        "empty states",
			mutate:      func(m *MachineConfig) { m.States = map[string]*StateConfig{} },
			wantErr:     ErrInvalidConfig,
			errContains: "cannot be empty",
		},
		{
			name: "invalid transition target",
			mutate: func(m *MachineConfig) {
				m.States["checked"].AddTransition("RESET", To("nowhere"))
			},
			wantErr:     ErrUnknownTarget,
			errContains: `"nowhere"`,
		},
		{
			name: "undeclared guard",
			mutate: func(m *MachineConfig) {
				delete(m.Guards, "canToggle")
			},
			wantErr:     ErrUndeclaredGuard,
			errContains: `"canToggle"`,
		},
		{
			name: "undeclared transition action",
			mutate: func(m *MachineConfig) {
				delete(m.Actions, "setChecked")
			},
			wantErr:     ErrUndeclaredAction,
			errContains: `"setChecked"`,
		},
		{
			name: "undeclared entry action",
			mutate: func(m *MachineConfig) {
				m.States["checked"].AddEntry("announce")
			},
			wantErr:     ErrUndeclaredAction,
			errContains: "entry",
		},
		{
			name: "empty mutation",
			mutate: func(m *MachineConfig) {
				m.Actions["setChecked"] = Mutation("")
			},
			wantErr:     ErrInvalidExpression,
			errContains: "empty mutation",
		},
		{
			name: "whitespace target",
			mutate: func(m *MachineConfig) {
				m.States["checked"].AddTransition("RESET", To("un checked"))
			},
			wantErr:     ErrInvalidConfig,
			errContains: "whitespace",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validSwitch()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v does not match %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v does not match ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error %q does not contain %q", err, tt.errContains)
			}
		})
	}
}

func TestMachineConfigValidateReportsAllDefects(t *testing.T) {
	cfg := validSwitch()
	cfg.Initial = "missing"
	delete(cfg.Guards, "canToggle")

	err := cfg.Validate()
	if !errors.Is(err, ErrUnknownState) || !errors.Is(err, ErrUndeclaredGuard) {
		t.Fatalf("want both defects, got %v", err)
	}
}

func TestMachineConfigValidateStructureIgnoresGuards(t *testing.T) {
	cfg := validSwitch()
	delete(cfg.Guards, "canToggle")
	if err := cfg.ValidateStructure(); err != nil {
		t.Fatalf("ValidateStructure: %v", err)
	}
	refs := cfg.MissingGuards()
	if len(refs) != 2 {
		t.Fatalf("MissingGuards = %v, want 2 refs", refs)
	}
	if refs[0] != (GuardRef{State: "checked", Event: "TOGGLE", Guard: "canToggle"}) {
		t.Errorf("first ref = %+v", refs[0])
	}
}

func TestMachineConfigFindState(t *testing.T) {
	cfg := validSwitch()
	if _, err := cfg.FindState("checked"); err != nil {
		t.Fatalf("FindState(checked): %v", err)
	}
	if _, err := cfg.FindState("nope"); !errors.Is(err, ErrUnknownState) {
		t.Errorf("FindState(nope) err = %v", err)
	}
	if _, err := cfg.FindState(""); err == nil {
		t.Error("FindState(\"\") should fail")
	}
}

func TestMachineConfigUnreachable(t *testing.T) {
	cfg := validSwitch()
	cfg.States["orphan"] = NewStateConfig().AddTransition("GO", To("checked"))
	got := cfg.Unreachable()
	if len(got) != 1 || got[0] != "orphan" {
		t.Errorf("Unreachable() = %v, want [orphan]", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unreachable states must stay legal: %v", err)
	}
}

func TestMachineConfigPortable(t *testing.T) {
	cfg := validSwitch()
	if !cfg.Portable() {
		t.Error("expression config should be portable")
	}
	cfg.Actions["log"] = ActionClosure(func(Context, Event) {})
	if cfg.Portable() {
		t.Error("closure config should not be portable")
	}
}

func TestMachineConfigClone(t *testing.T) {
	cfg := validSwitch()
	cp := cfg.Clone()
	if ComputeVersion(&cp) != ComputeVersion(cfg) {
		t.Fatal("clone should hash like its source")
	}

	cp.States["unchecked"].On["TOGGLE"] = To("gone")
	cp.States["checked"].On["TOGGLE"].Actions[0] = "other"
	delete(cp.States, "checked")
	delete(cp.Guards, "canToggle")
	cp.Actions["extra"] = Mutation("context.x = 1")
	cp.Context["checked"] = true

	if err := cfg.Validate(); err != nil {
		t.Fatalf("source config changed through its clone: %v", err)
	}
	if got := cfg.States["checked"].On["TOGGLE"].Actions[0]; got != "setChecked" {
		t.Errorf("transition actions shared: got %q", got)
	}
	if len(cfg.Actions) != 1 || cfg.Context["checked"] != false {
		t.Error("actions or context shared with clone")
	}

	var empty MachineConfig
	if c := empty.Clone(); c.States != nil || c.Context != nil {
		t.Error("nil maps should stay nil")
	}
}

func TestComputeVersionDeterministic(t *testing.T) {
	a, b := validSwitch(), validSwitch()
	if ComputeVersion(a) != ComputeVersion(b) {
		t.Error("identical configs must share a version")
	}
	b.Context["checked"] = true
	if ComputeVersion(a) == ComputeVersion(b) {
		t.Error("different configs must not share a version")
	}
	b.Version = "v2"
	if got := ComputeVersion(b); got != "v2" {
		t.Errorf("pinned version = %q", got)
	}
	a.Guards["local"] = GuardClosure(func(Context, Event) bool { return true })
	if got := ComputeVersion(a); got != "local" {
		t.Errorf("closure config version = %q", got)
	}
}

func TestMachineBuilder(t *testing.T) {
	cfg, err := NewMachineBuilder("dialog", "closed").
		With("open", false).
		With("preventClose", false).
		Guard("canClose", "!context.preventClose").
		Action("setOpen", "context.open = true").
		Action("setClosed", "context.open = false").
		Describe("setClosed", "close the dialog", "closed").
		State("closed").OnDo("OPEN", "open", "setOpen").
		State("open").OnGuarded("CLOSE", "closed", "canClose", "setClosed").
		Done().
		Build()
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.States["open"].On["CLOSE"]; got.Guard != "canClose" || got.Actions[0] != "setClosed" {
		t.Errorf("CLOSE transition = %+v", got)
	}
	if got := cfg.Actions["setClosed"].Emits; len(got) != 1 || got[0] != "closed" {
		t.Errorf("emits = %v", got)
	}

	_, err = NewMachineBuilder("bad", "missing").State("closed").Done().Build()
	if !errors.Is(err, ErrUnknownState) {
		t.Errorf("Build err = %v, want ErrUnknownState", err)
	}
}
