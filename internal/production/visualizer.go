package production

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/comalice/statekernel/internal/primitives"
)

// DefaultVisualizer renders flat machine configs.
type DefaultVisualizer struct{}

// Edge represents a transition edge.
type Edge struct {
	From  string
	To    string
	Label string
}

// ExportDOT generates Graphviz DOT source for the machine. The initial state
// gets a double border and current, when non-empty, is filled.
func (v *DefaultVisualizer) ExportDOT(config primitives.MachineConfig, current string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", config.ID)
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, fontsize=10, style=rounded];\n")
	b.WriteString("  edge [fontsize=9];\n")

	for _, name := range config.StateNames() {
		attrs := []string{fmt.Sprintf("label=%q", stateLabel(name, config.States[name]))}
		if name == config.Initial {
			attrs = append(attrs, "peripheries=2")
		}
		if name == current {
			attrs = append(attrs, `style="rounded,filled"`, "fillcolor=lightgreen")
		}
		fmt.Fprintf(&b, "  %q [%s];\n", name, strings.Join(attrs, ", "))
	}

	for _, e := range CollectEdges(config) {
		fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", e.From, e.To, e.Label)
	}
	b.WriteString("}\n")
	return b.String()
}

// ExportJSON serializes the machine config to indented JSON. Configs holding
// closures fail with primitives.ErrNotPortable.
func (v *DefaultVisualizer) ExportJSON(config primitives.MachineConfig) ([]byte, error) {
	return json.MarshalIndent(config, "", "  ")
}

// CollectEdges lists every transition sorted by source state then event.
// Labels read `EVENT [guard] / action, action`.
func CollectEdges(config primitives.MachineConfig) []Edge {
	var edges []Edge
	for _, name := range config.StateNames() {
		state := config.States[name]
		if state == nil {
			continue
		}
		for _, event := range state.Events() {
			t := state.On[event]
			label := event
			if t.Guard != "" {
				label += " [" + t.Guard + "]"
			}
			if len(t.Actions) > 0 {
				label += " / " + strings.Join(t.Actions, ", ")
			}
			edges = append(edges, Edge{From: name, To: t.Target, Label: label})
		}
	}
	return edges
}

func stateLabel(name string, s *primitives.StateConfig) string {
	if s == nil {
		return name
	}
	var lines []string
	lines = append(lines, name)
	if len(s.Entry) > 0 {
		lines = append(lines, "entry / "+strings.Join(s.Entry, ", "))
	}
	if len(s.Exit) > 0 {
		lines = append(lines, "exit / "+strings.Join(s.Exit, ", "))
	}
	return strings.Join(lines, "\n")
}
