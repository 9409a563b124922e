package conformance

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/comalice/statekernel/internal/primitives"
)

// yamlScenario is one hand-authored scenario:
//
//   - scenario: "focus when enabled"
//     given:
//     state: idle
//     context: { disabled: false }
//     when: focus
//     payload: { id: "tab-0" }
//     then:
//     state: focused
type yamlScenario struct {
	Scenario string         `yaml:"scenario"`
	Given    yamlSnapshot   `yaml:"given"`
	When     string         `yaml:"when"`
	Payload  map[string]any `yaml:"payload"`
	Then     yamlSnapshot   `yaml:"then"`
}

type yamlSnapshot struct {
	State   string         `yaml:"state"`
	Context map[string]any `yaml:"context"`
}

// wrapperKeys are accepted as the top-level key of a mapping document.
var wrapperKeys = []string{"test-vectors", "test_vectors", "vectors", "scenarios"}

// ParseYAMLVectors converts hand-authored YAML scenarios into single-step
// scenarios with source "yaml". Event names are upper-cased. Scenarios
// without an event are skipped.
func ParseYAMLVectors(data []byte) ([]Scenario, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml vectors: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	list := doc.Content[0]
	if list.Kind == yaml.MappingNode {
		list = findWrapped(list)
		if list == nil {
			return nil, fmt.Errorf("parse yaml vectors: %w: expected a list or one of %v", ErrInvalidVectors, wrapperKeys)
		}
	}

	var raw []yamlScenario
	if err := list.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse yaml vectors: %w", err)
	}

	var (
		out  []Scenario
		errs []error
	)
	for i, r := range raw {
		event := strings.ToUpper(strings.TrimSpace(r.When))
		if event == "" {
			continue
		}
		if r.Given.State == "" || r.Then.State == "" {
			errs = append(errs, fmt.Errorf("%w: yaml scenario %d %q: given.state and then.state are required", ErrInvalidVectors, i+1, r.Scenario))
			continue
		}
		if r.Then.Context == nil {
			errs = append(errs, fmt.Errorf("%w: yaml scenario %d %q: then.context is required", ErrInvalidVectors, i+1, r.Scenario))
			continue
		}
		out = append(out, Scenario{
			Name:   r.Scenario,
			Source: SourceYAML,
			Steps: []Step{{
				Event:   event,
				Payload: normalizeMap(r.Payload),
				Before:  Snapshot{State: r.Given.State, Context: contextOf(r.Given.Context)},
				After:   Snapshot{State: r.Then.State, Context: contextOf(r.Then.Context)},
			}},
		})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func findWrapped(m *yaml.Node) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		for _, k := range wrapperKeys {
			if m.Content[i].Value == k && m.Content[i+1].Kind == yaml.SequenceNode {
				return m.Content[i+1]
			}
		}
	}
	return nil
}

// ExtractTestVectors returns the body of the first ```test-vectors fenced
// block in a markdown document.
func ExtractTestVectors(markdown string) (string, bool) {
	var (
		b      strings.Builder
		inside bool
	)
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case !inside && trimmed == "```test-vectors":
			inside = true
		case inside && trimmed == "```":
			return strings.TrimSpace(b.String()), true
		case inside:
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return "", false
}

func contextOf(m map[string]any) primitives.Context {
	if m == nil {
		return nil
	}
	return primitives.Context(m).Clone()
}

func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return map[string]any(primitives.Context(m).Clone())
}
