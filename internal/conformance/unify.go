package conformance

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/renameio/v2"
)

// DefaultGenerated is the timestamp stamped on unified files when
// SOURCE_DATE_EPOCH is unset, so regenerated files are reproducible.
const DefaultGenerated = "2024-01-01T00:00:00Z"

// Unify merges YAML and ITF scenarios, YAML first, into one component's
// vectors and records how many came from each source.
func Unify(component string, yamlScenarios, itfScenarios []Scenario) UnifiedVectors {
	scenarios := make([]Scenario, 0, len(yamlScenarios)+len(itfScenarios))
	scenarios = append(scenarios, yamlScenarios...)
	scenarios = append(scenarios, itfScenarios...)
	return UnifiedVectors{
		Component: component,
		Generated: GeneratedStamp(),
		Sources:   &Sources{YAML: len(yamlScenarios), ITF: len(itfScenarios)},
		Scenarios: scenarios,
	}
}

// GeneratedStamp returns SOURCE_DATE_EPOCH as RFC 3339 when it holds Unix
// seconds, its raw value when it holds anything else, and DefaultGenerated
// when unset.
func GeneratedStamp() string {
	v := os.Getenv("SOURCE_DATE_EPOCH")
	if v == "" {
		return DefaultGenerated
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC().Format(time.RFC3339)
	}
	return v
}

// Marshal renders v as indented JSON with a trailing newline.
func Marshal(v UnifiedVectors) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal vectors: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile validates v and atomically replaces path with it.
func WriteFile(path string, v UnifiedVectors) error {
	if err := v.Validate(); err != nil {
		return err
	}
	data, err := Marshal(v)
	if err != nil {
		return err
	}

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending vectors file: %w", err)
	}
	defer pending.Cleanup() //nolint:errcheck // no-op after a successful replace

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace vectors file: %w", err)
	}
	return nil
}
