package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/comalice/statekernel/internal/conformance"
	xlog "github.com/comalice/statekernel/internal/log"
)

func runUnify(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "unify")
	component := fs.String("component", "", "component name (required)")
	yamlPath := fs.String("yaml", "", "YAML scenarios, or a markdown document with a test-vectors block")
	itfPath := fs.String("itf", "", "ITF trace JSON")
	out := fs.String("out", "", "output file (default <vectors dir>/<component>.unified.json)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *component == "" {
		return fmt.Errorf("%w: -component is required", errUsage)
	}
	if *yamlPath == "" && *itfPath == "" {
		return fmt.Errorf("%w: at least one of -yaml and -itf is required", errUsage)
	}
	if *out == "" {
		*out = conformance.Path(e.cfg.VectorsDir, *component)
	}

	var yamlScenarios, itfScenarios []conformance.Scenario
	if *yamlPath != "" {
		sc, err := readYAMLScenarios(*yamlPath)
		if err != nil {
			return err
		}
		yamlScenarios = sc
	}
	if *itfPath != "" {
		data, err := os.ReadFile(*itfPath)
		if err != nil {
			return fmt.Errorf("read itf trace: %w", err)
		}
		sc, err := conformance.ParseITF(*component, data)
		if err != nil {
			return fmt.Errorf("%s: %w", *itfPath, err)
		}
		itfScenarios = sc
	}

	v := conformance.Unify(*component, yamlScenarios, itfScenarios)
	if err := conformance.WriteFile(*out, v); err != nil {
		return err
	}
	e.logger.Info().Str(xlog.FieldPath, *out).
		Int("yaml", v.Sources.YAML).
		Int("itf", v.Sources.ITF).
		Int("steps", v.Steps()).
		Msg("wrote unified vectors")
	fmt.Fprintf(e.stdout, "%s: %d yaml + %d itf scenarios, %d steps\n", *out, v.Sources.YAML, v.Sources.ITF, v.Steps())
	return nil
}

// readYAMLScenarios parses a YAML vector file, or the test-vectors block of a
// markdown file. A markdown file without a block yields no scenarios.
func readYAMLScenarios(path string) ([]conformance.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read yaml vectors: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".md") {
		block, ok := conformance.ExtractTestVectors(string(data))
		if !ok {
			return nil, nil
		}
		data = []byte(block)
	}
	sc, err := conformance.ParseYAMLVectors(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}
