package main

import (
	"context"
	"fmt"

	"github.com/comalice/statekernel/components"
	"github.com/comalice/statekernel/internal/production"
)

func runDOT(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "dot")
	component := fs.String("component", "", "component name (required)")
	state := fs.String("state", "", "state to highlight (default initial)")
	asJSON := fs.Bool("json", false, "print the config as JSON instead")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	cfg, ok := components.Config(*component)
	if !ok {
		return fmt.Errorf("%w: unknown component %q (have %v)", errUsage, *component, components.Registry().IDs())
	}

	var viz production.DefaultVisualizer
	if *asJSON {
		data, err := viz.ExportJSON(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, string(data))
		return nil
	}
	if *state == "" {
		*state = cfg.Initial
	}
	if _, ok := cfg.States[*state]; !ok {
		return fmt.Errorf("%w: %s has no state %q", errUsage, *component, *state)
	}
	fmt.Fprint(e.stdout, viz.ExportDOT(cfg, *state))
	return nil
}
