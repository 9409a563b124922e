package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/comalice/statekernel/components"
	"github.com/comalice/statekernel/internal/conformance"
	xlog "github.com/comalice/statekernel/internal/log"
)

// errMismatch reports that at least one vector step failed.
var errMismatch = errors.New("conformance failures")

const watchDebounce = 300 * time.Millisecond

func runConform(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "conform")
	dir := fs.String("dir", e.cfg.VectorsDir, "directory holding <component>.unified.json files")
	only := fs.String("component", "", "run a single component")
	workers := fs.Int("workers", e.cfg.Workers, "concurrent components (0 = all at once)")
	verbose := fs.Bool("v", false, "print passing components too")
	watch := fs.Bool("watch", false, "re-run whenever a vector file changes")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	c := conformer{dir: *dir, only: *only, workers: *workers, verbose: *verbose, out: e.stdout, logger: e.logger}
	if !*watch {
		return c.once(ctx)
	}
	return c.watch(ctx)
}

type conformer struct {
	dir     string
	only    string
	workers int
	verbose bool
	out     io.Writer
	logger  zerolog.Logger
}

func (c conformer) jobs() ([]conformance.Job, error) {
	all, err := conformance.LoadDir(c.dir)
	if err != nil {
		return nil, err
	}
	if c.only != "" {
		v, ok := all[c.only]
		if !ok {
			return nil, fmt.Errorf("%w: no vectors for %q in %s", errUsage, c.only, c.dir)
		}
		all = map[string]conformance.UnifiedVectors{c.only: v}
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no %s files in %s", conformance.FileSuffix, c.dir)
	}

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	slices.Sort(names)

	jobs := make([]conformance.Job, 0, len(names))
	for _, name := range names {
		cfg, ok := components.Config(name)
		if !ok {
			return nil, fmt.Errorf("vectors for unknown component %q", name)
		}
		r := conformance.NewRunner(name, conformance.NativeFactory(cfg))
		r.Logger = c.logger.With().Str(xlog.FieldComponent, name).Logger()
		jobs = append(jobs, conformance.Job{Vectors: all[name], Runner: r})
	}
	return jobs, nil
}

// once runs every job and prints a report. It returns errMismatch when any
// step failed.
func (c conformer) once(ctx context.Context) error {
	jobs, err := c.jobs()
	if err != nil {
		return err
	}
	reports, err := conformance.RunAll(ctx, jobs, c.workers)
	if err != nil {
		return err
	}

	failed, steps := 0, 0
	for _, rep := range reports {
		steps += rep.Total()
		if rep.OK() {
			if c.verbose {
				fmt.Fprintf(c.out, "ok   %-12s %d/%d\n", rep.Component, rep.Passed, rep.Total())
			}
			continue
		}
		failed += len(rep.Failed)
		fmt.Fprintf(c.out, "FAIL %-12s %d/%d\n", rep.Component, rep.Passed, rep.Total())
		for _, mm := range rep.Failed {
			fmt.Fprintf(c.out, "    %s\n", strings.ReplaceAll(mm.String(), "\n", "\n    "))
		}
	}
	fmt.Fprintf(c.out, "%d components, %d steps, %d failed\n", len(reports), steps, failed)
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d steps", errMismatch, failed, steps)
	}
	return nil
}

// watch runs once, then again after every burst of changes to a vector file,
// until ctx is canceled. Mismatches are reported but do not stop the loop.
func (c conformer) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()
	if err := w.Add(c.dir); err != nil {
		return fmt.Errorf("watch %s: %w", c.dir, err)
	}

	c.runLogged(ctx)

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, conformance.FileSuffix) {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				c.logger.Debug().Str(xlog.FieldPath, filepath.Base(ev.Name)).Str("op", ev.Op.String()).Msg("vector file changed")
				timer.Reset(watchDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn().Err(err).Msg("watcher error")
		case <-timer.C:
			c.runLogged(ctx)
		}
	}
}

func (c conformer) runLogged(ctx context.Context) {
	if err := c.once(ctx); err != nil && !errors.Is(err, errMismatch) {
		c.logger.Error().Err(err).Str(xlog.FieldPath, c.dir).Msg("conformance run failed")
	}
}
