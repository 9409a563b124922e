package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/comalice/statekernel/components"
	"github.com/comalice/statekernel/internal/core"
	"github.com/comalice/statekernel/internal/extensibility"
	"github.com/comalice/statekernel/internal/primitives"
	"github.com/comalice/statekernel/internal/production"
)

// runLine is printed once per event.
type runLine struct {
	Event  string                      `json:"event"`
	Result primitives.TransitionResult `json:"result"`
	State  string                      `json:"state"`
	Error  string                      `json:"error,omitempty"`
}

func runEvents(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "run")
	component := fs.String("component", "", "component name (required)")
	events := fs.String("events", "-", "newline-delimited JSON events, - for stdin")
	store := fs.String("store", e.cfg.SessionsDir, "snapshot directory for -load and -save")
	format := fs.String("format", "json", "snapshot format: json or yaml")
	load := fs.String("load", "", "resume from the snapshot stored under this key")
	save := fs.String("save", "", "store the final snapshot under this key")
	trace := fs.Bool("trace", false, "print transition records to stderr")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	cfg, ok := components.Config(*component)
	if !ok {
		return fmt.Errorf("%w: unknown component %q (have %v)", errUsage, *component, components.Registry().IDs())
	}

	var persister production.Persister
	if *load != "" || *save != "" {
		if *store == "" {
			return fmt.Errorf("%w: -store is required with -load or -save", errUsage)
		}
		p, err := openPersister(*store, *format)
		if err != nil {
			return err
		}
		persister = p
	}

	pub := production.NewChannelPublisher(256)
	defer pub.Close()
	opts := []core.Option{core.WithLogger(e.logger), core.WithObserver(pub)}

	var (
		m   *core.Machine
		err error
	)
	if *load != "" {
		snap, lerr := persister.Load(ctx, *load)
		if lerr != nil {
			return lerr
		}
		m, err = core.NewMachineFromSnapshot(cfg, snap, opts...)
	} else {
		m, err = core.NewMachine(cfg, opts...)
	}
	if err != nil {
		return err
	}

	in := e.stdin
	if *events != "-" {
		f, err := os.Open(*events)
		if err != nil {
			return fmt.Errorf("open events: %w", err)
		}
		defer f.Close()
		in = f
	}

	failed, err := feed(ctx, m, extensibility.NewDecoderEventSource(in), e.stdout, func() {
		if *trace {
			drainRecords(pub, e.stderr)
		}
	})
	if err != nil {
		return err
	}

	if *save != "" {
		if err := persister.Save(ctx, *save, m.Snapshot()); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d events failed", failed)
	}
	return nil
}

// feed sends every event from src to m and prints one JSON line per event.
// It returns how many events failed with an error.
func feed(ctx context.Context, m *core.Machine, src *extensibility.DecoderEventSource, out io.Writer, after func()) (int, error) {
	defer src.Stop()
	enc := json.NewEncoder(out)
	failed := 0
	for {
		select {
		case <-ctx.Done():
			return failed, ctx.Err()
		case ev, ok := <-src.Events():
			if !ok {
				if err := src.Err(); err != nil {
					return failed, fmt.Errorf("read events: %w", err)
				}
				return failed, nil
			}
			res, err := m.Dispatch(ev)
			line := runLine{Event: ev.Name, Result: res, State: m.State()}
			if err != nil {
				line.Error = err.Error()
				failed++
			}
			if err := enc.Encode(line); err != nil {
				return failed, fmt.Errorf("write result: %w", err)
			}
			after()
		}
	}
}

func drainRecords(pub *production.ChannelPublisher, w io.Writer) {
	for {
		select {
		case rec, ok := <-pub.Records():
			if !ok {
				return
			}
			fmt.Fprintf(w, "%s --%s--> %s %v\n", rec.Source, rec.Event.Name, rec.Target, rec.Actions)
		default:
			return
		}
	}
}

func openPersister(dir, format string) (production.Persister, error) {
	switch format {
	case "json":
		return production.NewJSONPersister(dir)
	case "yaml":
		return production.NewYAMLPersister(dir)
	default:
		return nil, fmt.Errorf("%w: unknown snapshot format %q", errUsage, format)
	}
}
