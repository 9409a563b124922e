// statekernel runs conformance vectors against the built-in primitives,
// regenerates vector files, renders configs and serves the gallery API.
//
// Usage:
//
//	statekernel [-config file] <command> [flags]
//
// Commands:
//
//	conform   run unified vectors (-dir, -component, -workers, -watch)
//	unify     merge YAML and ITF scenarios into <component>.unified.json
//	dot       print a component as Graphviz
//	run       feed JSON events to a component and print each result
//	serve     start the gallery HTTP API
//
// Exit codes:
//   - 0: success
//   - 1: failure (vector mismatch, I/O or config error)
//   - 2: usage error
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/comalice/statekernel/internal/config"
	xlog "github.com/comalice/statekernel/internal/log"
)

// Version is stamped at build time.
var Version = "dev"

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// errUsage marks errors that should exit with exitUsage.
var errUsage = errors.New("usage")

// env carries what every command needs.
type env struct {
	cfg    config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger zerolog.Logger
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = []command{
	{"conform", "run unified vectors against the built-in primitives", runConform},
	{"unify", "merge YAML and ITF scenarios into a unified vector file", runUnify},
	{"dot", "print a component as Graphviz", runDOT},
	{"run", "feed JSON events to a component and print each result", runEvents},
	{"serve", "start the gallery HTTP API", runServe},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("statekernel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to YAML config file (default $STATEKERNEL_CONFIG)")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if *showVersion {
		fmt.Fprintln(stdout, Version)
		return exitOK
	}
	if fs.NArg() == 0 {
		usage(fs)
		return exitUsage
	}

	name := fs.Arg(0)
	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		usage(fs)
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return exitFailure
	}
	e := &env{
		cfg:    cfg,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logger: xlog.New(xlog.Config{Level: cfg.LogLevel, Output: stderr, Pretty: cfg.LogPretty}),
	}

	if err := cmd.run(ctx, e, fs.Args()[1:]); err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			return exitOK
		case errors.Is(err, errUsage):
			fmt.Fprintf(stderr, "%s: %v\n", name, err)
			return exitUsage
		default:
			fmt.Fprintf(stderr, "%s: %v\n", name, err)
			return exitFailure
		}
	}
	return exitOK
}

func usage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintln(w, "Usage: statekernel [-config file] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags:")
	fs.PrintDefaults()
}

// newFlagSet returns a subcommand flag set whose parse errors are usage
// errors.
func newFlagSet(e *env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}
	return nil
}
