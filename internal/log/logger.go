// Package log configures the process-wide zerolog logger and hands out
// component-scoped children.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for configuring the global logger.
type Config struct {
	Level   string    // optional log level ("debug", "info", etc.)
	Output  io.Writer // optional writer (defaults to os.Stderr)
	Service string    // optional service name attached to every log entry
	Pretty  bool      // human-readable console output
}

var (
	once sync.Once
	base zerolog.Logger
)

// New builds a logger from cfg without touching global state.
func New(cfg Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}

	writer := cfg.Output
	if writer == nil {
		writer = os.Stderr
	}
	if cfg.Pretty {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.Kitchen}
	}

	service := cfg.Service
	if service == "" {
		service = "statekernel"
	}

	return zerolog.New(writer).Level(level).With().
		Timestamp().
		Str("service", service).
		Logger()
}

// Configure initialises the global logger exactly once. Later calls are no-ops.
func Configure(cfg Config) {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339
		if cfg.Level == "" {
			cfg.Level = os.Getenv("LOG_LEVEL")
		}
		base = New(cfg)
	})
}

func logger() zerolog.Logger {
	Configure(Config{})
	return base
}

// Base returns the configured base logger instance.
func Base() zerolog.Logger {
	return logger()
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return logger().With().Str(FieldComponent, component).Logger()
}

// Derive attaches arbitrary fields to a child logger using the provided builder function.
func Derive(build func(*zerolog.Context)) zerolog.Logger {
	ctx := logger().With()
	if build != nil {
		build(&ctx)
	}
	return ctx.Logger()
}
