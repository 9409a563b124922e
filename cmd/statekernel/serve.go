package main

import (
	"context"

	"github.com/comalice/statekernel/components"
	"github.com/comalice/statekernel/internal/gallery"
	xlog "github.com/comalice/statekernel/internal/log"
	"github.com/comalice/statekernel/internal/production"
)

func runServe(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "serve")
	listen := fs.String("listen", e.cfg.Listen, "listen address")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	opts := gallery.Options{
		Registry:   components.Registry(),
		VectorsDir: e.cfg.VectorsDir,
		RateLimit:  e.cfg.RateLimit,
		Logger:     e.logger,
	}
	if e.cfg.SessionsDir != "" {
		p, err := production.NewJSONPersister(e.cfg.SessionsDir)
		if err != nil {
			return err
		}
		opts.Persister = p
	}

	srv, err := gallery.New(opts)
	if err != nil {
		return err
	}
	n, err := srv.Restore(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		e.logger.Info().Int("sessions", n).Str(xlog.FieldPath, e.cfg.SessionsDir).Msg("restored sessions")
	}
	return srv.ListenAndServe(ctx, *listen)
}
