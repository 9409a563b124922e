// Demo drives a tooltip through a scripted hover cycle on a timer, printing
// the published transitions and a DOT rendering after each step, and saves
// the final snapshot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/comalice/statekernel/components"
	"github.com/comalice/statekernel/internal/core"
	xlog "github.com/comalice/statekernel/internal/log"
	"github.com/comalice/statekernel/internal/primitives"
	"github.com/comalice/statekernel/internal/production"
)

var script = []string{
	"POINTER_ENTER", "DELAY_ELAPSED", "POINTER_LEAVE", "POINTER_ENTER",
	"POINTER_LEAVE", "DELAY_ELAPSED", "FOCUS", "ESCAPE",
}

func main() {
	xlog.Configure(xlog.Config{Service: "demo", Pretty: true})
	logger := xlog.WithComponent("demo")

	cfg, _ := components.Config(components.NameTooltip)

	dir := filepath.Join(os.TempDir(), "statekernel-demo")
	persister, err := production.NewJSONPersister(dir)
	if err != nil {
		logger.Fatal().Err(err).Msg("open snapshot store")
	}

	publisher := production.NewChannelPublisher(16)
	defer publisher.Close()

	visualizer := &production.DefaultVisualizer{}

	m, err := core.NewMachine(cfg,
		core.WithLogger(logger),
		core.WithObserver(publisher),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("build machine")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for step := 0; step < len(script); {
		select {
		case <-ticker.C:
			res := m.Send(primitives.NewEvent(script[step], nil))
			step++
			fmt.Printf("\n--- Step %d: %s ---\n", step, script[step-1])
			fmt.Printf("handled=%v state=%s context=%v\n", res.Handled, m.State(), m.Context())
			fmt.Println(visualizer.ExportDOT(cfg, m.State()))
			select {
			case rec := <-publisher.Records():
				fmt.Printf("Published: %s -> %s (%s)\n", rec.Source, rec.Target, rec.Event.Name)
			default:
			}
		case <-ctx.Done():
			fmt.Println("\nShutting down gracefully...")
			return
		}
	}

	if err := persister.Save(ctx, "tooltip", m.Snapshot()); err != nil {
		logger.Fatal().Err(err).Msg("save snapshot")
	}
	fmt.Printf("Demo complete; snapshot saved under %s\n", dir)
}
