package production

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/comalice/statekernel/internal/core"
	"github.com/comalice/statekernel/internal/primitives"
)

func TestMetricsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	m, err := core.NewMachineAt(dialogConfig(), "open", primitives.Context{"open": true, "preventClose": true},
		core.WithObserver(metrics))
	if err != nil {
		t.Fatal(err)
	}

	m.Send(primitives.NewEvent("ESCAPE", nil))
	m.Send(primitives.NewEvent("HOVER", nil))
	m.Send(primitives.NewEvent("CLOSE", nil))
	m.Send(primitives.NewEvent("OPEN", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.rejections.WithLabelValues("dialog", "ESCAPE", "guard")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.rejections.WithLabelValues("dialog", "HOVER", "unmatched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.transitions.WithLabelValues("dialog", "CLOSE", "open", "closed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.actions.WithLabelValues("dialog", "setOpen")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.duration))
}

func TestMetricsRegisterTwicePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
