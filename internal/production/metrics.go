package production

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/comalice/statekernel/internal/core"
)

// Metrics is a core.Observer that records transitions and rejections.
type Metrics struct {
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	actions     *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics registers the engine collectors with reg. Pass
// prometheus.DefaultRegisterer to expose them on the default handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "statekernel_transitions_total",
			Help: "Total number of handled events by machine, event, from_state and to_state",
		}, []string{"machine", "event", "from_state", "to_state"}),
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "statekernel_rejections_total",
			Help: "Total number of events that left the machine unchanged, by reason",
		}, []string{"machine", "event", "reason"}),
		actions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "statekernel_actions_total",
			Help: "Total number of actions executed by machine and action",
		}, []string{"machine", "action"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "statekernel_transition_duration_seconds",
			Help:    "Duration of Send for handled events",
			Buckets: []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 5e-3, 1e-2},
		}, []string{"machine"}),
	}
}

func (m *Metrics) OnTransition(r core.TransitionRecord) {
	m.transitions.WithLabelValues(r.MachineID, r.Event.Name, r.Source, r.Target).Inc()
	for _, a := range r.Actions {
		m.actions.WithLabelValues(r.MachineID, a).Inc()
	}
	m.duration.WithLabelValues(r.MachineID).Observe(r.Duration.Seconds())
}

func (m *Metrics) OnRejected(r core.RejectionRecord) {
	m.rejections.WithLabelValues(r.MachineID, r.Event.Name, string(r.Reason)).Inc()
}
