package metrics

import "github.com/prometheus/client_golang/prometheus"

// Command outcomes.
const (
	StatusOK         = "ok"
	StatusInvalid    = "invalid"
	StatusPersistErr = "persist_error"
)

// CommandMetrics holds Prometheus metrics for operator commands.
type CommandMetrics struct {
	CommandsTotal   *prometheus.CounterVec
	PersistDuration prometheus.Histogram
	MirrorFailures  prometheus.Counter
}

// NewCommandMetrics creates and registers command metrics on the given registry.
func NewCommandMetrics(reg prometheus.Registerer) *CommandMetrics {
	m := &CommandMetrics{
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "total",
			Help:      "Operator commands by command and outcome.",
		}, []string{"command", "status"}),
		PersistDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "persist_duration_seconds",
			Help:      "Time spent mutating and persisting the publication record.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		MirrorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "mirror_failures_total",
			Help:      "Failed attempts to mirror committed state to Redis.",
		}),
	}

	reg.MustRegister(m.CommandsTotal, m.PersistDuration, m.MirrorFailures)
	return m
}
