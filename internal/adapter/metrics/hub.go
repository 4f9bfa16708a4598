package metrics

import "github.com/prometheus/client_golang/prometheus"

// Delivery failure reasons.
const (
	ReasonSlowClient = "slow_client"
	ReasonWriteError = "write_error"
	ReasonEncode     = "encode_error"
)

// HubMetrics holds Prometheus metrics for the display broadcast hub.
type HubMetrics struct {
	ConnectedClients    prometheus.Gauge
	MessagesQueued      *prometheus.CounterVec
	DeliveryFailures    *prometheus.CounterVec
	RejectedConnections prometheus.Counter
}

// NewHubMetrics creates and registers hub metrics on the given registry.
func NewHubMetrics(reg prometheus.Registerer) *HubMetrics {
	m := &HubMetrics{
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "connected_clients",
			Help:      "Number of connected display clients.",
		}),
		MessagesQueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "messages_queued_total",
			Help:      "Messages queued to display clients by event.",
		}, []string{"event"}),
		DeliveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "delivery_failures_total",
			Help:      "Failed deliveries to display clients by reason.",
		}, []string{"reason"}),
		RejectedConnections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "rejected_connections_total",
			Help:      "Display connections rejected because the hub was full.",
		}),
	}

	reg.MustRegister(m.ConnectedClients, m.MessagesQueued, m.DeliveryFailures, m.RejectedConnections)
	return m
}
