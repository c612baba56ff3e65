package generation

import "github.com/prometheus/client_golang/prometheus"

var (
	// webhookDeliveries counts inbound provider callbacks by how they were
	// resolved. Outcomes are a small fixed vocabulary, keeping cardinality
	// bounded.
	webhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_webhook_deliveries_total",
			Help: "Total provider webhook deliveries by outcome.",
		},
		[]string{"outcome"},
	)

	// terminalTransitions counts generations reaching a terminal state.
	terminalTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_terminal_total",
			Help: "Total generations reaching a terminal state.",
		},
		[]string{"status", "api_provider"},
	)
)

func init() {
	prometheus.MustRegister(webhookDeliveries, terminalTransitions)
}
