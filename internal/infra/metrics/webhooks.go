package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhookDeliveriesTotal,
		webhookRetriesTotal,
	)
}

var (
	webhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Outbound webhook deliveries by outcome (ok/failed/blocked).",
		},
		[]string{"outcome"},
	)

	webhookRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_retries_total",
			Help: "Batch retry attempts by outcome (ok/failed).",
		},
		[]string{"outcome"},
	)
)

func IncWebhookDelivery(outcome string) {
	webhookDeliveriesTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncWebhookRetry(outcome string) {
	webhookRetriesTotal.WithLabelValues(norm(outcome)).Inc()
}
