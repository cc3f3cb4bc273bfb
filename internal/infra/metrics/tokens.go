package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		tokensIssuedTotal,
		verificationsTotal,
		checkoutsCompletedTotal,
	)
}

var (
	tokensIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "purchase_tokens_issued_total",
			Help: "Purchase tokens created through the API.",
		},
	)

	verificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_verifications_total",
			Help: "Merchant token verifications by result (valid/invalid).",
		},
		[]string{"result"},
	)

	checkoutsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkouts_completed_total",
			Help: "Checkout completions by processor outcome.",
		},
		[]string{"outcome"},
	)
)

func IncTokenIssued() {
	tokensIssuedTotal.Inc()
}

func IncVerification(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	verificationsTotal.WithLabelValues(result).Inc()
}

func IncCheckoutCompleted(outcome string) {
	checkoutsCompletedTotal.WithLabelValues(norm(outcome)).Inc()
}
