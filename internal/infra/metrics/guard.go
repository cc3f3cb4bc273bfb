package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		rateLimitDeniedTotal,
		authFailuresTotal,
	)
}

var (
	rateLimitDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_denied_total",
			Help: "Requests denied by the rate limiter, labeled by bucket.",
		},
		[]string{"bucket"},
	)

	authFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "merchant_auth_failures_total",
			Help: "Failed merchant credential checks.",
		},
	)
)

func IncRateLimitDenied(bucket string) {
	rateLimitDeniedTotal.WithLabelValues(norm(bucket)).Inc()
}

func IncAuthFailure() {
	authFailuresTotal.Inc()
}
