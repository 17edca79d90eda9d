package identity

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mAuthRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_auth_requests_total",
		Help: "Auth operations by outcome.",
	}, []string{"op", "result"})

	mRateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_rate_limited_total",
		Help: "Requests rejected by the fixed-window limiter.",
	}, []string{"route"})

	mGateRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_gate_rejections_total",
		Help: "Requests rejected by the session verification gate.",
	}, []string{"reason"})
)

func countOutcome(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	mAuthRequests.WithLabelValues(op, result).Inc()
}
