package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fallout_bot",
		Name:      "backend_requests_total",
		Help:      "Backend API requests by method and outcome.",
	},
	[]string{"method", "outcome"},
)
