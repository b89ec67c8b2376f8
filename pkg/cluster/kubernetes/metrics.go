package kubernetes

import (
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	"github.com/fluxcd/converge/pkg/metrics"
)

var (
	commandDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: "converge",
		Subsystem: "kubectl",
		Name:      "command_duration_seconds",
		Help:      "Duration of kubectl invocations, in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{metrics.LabelVerb, metrics.LabelSuccess})

	apiRequestDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: "converge",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Duration of dynamic client requests, in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{metrics.LabelVerb, metrics.LabelSuccess})
)
