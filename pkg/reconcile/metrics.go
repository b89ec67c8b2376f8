package reconcile

import (
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	"github.com/fluxcd/converge/pkg/metrics"
)

var (
	passDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: "converge",
		Subsystem: "reconcile",
		Name:      "pass_duration_seconds",
		Help:      "Duration of reconciliation passes, in seconds.",
		Buckets:   stdprometheus.DefBuckets,
	}, []string{metrics.LabelAction, metrics.LabelSuccess})
)
