package kubeconfig

import (
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	"github.com/fluxcd/converge/pkg/metrics"
)

var (
	writesTotal = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: "converge",
		Subsystem: "kubeconfig",
		Name:      "writes_total",
		Help:      "Number of times a kubeconfig file was written.",
	}, []string{metrics.LabelSuccess})
)
