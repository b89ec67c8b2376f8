package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

/*
Labels and so on for metrics used in converge.
*/

const (
	LabelSuccess = "success"

	// Labels for reconciliation metrics
	LabelAction = "action"
	LabelKind   = "kind"

	// Labels for external command metrics
	LabelVerb = "verb"
)

// SuccessLabelValue renders an outcome the way every metric labels it.
func SuccessLabelValue(err error) string {
	return fmt.Sprint(err == nil)
}

// WriteTextfile dumps everything registered with the default
// registry to path, in the text exposition format read by the
// node exporter's textfile collector. Runs of converge are short
// lived, so there is nothing to scrape.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
