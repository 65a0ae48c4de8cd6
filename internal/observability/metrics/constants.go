// Package metrics defines the Prometheus collectors of the exporter. Each
// collector is a struct that registers itself on a caller supplied registry
// so tests can use a private registry per case.
package metrics

import "time"

const (
	// ShutdownTimeout bounds the graceful shutdown of the metrics endpoint
	ShutdownTimeout = 5 * time.Second

	// StatusSuccess and StatusError label classification outcomes
	StatusSuccess = "success"
	StatusError   = "error"
)

// ConfidenceBuckets are the detection_confidence histogram buckets, 0.1 to 1.0
func ConfidenceBuckets() []float64 {
	return []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
}
