// Package classifier defines the classification collaborator and its
// BirdNET-Analyzer server implementation.
package classifier

import (
	"context"
	"time"
)

// Request describes one segment to classify.
type Request struct {
	Path      string
	Latitude  float64
	Longitude float64
	// Time drives the week-of-year species filter
	Time time.Time
	// AllDetections disables the minimum confidence filter so every
	// candidate the model returns is reported.
	AllDetections bool
}

// Detection is one species candidate for a segment.
type Detection struct {
	ScientificName string
	CommonName     string
	Confidence     float64
}

// Classifier classifies an audio file. Implementations must be safe for
// use by a single goroutine at a time; the processor never calls
// concurrently.
type Classifier interface {
	Classify(ctx context.Context, req Request) ([]Detection, error)
}

// Func adapts an ordinary function to Classifier.
type Func func(ctx context.Context, req Request) ([]Detection, error)

// Classify calls f.
func (f Func) Classify(ctx context.Context, req Request) ([]Detection, error) {
	return f(ctx, req)
}

// Week returns the BirdNET week number (1-48) for t: four weeks per month,
// days 29-31 fold into the fourth.
func Week(t time.Time) int {
	week := (t.Day()-1)/7 + 1
	if week > 4 {
		week = 4
	}
	return (int(t.Month())-1)*4 + week
}
