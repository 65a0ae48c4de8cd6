package telemetry

import (
	"sync"
	"time"

	"github.com/tphakala/birdnet-exporter/internal/errors"
)

// ThrottledReporter forwards at most one error per component and category
// per interval.
type ThrottledReporter struct {
	next     errors.TelemetryReporter
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewThrottledReporter wraps next.
func NewThrottledReporter(next errors.TelemetryReporter, interval time.Duration) *ThrottledReporter {
	return &ThrottledReporter{
		next:     next,
		interval: interval,
		now:      time.Now,
		last:     make(map[string]time.Time),
	}
}

// IsEnabled reports whether the wrapped reporter is enabled.
func (r *ThrottledReporter) IsEnabled() bool {
	return r.next != nil && r.next.IsEnabled()
}

// ReportError forwards ee unless the same kind of error was reported
// recently.
func (r *ThrottledReporter) ReportError(ee *errors.EnhancedError) {
	key := ee.Component + "|" + string(ee.Category)
	now := r.now()

	r.mu.Lock()
	last, seen := r.last[key]
	if seen && now.Sub(last) < r.interval {
		r.mu.Unlock()
		return
	}
	r.last[key] = now
	r.mu.Unlock()

	r.next.ReportError(ee)
}
