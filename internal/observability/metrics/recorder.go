package metrics

// CaptureRecorder is what the recorder loops need from the metrics layer.
// Components depend on these interfaces so tests can pass fakes.
type CaptureRecorder interface {
	AddAudioSeconds(seconds float64)
	RecordPublished(stream string, unixSeconds float64)
	RecordCaptureFailure(stream string)
}

// DetectionRecorder is what the processing loop needs from the metrics layer.
type DetectionRecorder interface {
	ObserveConfidence(commonName, scientificName string, confidence float64)
	RecordClassification(status string, seconds float64)
	SetBacklog(n int)
}

// DiskUsageRecorder receives inbox filesystem usage samples.
type DiskUsageRecorder interface {
	SetDiskUsage(freeBytes uint64, usedPercent float64)
}

var (
	_ CaptureRecorder   = (*CaptureMetrics)(nil)
	_ DiskUsageRecorder = (*InboxMetrics)(nil)
)
