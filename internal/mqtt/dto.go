package mqtt

import (
	"time"

	"github.com/tphakala/birdnet-exporter/internal/processor"
)

// DetectionDTO is the JSON payload published per detection. Field names
// follow the BirdNET-Go detection topic so existing automations can
// consume it.
type DetectionDTO struct {
	Date           string  `json:"Date"` // "2024-01-15"
	Time           string  `json:"Time"` // "14:30:00"
	CommonName     string  `json:"CommonName"`
	ScientificName string  `json:"ScientificName"`
	Confidence     float64 `json:"Confidence"`
	Latitude       float64 `json:"Latitude"`
	Longitude      float64 `json:"Longitude"`
	ClipName       string  `json:"ClipName"`

	SourceID   string `json:"sourceId,omitempty"` // stream fingerprint
	CapturedAt string `json:"capturedAt,omitempty"`
	AnalyzedAt string `json:"analyzedAt"`
}

// NewDetectionDTO converts a processor event. Date and Time are the
// capture time when known, otherwise the analysis time.
func NewDetectionDTO(ev processor.Event, latitude, longitude float64) DetectionDTO {
	when := ev.AnalyzedAt
	capturedAt := ""
	if !ev.CapturedAt.IsZero() {
		when = ev.CapturedAt
		capturedAt = ev.CapturedAt.Format(time.RFC3339)
	}

	return DetectionDTO{
		Date:           when.Format(time.DateOnly),
		Time:           when.Format(time.TimeOnly),
		CommonName:     ev.CommonName,
		ScientificName: ev.ScientificName,
		Confidence:     ev.Confidence,
		Latitude:       latitude,
		Longitude:      longitude,
		ClipName:       ev.Segment,
		SourceID:       ev.Stream,
		CapturedAt:     capturedAt,
		AnalyzedAt:     ev.AnalyzedAt.Format(time.RFC3339),
	}
}
