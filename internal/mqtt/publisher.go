package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tphakala/birdnet-exporter/internal/processor"
)

// Publisher forwards processor detections to a topic.
type Publisher struct {
	client        Client
	topic         string
	minConfidence float64
	latitude      float64
	longitude     float64
}

// PublisherConfig configures a Publisher
type PublisherConfig struct {
	Topic string
	// MinConfidence drops detections below it; the metrics still see every
	// detection.
	MinConfidence float64
	Latitude      float64
	Longitude     float64
}

// NewPublisher returns a publisher sending through client.
func NewPublisher(client Client, cfg PublisherConfig) *Publisher {
	return &Publisher{
		client:        client,
		topic:         cfg.Topic,
		minConfidence: cfg.MinConfidence,
		latitude:      cfg.Latitude,
		longitude:     cfg.Longitude,
	}
}

// PublishDetection implements processor.DetectionPublisher.
func (p *Publisher) PublishDetection(ctx context.Context, ev processor.Event) error {
	if ev.Confidence < p.minConfidence {
		return nil
	}

	payload, err := json.Marshal(NewDetectionDTO(ev, p.latitude, p.longitude))
	if err != nil {
		return fmt.Errorf("encode detection: %w", err)
	}
	return p.client.Publish(ctx, p.topic, payload)
}

var _ processor.DetectionPublisher = (*Publisher)(nil)
