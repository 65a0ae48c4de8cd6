package notification

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/tphakala/birdnet-exporter/internal/errors"
	"github.com/tphakala/birdnet-exporter/internal/logger"
	"github.com/tphakala/birdnet-exporter/internal/privacy"
)

const (
	defaultQueueSize = 32
	defaultTimeout   = 10 * time.Second

	// alerts are rare; the limiter only guards against a flapping stream
	sendInterval = 10 * time.Second
	sendBurst    = 5
)

// Service queues notifications and delivers them from a single goroutine so
// recorders never wait on a slow notification service.
type Service struct {
	sender  Sender
	queue   chan *Notification
	limiter *rate.Limiter
	now     func() time.Time

	dropped atomic.Int64
}

// NewService creates a service sending through sender.
func NewService(sender Sender) *Service {
	return &Service{
		sender:  sender,
		queue:   make(chan *Notification, defaultQueueSize),
		limiter: rate.NewLimiter(rate.Every(sendInterval), sendBurst),
		now:     time.Now,
	}
}

// NewFromURLs creates a service for shoutrrr service URLs.
func NewFromURLs(urls []string) (*Service, error) {
	sender, err := NewShoutrrrSender(urls, defaultTimeout)
	if err != nil {
		return nil, err
	}
	return NewService(sender), nil
}

// Run delivers queued notifications until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	log := GetLogger()
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-s.queue:
			if err := s.limiter.Wait(ctx); err != nil {
				return nil
			}
			if err := send(s.sender, n); err != nil {
				enhanced := errors.New(err).
					Component("notification").
					Category(errors.CategoryIntegration).
					Context("type", string(n.Type)).
					Build()
				log.Warn("failed to send notification",
					logger.Error(enhanced),
					logger.String("title", n.Title))
				continue
			}
			log.Debug("notification sent", logger.String("title", n.Title))
		}
	}
}

// Enqueue adds n to the queue, dropping it when the queue is full.
func (s *Service) Enqueue(n *Notification) bool {
	if n.Timestamp.IsZero() {
		n.Timestamp = s.now()
	}
	select {
	case s.queue <- n:
		return true
	default:
		dropped := s.dropped.Add(1)
		GetLogger().Warn("notification queue full, dropping notification",
			logger.String("title", n.Title),
			logger.Int64("dropped_total", dropped))
		return false
	}
}

// Dropped returns the number of notifications lost to a full queue.
func (s *Service) Dropped() int64 {
	return s.dropped.Load()
}

// StreamStalled alerts that stream has failed failures captures in a row.
func (s *Service) StreamStalled(stream string, failures int, lastErr error) {
	msg := fmt.Sprintf("No audio captured from %s after %d consecutive attempts.", stream, failures)
	if lastErr != nil {
		msg += "\nLast error: " + privacy.ScrubMessage(lastErr.Error())
	}
	s.Enqueue(&Notification{
		Type:    TypeWarning,
		Title:   "BirdNET exporter: stream stalled",
		Message: msg,
		Stream:  stream,
	})
}

// StreamRecovered reports that a stalled stream produced a segment again.
func (s *Service) StreamRecovered(stream string, failures int) {
	s.Enqueue(&Notification{
		Type:    TypeInfo,
		Title:   "BirdNET exporter: stream recovered",
		Message: fmt.Sprintf("Audio capture from %s resumed after %d failed attempts.", stream, failures),
		Stream:  stream,
	})
}
