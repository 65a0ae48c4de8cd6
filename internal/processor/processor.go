// Package processor drains the inbox: every completed segment is
// classified, its detections are recorded as metrics and the file is
// deleted whether or not classification succeeded.
package processor

import (
	"context"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/tphakala/birdnet-exporter/internal/classifier"
	"github.com/tphakala/birdnet-exporter/internal/errors"
	"github.com/tphakala/birdnet-exporter/internal/inbox"
	"github.com/tphakala/birdnet-exporter/internal/logger"
	"github.com/tphakala/birdnet-exporter/internal/observability/metrics"
	"github.com/tphakala/birdnet-exporter/internal/segment"
	"github.com/tphakala/birdnet-exporter/internal/species"
)

const (
	// DefaultPollInterval is the idle rescan interval of Run
	DefaultPollInterval = time.Second

	// unknownNameWarnInterval limits "no common name" warnings per species
	unknownNameWarnInterval = time.Hour
)

// Source is the inbox as seen by the processor.
type Source interface {
	List() ([]inbox.Entry, error)
	Remove(name string) error
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Event is one detection handed to the optional DetectionPublisher.
type Event struct {
	Segment        string
	Stream         string // fingerprint, empty when the name does not parse
	CapturedAt     time.Time
	AnalyzedAt     time.Time
	ScientificName string
	CommonName     string
	Confidence     float64
}

// DetectionPublisher forwards detections to an external system.
type DetectionPublisher interface {
	PublishDetection(ctx context.Context, ev Event) error
}

// Config wires a Processor.
type Config struct {
	Inbox      Source
	Classifier classifier.Classifier
	Names      *species.NameMap
	Metrics    metrics.DetectionRecorder

	// Publisher is optional
	Publisher DetectionPublisher

	Latitude  float64
	Longitude float64

	PollInterval time.Duration

	// Now defaults to time.Now
	Now func() time.Time
}

// Processor is the single consumer of the inbox.
type Processor struct {
	cfg         Config
	warnedNames *cache.Cache
}

// New validates cfg and returns a Processor.
func New(cfg Config) (*Processor, error) {
	switch {
	case cfg.Inbox == nil:
		return nil, errors.Newf("inbox is required").Component("processor").Category(errors.CategoryValidation).Build()
	case cfg.Classifier == nil:
		return nil, errors.Newf("classifier is required").Component("processor").Category(errors.CategoryValidation).Build()
	case cfg.Metrics == nil:
		return nil, errors.Newf("metrics recorder is required").Component("processor").Category(errors.CategoryValidation).Build()
	}

	if cfg.Names == nil {
		cfg.Names = species.NewNameMap(nil)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Processor{
		cfg: cfg,
		// no janitor; expired keys are overwritten by Add
		warnedNames: cache.New(unknownNameWarnInterval, 0),
	}, nil
}

// Run processes the inbox until ctx is cancelled. When a pass finds
// nothing it waits for a new file or the poll interval.
func (p *Processor) Run(ctx context.Context) error {
	log := GetLogger()

	wake, err := p.cfg.Inbox.Watch(ctx)
	if err != nil {
		log.Warn("inbox watch unavailable, polling only",
			logger.Error(err),
			logger.Duration("poll_interval", p.cfg.PollInterval))
		wake = nil
	}

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	log.Info("processing loop started", logger.Duration("poll_interval", p.cfg.PollInterval))
	defer log.Info("processing loop stopped")

	for {
		processed := p.RunOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if processed > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-wake:
			if !ok {
				wake = nil
			}
		case <-ticker.C:
		}
	}
}

// RunOnce makes one pass over a snapshot of the inbox, in name order, and
// returns the number of segments handled.
func (p *Processor) RunOnce(ctx context.Context) int {
	ctx = logger.WithTraceID(ctx, uuid.NewString())
	log := GetLogger().WithContext(ctx)

	entries, err := p.cfg.Inbox.List()
	if err != nil {
		log.Error("failed to list inbox", logger.Error(err))
		return 0
	}
	p.cfg.Metrics.SetBacklog(len(entries))
	if len(entries) == 0 {
		return 0
	}

	log.Debug("processing inbox", logger.Int("segments", len(entries)))

	handled := 0
	for i, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if p.process(ctx, log, entry) {
			handled++
		}
		p.cfg.Metrics.SetBacklog(len(entries) - i - 1)
	}

	return handled
}

// process classifies one segment and deletes it. It reports whether the
// segment is gone from the inbox; a classification interrupted by shutdown
// keeps the file for the next run.
func (p *Processor) process(ctx context.Context, log logger.Logger, entry inbox.Entry) bool {
	log = log.With(logger.String("segment", entry.Name))
	analyzedAt := p.cfg.Now()

	start := time.Now()
	detections, err := p.cfg.Classifier.Classify(ctx, classifier.Request{
		Path:          entry.Path,
		Latitude:      p.cfg.Latitude,
		Longitude:     p.cfg.Longitude,
		Time:          analyzedAt,
		AllDetections: true,
	})
	elapsed := time.Since(start).Seconds()

	switch {
	case err != nil && ctx.Err() != nil:
		log.Debug("classification interrupted by shutdown")
		return false
	case err != nil && errors.Is(err, fs.ErrNotExist):
		log.Debug("segment vanished before classification")
	case err != nil:
		p.cfg.Metrics.RecordClassification(metrics.StatusError, elapsed)
		log.Error("failed to classify segment", logger.Error(err))
	default:
		p.cfg.Metrics.RecordClassification(metrics.StatusSuccess, elapsed)
		p.record(ctx, log, entry, analyzedAt, detections)
	}

	if err := p.cfg.Inbox.Remove(entry.Name); err != nil {
		log.Error("failed to remove segment", logger.Error(err))
		return false
	}
	return true
}

func (p *Processor) record(ctx context.Context, log logger.Logger, entry inbox.Entry, analyzedAt time.Time, detections []classifier.Detection) {
	var info segment.Info
	if parsed, err := segment.Parse(entry.Name, analyzedAt.Location()); err == nil {
		info = parsed
	}

	for _, d := range detections {
		common := p.cfg.Names.Lookup(d.ScientificName)
		if !p.cfg.Names.Has(d.ScientificName) {
			p.warnUnknown(log, d.ScientificName)
		}
		p.cfg.Metrics.ObserveConfidence(common, d.ScientificName, d.Confidence)

		if p.cfg.Publisher == nil {
			continue
		}
		ev := Event{
			Segment:        entry.Name,
			Stream:         info.Fingerprint,
			CapturedAt:     info.CapturedAt,
			AnalyzedAt:     analyzedAt,
			ScientificName: d.ScientificName,
			CommonName:     common,
			Confidence:     d.Confidence,
		}
		if ev.CommonName == "" {
			ev.CommonName = d.CommonName
		}
		if err := p.cfg.Publisher.PublishDetection(ctx, ev); err != nil {
			log.Warn("failed to publish detection",
				logger.Error(err),
				logger.String("scientific_name", d.ScientificName))
		}
	}

	fields := []logger.Field{logger.Int("detections", len(detections))}
	if !info.CapturedAt.IsZero() {
		fields = append(fields, logger.Time("captured_at", info.CapturedAt))
	}
	log.Info("segment classified", fields...)
}

func (p *Processor) warnUnknown(log logger.Logger, scientificName string) {
	if err := p.warnedNames.Add(scientificName, struct{}{}, cache.DefaultExpiration); err != nil {
		return
	}
	log.Warn("no common name for species, label will be empty",
		logger.String("scientific_name", scientificName))
}
