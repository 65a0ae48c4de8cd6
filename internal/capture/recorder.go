package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/tphakala/birdnet-exporter/internal/errors"
	"github.com/tphakala/birdnet-exporter/internal/logger"
	"github.com/tphakala/birdnet-exporter/internal/observability/metrics"
	"github.com/tphakala/birdnet-exporter/internal/privacy"
	"github.com/tphakala/birdnet-exporter/internal/segment"
)

// DefaultSegmentLength is the nominal length of a recorded segment
const DefaultSegmentLength = 15 * time.Second

// RecorderConfig wires one Recorder.
type RecorderConfig struct {
	URL           string
	WorkDir       string
	SegmentLength time.Duration
	// Extension of segment files, without the dot
	Extension string

	Capturer Capturer
	Inbox    Publisher
	Metrics  metrics.CaptureRecorder

	// RetryInterval is the minimum time between capture attempts. Zero
	// retries immediately.
	RetryInterval time.Duration

	// Stall is optional. It is called once StallThreshold consecutive
	// captures have failed, and again on recovery.
	Stall          StallNotifier
	StallThreshold int

	// Now defaults to time.Now
	Now func() time.Time
}

// Recorder captures one stream into the inbox until its context ends.
type Recorder struct {
	cfg         RecorderConfig
	fingerprint string
	display     string
	limiter     *rate.Limiter
	log         logger.Logger

	failures int
	stalled  bool
}

// NewRecorder validates cfg and returns a recorder for cfg.URL.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	switch {
	case cfg.URL == "":
		return nil, errors.Newf("stream url is required").Component("capture").Category(errors.CategoryValidation).Build()
	case cfg.WorkDir == "":
		return nil, errors.Newf("work directory is required").Component("capture").Category(errors.CategoryValidation).Build()
	case cfg.Capturer == nil:
		return nil, errors.Newf("capturer is required").Component("capture").Category(errors.CategoryValidation).Build()
	case cfg.Inbox == nil:
		return nil, errors.Newf("inbox is required").Component("capture").Category(errors.CategoryValidation).Build()
	case cfg.Metrics == nil:
		return nil, errors.Newf("metrics recorder is required").Component("capture").Category(errors.CategoryValidation).Build()
	}

	if cfg.SegmentLength <= 0 {
		cfg.SegmentLength = DefaultSegmentLength
	}
	if cfg.Extension == "" {
		cfg.Extension = segment.DefaultExtension
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	limit := rate.Inf
	if cfg.RetryInterval > 0 {
		limit = rate.Every(cfg.RetryInterval)
	}

	fp := segment.Fingerprint(cfg.URL)
	display := privacy.SanitizeStreamURL(cfg.URL)

	return &Recorder{
		cfg:         cfg,
		fingerprint: fp,
		display:     display,
		limiter:     rate.NewLimiter(limit, 1),
		log: GetLogger().With(
			logger.String("stream", display),
			logger.String("fingerprint", fp)),
	}, nil
}

// Fingerprint returns the file name prefix of this stream's segments.
func (r *Recorder) Fingerprint() string {
	return r.fingerprint
}

// Run records segments back to back until ctx is cancelled. Capture
// failures are logged and retried; Run only returns once ctx is done.
func (r *Recorder) Run(ctx context.Context) error {
	r.log.Info("stream recorder started",
		logger.Duration("segment_length", r.cfg.SegmentLength))
	defer r.log.Info("stream recorder stopped")

	for {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		err := r.RunOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		r.track(err)
	}
}

// RunOnce records and publishes a single segment.
func (r *Recorder) RunOnce(ctx context.Context) error {
	ts := r.cfg.Now()
	work := filepath.Join(r.cfg.WorkDir, segment.WorkFileName(r.fingerprint, ts, r.cfg.Extension))
	name := segment.FileName(r.fingerprint, ts, r.cfg.Extension)

	start := time.Now()
	captureErr := r.cfg.Capturer.Capture(ctx, r.cfg.URL, r.cfg.SegmentLength, work)
	if ctx.Err() != nil {
		r.discard(work)
		return ctx.Err()
	}

	// A capture that failed part way still publishes whatever audio it
	// wrote; only a missing or empty file is a failure.
	if err := checkOutput(work); err != nil {
		if captureErr != nil {
			err = captureErr
		}
		r.discard(work)
		r.cfg.Metrics.RecordCaptureFailure(r.fingerprint)
		return errors.New(privacy.WrapError(err)).
			Component("capture").
			Category(errors.CategoryRTSP).
			Context("stream", r.display).
			Context("fingerprint", r.fingerprint).
			Timing("capture", time.Since(start)).
			Build()
	}
	if captureErr != nil {
		r.log.Warn("capture ended with an error, publishing partial segment",
			logger.Error(captureErr),
			logger.String("segment", name))
	}

	if err := r.cfg.Inbox.Publish(work, name); err != nil {
		r.discard(work)
		r.cfg.Metrics.RecordCaptureFailure(r.fingerprint)
		return errors.New(err).
			Component("capture").
			Category(errors.CategoryFileIO).
			Context("stream", r.display).
			Context("segment", name).
			Build()
	}

	r.cfg.Metrics.AddAudioSeconds(r.cfg.SegmentLength.Seconds())
	r.cfg.Metrics.RecordPublished(r.fingerprint, float64(ts.Unix()))

	r.log.Debug("segment published",
		logger.String("segment", name),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

// track updates the consecutive failure count and drives stall alerts
func (r *Recorder) track(err error) {
	if err == nil {
		if r.stalled && r.cfg.Stall != nil {
			r.cfg.Stall.StreamRecovered(r.display, r.failures)
		}
		if r.failures > 0 {
			r.log.Info("stream capture recovered", logger.Int("failed_attempts", r.failures))
		}
		r.failures = 0
		r.stalled = false
		return
	}

	r.failures++
	if r.stalled {
		r.log.Debug("stream capture failed", logger.Error(err), logger.Int("consecutive_failures", r.failures))
		return
	}
	r.log.Warn("stream capture failed, retrying", logger.Error(err), logger.Int("consecutive_failures", r.failures))

	if r.cfg.StallThreshold > 0 && r.failures >= r.cfg.StallThreshold {
		r.stalled = true
		r.log.Error("stream stalled", logger.Int("consecutive_failures", r.failures))
		if r.cfg.Stall != nil {
			r.cfg.Stall.StreamStalled(r.display, r.failures, err)
		}
	}
}

func (r *Recorder) discard(work string) {
	if err := os.Remove(work); err != nil && !os.IsNotExist(err) {
		r.log.Warn("failed to remove partial segment", logger.Error(err), logger.String("file", filepath.Base(work)))
	}
}

// checkOutput rejects a capture that exited cleanly without audio
func checkOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("capture produced no output file")
		}
		return err
	}
	if info.Size() == 0 {
		return fmt.Errorf("capture produced an empty file")
	}
	return nil
}
