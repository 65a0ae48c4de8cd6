package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/antonholmquist/jason"
	"github.com/google/uuid"

	"github.com/tphakala/birdnet-exporter/internal/errors"
	"github.com/tphakala/birdnet-exporter/internal/httpclient"
	"github.com/tphakala/birdnet-exporter/internal/logger"
)

const (
	analyzePath   = "/analyze"
	statusSuccess = "success"

	// maxResponseSize bounds the analysis server reply
	maxResponseSize = 1 << 20

	// allResults is the class count of the BirdNET GLOBAL 6K V2.4 model.
	// Asking for that many results returns every candidate.
	allResults = 6522
)

// ServerConfig configures the BirdNET-Analyzer server client.
type ServerConfig struct {
	URL         string
	Sensitivity float64
	Overlap     float64
	SFThreshold float64
	PMode       string
	// NumResults is the number of candidates requested per segment unless
	// the request asks for all detections
	NumResults int
	// MinConfidence is applied only when a request does not ask for all
	// detections.
	MinConfidence float64
	Timeout       time.Duration
}

// ServerClassifier posts segments to a BirdNET-Analyzer server's /analyze
// endpoint.
type ServerClassifier struct {
	client   *httpclient.Client
	endpoint string
	cfg      ServerConfig
}

// analyzeMeta is the "meta" form field understood by the server
type analyzeMeta struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	Week        int     `json:"week"`
	Overlap     float64 `json:"overlap"`
	Sensitivity float64 `json:"sensitivity"`
	SFThreshold float64 `json:"sf_thresh"`
	PMode       string  `json:"pmode"`
	NumResults  int     `json:"num_results"`
}

// NewServerClassifier creates a client for the server at cfg.URL.
func NewServerClassifier(client *httpclient.Client, cfg ServerConfig) (*ServerClassifier, error) {
	if client == nil {
		return nil, errors.Newf("http client is required").
			Component("classifier").
			Category(errors.CategoryValidation).
			Build()
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.Newf("classification server url is required").
			Component("classifier").
			Category(errors.CategoryValidation).
			Build()
	}
	if cfg.NumResults < 1 {
		cfg.NumResults = 10
	}
	if cfg.PMode == "" {
		cfg.PMode = "avg"
	}

	return &ServerClassifier{
		client:   client,
		endpoint: base + analyzePath,
		cfg:      cfg,
	}, nil
}

// Classify uploads the file at req.Path and returns the detections in the
// order the server ranked them.
func (s *ServerClassifier) Classify(ctx context.Context, req Request) ([]Detection, error) {
	reqID := uuid.NewString()
	start := time.Now()

	body, contentType, err := s.buildBody(req)
	if err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryFileIO).
			Context("file", filepath.Base(req.Path)).
			Build()
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create analyze request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("X-Request-ID", reqID)

	resp, err := s.client.Do(ctx, httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, errors.New(err).
				Component("classifier").
				Category(errors.CategoryCancellation).
				Build()
		}
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryNetwork).
			Context("request_id", reqID).
			Timing("analyze", time.Since(start)).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, errors.Newf("analysis server returned %s: %s", resp.Status, strings.TrimSpace(string(snippet))).
			Component("classifier").
			Category(errors.CategoryHTTP).
			Context("request_id", reqID).
			Context("status_code", resp.StatusCode).
			Build()
	}

	detections, err := parseResponse(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryAudioAnalysis).
			Context("request_id", reqID).
			Build()
	}

	if !req.AllDetections && s.cfg.MinConfidence > 0 {
		detections = filterConfidence(detections, s.cfg.MinConfidence)
	}

	GetLogger().Debug("segment classified",
		logger.String("file", filepath.Base(req.Path)),
		logger.String("request_id", reqID),
		logger.Int("detections", len(detections)),
		logger.Duration("elapsed", time.Since(start)))

	return detections, nil
}

func (s *ServerClassifier) buildBody(req Request) (io.Reader, string, error) {
	f, err := os.Open(req.Path)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = f.Close() }()

	when := req.Time
	if when.IsZero() {
		when = time.Now()
	}
	numResults := s.cfg.NumResults
	if req.AllDetections {
		numResults = allResults
	}
	meta, err := json.Marshal(analyzeMeta{
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Week:        Week(when),
		Overlap:     s.cfg.Overlap,
		Sensitivity: s.cfg.Sensitivity,
		SFThreshold: s.cfg.SFThreshold,
		PMode:       s.cfg.PMode,
		NumResults:  numResults,
	})
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("audio", filepath.Base(req.Path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read segment: %w", err)
	}
	if err := w.WriteField("meta", string(meta)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

// parseResponse decodes {"msg":"success","results":[["Sci_Common",0.82],...]}
func parseResponse(r io.Reader) ([]Detection, error) {
	obj, err := jason.NewObjectFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}

	msg, err := obj.GetString("msg")
	if err != nil {
		return nil, fmt.Errorf("analysis response has no msg: %w", err)
	}
	if msg != statusSuccess {
		return nil, fmt.Errorf("analysis failed: %s", msg)
	}

	results, err := obj.GetValueArray("results")
	if err != nil {
		return nil, fmt.Errorf("analysis response has no results: %w", err)
	}

	detections := make([]Detection, 0, len(results))
	for i, v := range results {
		pair, err := v.Array()
		if err != nil || len(pair) < 2 {
			return nil, fmt.Errorf("result %d is not a [label, confidence] pair", i)
		}
		label, err := pair[0].String()
		if err != nil {
			return nil, fmt.Errorf("result %d label: %w", i, err)
		}
		conf, err := pair[1].Float64()
		if err != nil {
			return nil, fmt.Errorf("result %d confidence: %w", i, err)
		}

		sci, common := SplitLabel(label)
		detections = append(detections, Detection{
			ScientificName: sci,
			CommonName:     common,
			Confidence:     conf,
		})
	}

	return detections, nil
}

// SplitLabel splits a "Scientific name_Common name" model label. A label
// without an underscore is all scientific name.
func SplitLabel(label string) (scientific, common string) {
	scientific, common, _ = strings.Cut(label, "_")
	return scientific, common
}

func filterConfidence(in []Detection, minConfidence float64) []Detection {
	out := in[:0]
	for _, d := range in {
		if d.Confidence >= minConfidence {
			out = append(out, d)
		}
	}
	return out
}
