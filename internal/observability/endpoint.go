package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tphakala/birdnet-exporter/internal/logger"
	"github.com/tphakala/birdnet-exporter/internal/observability/metrics"
)

// Endpoint serves /metrics and /healthz over HTTP.
type Endpoint struct {
	echo          *echo.Echo
	listenAddress string
	metrics       *Metrics
	started       time.Time
}

// NewEndpoint creates an endpoint for m listening on listenAddress.
func NewEndpoint(listenAddress string, m *Metrics) *Endpoint {
	e := &Endpoint{
		echo:          echo.New(),
		listenAddress: listenAddress,
		metrics:       m,
		started:       time.Now(),
	}
	e.echo.HideBanner = true
	e.echo.HidePort = true

	e.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
		Registry:      m.Registry(),
	})))
	e.echo.GET("/healthz", e.health)

	return e
}

// Handler returns the HTTP handler, for tests and embedding.
func (e *Endpoint) Handler() http.Handler {
	return e.echo
}

// Run listens until ctx is cancelled, then shuts down gracefully. A listen
// failure is returned immediately.
func (e *Endpoint) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", e.listenAddress)
	if err != nil {
		return err
	}
	return e.Serve(ctx, listener)
}

// Serve is Run on an existing listener.
func (e *Endpoint) Serve(ctx context.Context, listener net.Listener) error {
	e.echo.Listener = listener

	errCh := make(chan error, 1)
	go func() {
		GetLogger().Info("metrics endpoint starting", logger.String("address", listener.Addr().String()))
		errCh <- e.echo.Start("")
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	GetLogger().Info("stopping metrics endpoint")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), metrics.ShutdownTimeout)
	defer cancel()
	if err := e.echo.Shutdown(shutdownCtx); err != nil {
		GetLogger().Error("metrics endpoint shutdown error", logger.Error(err))
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (e *Endpoint) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(e.started).Round(time.Second).String(),
	})
}
