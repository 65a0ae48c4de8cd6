package observability

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsEndpointExposition(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics(false)
	require.NoError(t, err)

	m.AddAudioSeconds(15.0)
	m.ObserveConfidence("Common Blackbird", "Turdus merula", 0.82)

	srv := httptest.NewServer(NewEndpoint(":0", m).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, "audio_analyzed_duration_seconds_total 15")
	assert.Contains(t, text, `detection_confidence_bucket{common_name="Common Blackbird",scientific_name="Turdus merula",le="0.9"} 1`)
	assert.Contains(t, text, `detection_confidence_count{common_name="Common Blackbird",scientific_name="Turdus merula"} 1`)
	assert.NotContains(t, text, "go_goroutines")
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics(false)
	require.NoError(t, err)

	srv := httptest.NewServer(NewEndpoint(":0", m).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"status":"ok"`)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics(true)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewEndpoint("", m).Serve(ctx, listener) }()

	url := "http://" + listener.Addr().String() + "/metrics"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("endpoint did not shut down")
	}
}

func TestRunReportsListenError(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics(false)
	require.NoError(t, err)

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = busy.Close() }()

	err = NewEndpoint(busy.Addr().String(), m).Run(context.Background())
	require.Error(t, err)
}
