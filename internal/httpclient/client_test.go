package httpclient

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	return New(&Config{Transport: transport, DefaultTimeout: time.Second}), transport
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	c := New(nil)
	assert.Equal(t, DefaultTimeout, c.defaultTimeout)
	assert.Equal(t, defaultUserAgent, c.userAgent)

	c = New(&Config{UserAgent: "custom"})
	assert.Equal(t, "custom", c.userAgent)
	assert.Equal(t, DefaultTimeout, c.defaultTimeout)
}

func TestGetReadsBodyAfterReturn(t *testing.T) {
	t.Parallel()

	c, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, "https://labels.example/en.txt",
		httpmock.NewStringResponder(http.StatusOK, "Turdus merula_Common Blackbird\n"))

	resp, err := c.Get(context.Background(), "https://labels.example/en.txt")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Turdus merula_Common Blackbird\n", string(body))
}

func TestUserAgentInjected(t *testing.T) {
	t.Parallel()

	c, transport := newMockedClient(t)
	var gotUA string
	transport.RegisterResponder(http.MethodGet, "https://example.test/",
		func(req *http.Request) (*http.Response, error) {
			gotUA = req.Header.Get("User-Agent")
			return httpmock.NewStringResponse(http.StatusOK, ""), nil
		})

	resp, err := c.Get(context.Background(), "https://example.test/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, defaultUserAgent, gotUA)
}

func TestAfterResponseHookCalled(t *testing.T) {
	t.Parallel()

	c, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, "https://example.test/",
		httpmock.NewStringResponder(http.StatusTeapot, ""))

	var after bool
	var status int
	c.SetAfterResponseHook(func(_ *http.Request, resp *http.Response, err error) {
		after = true
		if err == nil {
			status = resp.StatusCode
		}
	})

	resp, err := c.Get(context.Background(), "https://example.test/")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.True(t, after)
	assert.Equal(t, http.StatusTeapot, status)
}

func TestDoNilRequest(t *testing.T) {
	t.Parallel()

	c := New(nil)
	_, err := c.Do(context.Background(), nil)
	require.Error(t, err)
}
