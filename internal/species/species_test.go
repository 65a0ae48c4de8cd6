package species

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdnet-exporter/internal/errors"
	"github.com/tphakala/birdnet-exporter/internal/httpclient"
)

const labelURL = "https://labels.example/BirdNET_GLOBAL_6K_V2.4_Labels_en_uk.txt"

func newMockClient() (*httpclient.Client, *httpmock.MockTransport) {
	transport := httpmock.NewMockTransport()
	return httpclient.New(&httpclient.Config{Transport: transport}), transport
}

func TestParse(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"Turdus merula_Common Blackbird",
		"Parus major_Great Tit\r",
		"",
		"no underscore here",
		"Dog_Dog",
		"Genus species_Name_with_underscores",
	}, "\n")

	m, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 4, m.Len())
	assert.Equal(t, "Common Blackbird", m.Lookup("Turdus merula"))
	assert.Equal(t, "Great Tit", m.Lookup("Parus major"))
	assert.Equal(t, "Dog", m.Lookup("Dog"))
	assert.Equal(t, "Name", m.Lookup("Genus species"))
	assert.Empty(t, m.Lookup("Erithacus rubecula"))
	assert.False(t, m.Has("no underscore here"))
}

func TestParseEmptyCommonName(t *testing.T) {
	t.Parallel()

	m, err := Parse(strings.NewReader("Turdus merula_\n"))
	require.NoError(t, err)
	assert.True(t, m.Has("Turdus merula"))
	assert.Empty(t, m.Lookup("Turdus merula"))
}

func TestNilMap(t *testing.T) {
	t.Parallel()

	var m *NameMap
	assert.Empty(t, m.Lookup("Turdus merula"))
	assert.Zero(t, m.Len())
	assert.False(t, m.Has("Turdus merula"))
}

func TestNewNameMapCopies(t *testing.T) {
	t.Parallel()

	src := map[string]string{"Turdus merula": "Common Blackbird"}
	m := NewNameMap(src)
	src["Turdus merula"] = "changed"
	assert.Equal(t, "Common Blackbird", m.Lookup("Turdus merula"))
}

func TestLoad(t *testing.T) {
	t.Parallel()

	client, transport := newMockClient()
	transport.RegisterResponder(http.MethodGet, labelURL,
		httpmock.NewStringResponder(http.StatusOK, "Turdus merula_Common Blackbird\nParus major_Great Tit\n"))

	m, err := Load(context.Background(), client, labelURL)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "Common Blackbird", m.Lookup("Turdus merula"))
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestLoadNotFoundFallsBackToEmpty(t *testing.T) {
	t.Parallel()

	client, transport := newMockClient()
	transport.RegisterResponder(http.MethodGet, labelURL,
		httpmock.NewStringResponder(http.StatusNotFound, "404: Not Found"))

	m, err := Load(context.Background(), client, labelURL)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryLabelLoad))
	require.NotNil(t, m)
	assert.Zero(t, m.Len())
	assert.Empty(t, m.Lookup("Turdus merula"))
}

func TestLoadNetworkErrorFallsBackToEmpty(t *testing.T) {
	t.Parallel()

	client, transport := newMockClient()
	transport.RegisterResponder(http.MethodGet, labelURL,
		httpmock.NewErrorResponder(assert.AnError))

	m, err := Load(context.Background(), client, labelURL)
	require.Error(t, err)
	require.NotNil(t, m)
	assert.Zero(t, m.Len())
}
