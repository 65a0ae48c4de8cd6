package classify

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdnet-exporter/internal/classifier"
	"github.com/tphakala/birdnet-exporter/internal/species"
)

func TestPrintDetections(t *testing.T) {
	t.Parallel()

	names := species.NewNameMap(map[string]string{"Turdus merula": "Common Blackbird"})
	detections := []classifier.Detection{
		{ScientificName: "Turdus merula", CommonName: "Amsel", Confidence: 0.82},
		{ScientificName: "Parus major", CommonName: "Great Tit", Confidence: 0.4},
	}

	var out bytes.Buffer
	require.NoError(t, printDetections(&out, detections, names))

	assert.Contains(t, out.String(), "CONFIDENCE")
	assert.Contains(t, out.String(), "0.82")
	assert.Contains(t, out.String(), "Common Blackbird")
	assert.NotContains(t, out.String(), "Amsel")
	assert.Contains(t, out.String(), "Great Tit")
}

func TestPrintNoDetections(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, printDetections(&out, nil, nil))
	assert.Equal(t, "no detections\n", out.String())
}
