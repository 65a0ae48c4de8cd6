package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdnet-exporter/internal/errors"
	"github.com/tphakala/birdnet-exporter/internal/processor"
)

type published struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	mu        sync.Mutex
	messages  []published
	err       error
	connected bool
}

func (f *fakeClient) Connect(context.Context) error {
	f.connected = true
	return nil
}

func (f *fakeClient) Publish(_ context.Context, topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, published{topic: topic, payload: payload})
	return f.err
}

func (f *fakeClient) IsConnected() bool { return f.connected }
func (f *fakeClient) Disconnect()       { f.connected = false }

func blackbird() processor.Event {
	return processor.Event{
		Segment:        "a1b2c3d4_2024-05-01-061500.mp3",
		Stream:         "a1b2c3d4",
		CapturedAt:     time.Date(2024, time.May, 1, 6, 15, 0, 0, time.UTC),
		AnalyzedAt:     time.Date(2024, time.May, 1, 6, 15, 20, 0, time.UTC),
		ScientificName: "Turdus merula",
		CommonName:     "Common Blackbird",
		Confidence:     0.82,
	}
}

func TestPublishDetectionPayload(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	p := NewPublisher(fc, PublisherConfig{Topic: "birdnet/detections", Latitude: 51.7749, Longitude: 7.2229})

	require.NoError(t, p.PublishDetection(context.Background(), blackbird()))

	require.Len(t, fc.messages, 1)
	assert.Equal(t, "birdnet/detections", fc.messages[0].topic)

	var got map[string]any
	require.NoError(t, json.Unmarshal(fc.messages[0].payload, &got))
	assert.Equal(t, "2024-05-01", got["Date"])
	assert.Equal(t, "06:15:00", got["Time"])
	assert.Equal(t, "Common Blackbird", got["CommonName"])
	assert.Equal(t, "Turdus merula", got["ScientificName"])
	assert.InDelta(t, 0.82, got["Confidence"], 1e-9)
	assert.InDelta(t, 51.7749, got["Latitude"], 1e-9)
	assert.Equal(t, "a1b2c3d4_2024-05-01-061500.mp3", got["ClipName"])
	assert.Equal(t, "a1b2c3d4", got["sourceId"])
	assert.Equal(t, "2024-05-01T06:15:20Z", got["analyzedAt"])
}

func TestDTOFallsBackToAnalysisTime(t *testing.T) {
	t.Parallel()

	ev := blackbird()
	ev.CapturedAt = time.Time{}
	ev.Stream = ""

	dto := NewDetectionDTO(ev, 0, 0)
	assert.Equal(t, "06:15:20", dto.Time)
	assert.Empty(t, dto.CapturedAt)

	raw, err := json.Marshal(dto)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sourceId")
}

func TestPublishDetectionMinConfidence(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	p := NewPublisher(fc, PublisherConfig{Topic: "t", MinConfidence: 0.9})

	require.NoError(t, p.PublishDetection(context.Background(), blackbird()))
	assert.Empty(t, fc.messages)
}

func TestPublishDetectionReturnsClientError(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{err: errors.NewStd("not connected")}
	p := NewPublisher(fc, PublisherConfig{Topic: "t"})

	require.Error(t, p.PublishDetection(context.Background(), blackbird()))
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	c, err := NewClient(Config{Broker: "tcp://localhost:1883"})
	require.NoError(t, err)
	assert.False(t, c.IsConnected())

	impl := c.(*client)
	assert.Equal(t, "birdnet-exporter", impl.config.ClientID)
	assert.Equal(t, 10*time.Second, impl.config.PublishTimeout)
}

func TestPublishWhileDisconnected(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Broker: "tcp://localhost:1883"})
	require.NoError(t, err)

	err = c.Publish(context.Background(), "t", []byte("{}"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTPublish))
	c.Disconnect()
}

func TestConnectInvalidBroker(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Broker: "tcp://unresolvable.invalid:1883"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = c.Connect(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTConnection))
}
