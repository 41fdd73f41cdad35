package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirpyerre/news-api/internal/core/domain"
)

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return f.err
}

func sampleNews() domain.News {
	return domain.News{
		ID:        4,
		Title:     "Breaking story",
		Image:     "a.png",
		UserID:    2,
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNatsNotifier_Publishes(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNatsNotifier(pub, zerolog.Nop())

	require.NoError(t, n.NewsCreated(context.Background(), sampleNews()))
	assert.Equal(t, SubjectNewsCreated, pub.subject)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(pub.data, &decoded))
	assert.Equal(t, "news.created", decoded["event_type"])
	assert.Equal(t, float64(4), decoded["news_id"])
	assert.Equal(t, float64(2), decoded["user_id"])
}

func TestNatsNotifier_PublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	n := NewNatsNotifier(pub, zerolog.Nop())

	err := n.NewsCreated(context.Background(), sampleNews())
	require.Error(t, err)
	assert.ErrorIs(t, err, pub.err)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	require.NoError(t, n.NewsCreated(context.Background(), sampleNews()))
	assert.Contains(t, buf.String(), `"news_id":4`)
	assert.Contains(t, buf.String(), `"event_type":"news.created"`)
}
