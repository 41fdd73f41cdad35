// Package notify announces published news to downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/news-api/internal/core/domain"
)

// SubjectNewsCreated is the NATS subject news.created events are published on.
const SubjectNewsCreated = "news.created"

// NewsCreatedEvent is the payload published for each new article.
type NewsCreatedEvent struct {
	EventType string    `json:"event_type"`
	NewsID    int64     `json:"news_id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

type publisher interface {
	Publish(subject string, data []byte) error
}

// NatsNotifier publishes news events on NATS.
type NatsNotifier struct {
	conn publisher
	log  zerolog.Logger
}

// ConnectNats dials url and returns the notifier together with the connection
// so the caller can drain it on shutdown.
func ConnectNats(url string, log zerolog.Logger) (*NatsNotifier, *nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("news-api"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}
	return NewNatsNotifier(nc, log), nc, nil
}

func NewNatsNotifier(conn publisher, log zerolog.Logger) *NatsNotifier {
	return &NatsNotifier{conn: conn, log: log}
}

func (n *NatsNotifier) NewsCreated(_ context.Context, news domain.News) error {
	data, err := json.Marshal(newEvent(news))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := n.conn.Publish(SubjectNewsCreated, data); err != nil {
		return fmt.Errorf("publish %s: %w", SubjectNewsCreated, err)
	}

	n.log.Debug().Int64("news_id", news.ID).Str("subject", SubjectNewsCreated).Msg("event published")
	return nil
}

// LogNotifier only logs the event. It is used when NATS is not configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NewsCreated(_ context.Context, news domain.News) error {
	n.log.Info().
		Str("event_type", SubjectNewsCreated).
		Int64("news_id", news.ID).
		Int64("user_id", news.UserID).
		Str("title", news.Title).
		Msg("news created")
	return nil
}

func newEvent(news domain.News) NewsCreatedEvent {
	return NewsCreatedEvent{
		EventType: SubjectNewsCreated,
		NewsID:    news.ID,
		UserID:    news.UserID,
		Title:     news.Title,
		Image:     news.Image,
		CreatedAt: news.CreatedAt,
	}
}
