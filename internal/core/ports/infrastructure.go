package ports

import (
	"context"

	"github.com/sirpyerre/news-api/internal/core/domain"
)

// ListingCache drops cached news listings after a write.
type ListingCache interface {
	Invalidate(ctx context.Context) error
}

// JobQueue enqueues background work and returns the job id.
type JobQueue interface {
	Add(ctx context.Context, name string, data []domain.News) (string, error)
}

// ImageStore keeps uploaded images addressed by file name.
type ImageStore interface {
	Put(ctx context.Context, name string, content []byte, contentType string) error
	Remove(ctx context.Context, name string) error
	URL(name string) string
}

// Notifier announces newly created articles to downstream consumers.
type Notifier interface {
	NewsCreated(ctx context.Context, news domain.News) error
}

// JobProcessor runs one dequeued job. A non-nil error makes the queue retry it.
type JobProcessor interface {
	Process(ctx context.Context, job *domain.Job) error
}
