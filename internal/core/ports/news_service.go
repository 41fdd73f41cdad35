package ports

import (
	"context"

	"github.com/sirpyerre/news-api/internal/core/domain"
)

type NewsInput struct {
	Title   string `json:"title" form:"title" validate:"required,min=5,max=190"`
	Content string `json:"content" form:"content" validate:"required,min=10,max=30000"`
}

// ImageUpload is a file received from a multipart form. Content holds at most
// the bytes needed to validate and store it.
type ImageUpload struct {
	Filename string
	Size     int64
	Content  []byte
}

// NewsService implements the article flows.
type NewsService interface {
	List(ctx context.Context, page, limit int) (*domain.NewsPage, error)
	Create(ctx context.Context, actorID int64, in NewsInput, img *ImageUpload) (*domain.News, error)
	// Get returns (nil, nil) when the article does not exist.
	Get(ctx context.Context, id int64) (*domain.News, error)
	Update(ctx context.Context, actorID, id int64, in NewsInput, img *ImageUpload) error
	Delete(ctx context.Context, actorID, id int64) error
}
