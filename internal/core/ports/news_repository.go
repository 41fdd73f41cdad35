package ports

import (
	"context"

	"github.com/sirpyerre/news-api/internal/core/domain"
)

// NewsRepository persists news articles. Read methods populate News.Author.
type NewsRepository interface {
	List(ctx context.Context, offset, limit int) ([]domain.News, error)
	Count(ctx context.Context) (int64, error)
	// FindByID returns domain.ErrNewsNotFound when the article does not exist.
	FindByID(ctx context.Context, id int64) (*domain.News, error)
	Create(ctx context.Context, news *domain.News) (*domain.News, error)
	Update(ctx context.Context, news *domain.News) error
	Delete(ctx context.Context, id int64) error
}
