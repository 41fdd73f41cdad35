package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/news-api/internal/core/domain"
	"github.com/sirpyerre/news-api/internal/core/ports"
	"github.com/sirpyerre/news-api/internal/pkg/metrics"
	"github.com/sirpyerre/news-api/internal/pkg/validate"
)

// DefaultQueueName is the queue news jobs are published to.
const DefaultQueueName = "master-backend-queue"

type NewsService struct {
	repo      ports.NewsRepository
	images    ports.ImageStore
	queue     ports.JobQueue
	cache     ports.ListingCache
	queueName string
	log       zerolog.Logger
}

func NewNewsService(
	repo ports.NewsRepository,
	images ports.ImageStore,
	queue ports.JobQueue,
	cache ports.ListingCache,
	queueName string,
	log zerolog.Logger,
) *NewsService {
	if queueName == "" {
		queueName = DefaultQueueName
	}
	return &NewsService{
		repo:      repo,
		images:    images,
		queue:     queue,
		cache:     cache,
		queueName: queueName,
		log:       log,
	}
}

func (s *NewsService) List(ctx context.Context, page, limit int) (*domain.NewsPage, error) {
	page, limit = domain.NormalizePage(page, limit)

	items, err := s.repo.List(ctx, domain.Offset(page, limit), limit)
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count news: %w", err)
	}

	return &domain.NewsPage{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: domain.TotalPages(total, limit),
	}, nil
}

// Create stores the image, persists the article, enqueues the post-create job
// and drops cached listings. Queue and cache failures are logged only: the
// article is already committed at that point.
func (s *NewsService) Create(ctx context.Context, actorID int64, in ports.NewsInput, img *ports.ImageUpload) (*domain.News, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	name, err := storeImage(ctx, s.images, "image", img)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.News{
		Title:     in.Title,
		Content:   in.Content,
		Image:     name,
		UserID:    actorID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.removeImage(ctx, name)
		return nil, fmt.Errorf("create news: %w", err)
	}
	metrics.NewsCreatedTotal.Inc()

	jobID, err := s.queue.Add(ctx, s.queueName, []domain.News{*created})
	if err != nil {
		s.log.Error().Err(err).Int64("news_id", created.ID).Msg("failed to enqueue news job")
	} else {
		s.log.Info().Int64("news_id", created.ID).Str("job_id", jobID).Msg("news created")
	}

	s.invalidate(ctx)
	return created, nil
}

func (s *NewsService) Get(ctx context.Context, id int64) (*domain.News, error) {
	news, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNewsNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get news: %w", err)
	}
	return news, nil
}

// Update edits an article owned by actorID. A new image replaces the stored
// one and the old file is removed best-effort.
func (s *NewsService) Update(ctx context.Context, actorID, id int64, in ports.NewsInput, img *ports.ImageUpload) error {
	news, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNewsNotFound) {
			return err
		}
		return fmt.Errorf("update news: %w", err)
	}
	if news.UserID != actorID {
		return domain.ErrForbidden
	}

	if err := validate.Struct(in); err != nil {
		return err
	}

	oldImage := news.Image
	if img != nil {
		name, err := storeImage(ctx, s.images, "image", img)
		if err != nil {
			return err
		}
		news.Image = name
	}

	news.Title = in.Title
	news.Content = in.Content
	news.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, news); err != nil {
		if news.Image != oldImage {
			s.removeImage(ctx, news.Image)
		}
		return fmt.Errorf("update news: %w", err)
	}

	if news.Image != oldImage {
		s.removeImage(ctx, oldImage)
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes an article owned by actorID. A missing article is denied the
// same way as a foreign one.
func (s *NewsService) Delete(ctx context.Context, actorID, id int64) error {
	news, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNewsNotFound) {
			return domain.ErrForbidden
		}
		return fmt.Errorf("delete news: %w", err)
	}
	if news.UserID != actorID {
		return domain.ErrForbidden
	}

	s.removeImage(ctx, news.Image)
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete news: %w", err)
	}

	s.invalidate(ctx)
	return nil
}

func (s *NewsService) removeImage(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := s.images.Remove(ctx, name); err != nil {
		s.log.Warn().Err(err).Str("image", name).Msg("failed to remove image")
	}
}

func (s *NewsService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate news cache")
	}
}
