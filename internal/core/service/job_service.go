package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sirpyerre/news-api/internal/core/domain"
	"github.com/sirpyerre/news-api/internal/core/ports"
	"github.com/sirpyerre/news-api/internal/pkg/metrics"
)

const defaultJobConcurrency = 4

// DedupChecker abstracts the idempotency store (Redis).
type DedupChecker interface {
	IsDuplicate(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// JobService processes news jobs: every item of the payload is announced
// through the Notifier and the job only succeeds once all items have been.
type JobService struct {
	notifier    ports.Notifier
	dedup       DedupChecker
	concurrency int
	log         zerolog.Logger
}

func NewJobService(notifier ports.Notifier, dedup DedupChecker, concurrency int, log zerolog.Logger) *JobService {
	if concurrency <= 0 {
		concurrency = defaultJobConcurrency
	}
	return &JobService{notifier: notifier, dedup: dedup, concurrency: concurrency, log: log}
}

// Process waits for every item and joins their errors.
func (s *JobService) Process(ctx context.Context, job *domain.Job) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(s.concurrency)

	for _, item := range job.Data {
		item := item
		g.Go(func() error {
			if err := s.processItem(ctx, item); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (s *JobService) processItem(ctx context.Context, news domain.News) error {
	key := fmt.Sprintf("news:notified:%d", news.ID)

	// Items already announced by an earlier attempt are skipped on retry.
	isDup, err := s.dedup.IsDuplicate(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Int64("news_id", news.ID).Msg("dedup check failed, processing anyway")
	} else if isDup {
		metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
		s.log.Debug().Int64("news_id", news.ID).Msg("news already notified, skipped")
		return nil
	}

	if err := s.notifier.NewsCreated(ctx, news); err != nil {
		metrics.NotificationsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("notify news %d: %w", news.ID, err)
	}
	metrics.NotificationsTotal.WithLabelValues("sent").Inc()

	if err := s.dedup.Mark(ctx, key); err != nil {
		s.log.Warn().Err(err).Int64("news_id", news.ID).Msg("failed to set dedup key")
	}

	s.log.Info().Int64("news_id", news.ID).Str("title", news.Title).Msg("news processed")
	return nil
}
