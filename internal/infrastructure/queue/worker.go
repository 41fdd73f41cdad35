package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/news-api/internal/core/domain"
	"github.com/sirpyerre/news-api/internal/core/ports"
	"github.com/sirpyerre/news-api/internal/pkg/metrics"
)

const (
	defaultPollTimeout  = time.Second
	defaultPromoteEvery = "@every 1s"
	defaultSampleEvery  = "@every 15s"
	heartbeatEvery      = "@every 5s"
	reserveErrorBackoff = time.Second
)

// WorkerOptions tune the consumer loop and its scheduled housekeeping.
type WorkerOptions struct {
	PollTimeout time.Duration
	PromoteSpec string
	SampleSpec  string
	// RecoverEvery is how often an idle worker re-checks for jobs stranded
	// by a worker whose heartbeat expired. Defaults to the heartbeat TTL.
	RecoverEvery time.Duration
	OnCompleted  func(job *domain.Job)
	OnFailed     func(job *domain.Job, err error)
}

// Worker consumes one queue with a single goroutine. Start and Stop bound its
// lifetime; Stop waits for the in-flight job to be acknowledged.
//
// Several workers may consume the same queue (an API process with an
// embedded worker next to cmd/worker). Each reports a heartbeat, and jobs
// stranded in active are recovered only by a worker that starts while no
// other worker is alive.
type Worker struct {
	id        string
	queue     *Queue
	processor ports.JobProcessor
	opts      WorkerOptions
	log       zerolog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

func NewWorker(q *Queue, processor ports.JobProcessor, opts WorkerOptions, log zerolog.Logger) *Worker {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = defaultPollTimeout
	}
	if opts.PromoteSpec == "" {
		opts.PromoteSpec = defaultPromoteEvery
	}
	if opts.SampleSpec == "" {
		opts.SampleSpec = defaultSampleEvery
	}
	if opts.RecoverEvery <= 0 {
		opts.RecoverEvery = workerTTL
	}
	return &Worker{
		id:        uuid.NewString(),
		queue:     q,
		processor: processor,
		opts:      opts,
		log:       log.With().Str("queue", q.Name()).Logger(),
	}
}

// Start recovers jobs orphaned in active, schedules delayed-job promotion and
// depth sampling, and launches the consumer loop.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("worker already running")
	}

	if err := w.recoverOrphans(ctx); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)

	c := cron.New()
	if _, err := c.AddFunc(heartbeatEvery, func() { w.beat(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule heartbeat: %w", err)
	}
	if _, err := c.AddFunc(w.opts.PromoteSpec, func() { w.promote(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule promotion: %w", err)
	}
	if _, err := c.AddFunc(w.opts.SampleSpec, func() { w.sample(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule sampling: %w", err)
	}
	c.Start()

	w.cron = c
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true

	go w.run(runCtx)

	w.log.Info().Msg("worker started")
	return nil
}

// Stop halts the consumer loop and the scheduler. It is safe to call twice.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}

	w.cancel()
	<-w.done
	<-w.cron.Stop().Done()
	w.running = false

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.queue.leave(ctx, w.id); err != nil {
		w.log.Warn().Err(err).Msg("failed to deregister worker")
	}

	w.log.Info().Msg("worker stopped")
}

// recoverOrphans registers the worker and moves orphaned active jobs back to wait
// unless another worker is alive and may still own them.
func (w *Worker) recoverOrphans(ctx context.Context) error {
	others, err := w.queue.otherWorkers(ctx, w.id)
	if err != nil {
		return err
	}
	if err := w.queue.heartbeat(ctx, w.id); err != nil {
		return err
	}
	if others > 0 {
		w.log.Info().Int("workers", others).Msg("other workers alive, skipping active recovery")
		return nil
	}

	n, err := w.queue.RecoverActive(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		w.log.Warn().Int("jobs", n).Msg("recovered jobs left active by a previous worker")
	}
	return nil
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	lastSweep := time.Now()
	for ctx.Err() == nil {
		// Sweeping here, between jobs, means none of active is ours.
		if time.Since(lastSweep) >= w.opts.RecoverEvery {
			w.sweep(ctx)
			lastSweep = time.Now()
		}

		job, err := w.queue.reserve(ctx, w.opts.PollTimeout)
		if errors.Is(err, errJobCorrupt) {
			metrics.JobsProcessedTotal.WithLabelValues("failed").Inc()
			w.log.Error().Err(err).Msg("discarded undecodable job")
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("failed to reserve job")
			select {
			case <-ctx.Done():
				return
			case <-time.After(reserveErrorBackoff):
			}
			continue
		}
		if job == nil {
			continue
		}

		// The reserved job is finished and acknowledged even during shutdown.
		w.handle(context.WithoutCancel(ctx), job)
	}
}

func (w *Worker) handle(ctx context.Context, job *domain.Job) {
	start := time.Now()
	job.AttemptsMade++

	err := w.process(ctx, job)
	if err == nil {
		job.FailedReason = ""
		if ackErr := w.queue.complete(ctx, job); ackErr != nil {
			w.log.Error().Err(ackErr).Str("job_id", job.ID).Msg("failed to acknowledge job")
		}
		w.observe(start, "completed")
		w.log.Info().Str("job_id", job.ID).Str("job_name", job.Name).Int("attempt", job.AttemptsMade).Msg("job completed")
		if w.opts.OnCompleted != nil {
			w.opts.OnCompleted(job)
		}
		return
	}

	job.FailedReason = err.Error()
	if !job.Exhausted() {
		delay, retryErr := w.queue.retry(ctx, job)
		if retryErr != nil {
			w.log.Error().Err(retryErr).Str("job_id", job.ID).Msg("failed to schedule retry")
		}
		w.observe(start, "retried")
		w.log.Warn().Err(err).Str("job_id", job.ID).Int("attempt", job.AttemptsMade).Dur("retry_in", delay).Msg("job attempt failed")
		return
	}

	if failErr := w.queue.fail(ctx, job); failErr != nil {
		w.log.Error().Err(failErr).Str("job_id", job.ID).Msg("failed to move job to failed")
	}
	w.observe(start, "failed")
	w.log.Error().Err(err).Str("job_id", job.ID).Str("job_name", job.Name).Int("attempts", job.AttemptsMade).Msg("job failed")
	if w.opts.OnFailed != nil {
		w.opts.OnFailed(job, err)
	}
}

// process runs the processor, turning a panic into an error.
func (w *Worker) process(ctx context.Context, job *domain.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return w.processor.Process(ctx, job)
}

func (w *Worker) observe(start time.Time, result string) {
	metrics.JobsProcessedTotal.WithLabelValues(result).Inc()
	metrics.JobProcessingDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}

func (w *Worker) promote(ctx context.Context) {
	n, err := w.queue.PromoteDelayed(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("failed to promote delayed jobs")
		}
		return
	}
	if n > 0 {
		w.log.Debug().Int("jobs", n).Msg("promoted delayed jobs")
	}
}

// sweep recovers active jobs once every other worker's heartbeat has expired.
func (w *Worker) sweep(ctx context.Context) {
	others, err := w.queue.otherWorkers(ctx, w.id)
	if err != nil || others > 0 {
		return
	}
	n, err := w.queue.RecoverActive(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn().Err(err).Msg("failed to recover stranded jobs")
		}
		return
	}
	if n > 0 {
		w.log.Warn().Int("jobs", n).Msg("recovered jobs stranded by an expired worker")
	}
}

func (w *Worker) beat(ctx context.Context) {
	if err := w.queue.heartbeat(ctx, w.id); err != nil && ctx.Err() == nil {
		w.log.Warn().Err(err).Msg("failed to report heartbeat")
	}
}

func (w *Worker) sample(ctx context.Context) {
	counts, err := w.queue.Counts(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn().Err(err).Msg("failed to sample queue depth")
		}
		return
	}
	for state, n := range counts {
		metrics.QueueDepth.WithLabelValues(state).Set(float64(n))
	}
}
