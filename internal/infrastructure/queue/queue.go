// Package queue is a durable FIFO job queue on Redis lists with a single
// consumer worker, retries with exponential backoff and capped history.
//
// Keys for a queue named q:
//
//	queue:q:wait       list of job ids, LPUSH on add, consumed from the right
//	queue:q:active     list of job ids being processed
//	queue:q:delayed    zset of job ids scored by due time (unix ms)
//	queue:q:completed  capped list of finished job ids
//	queue:q:failed     capped list of job ids that exhausted their attempts
//	queue:q:job:<id>   JSON encoded domain.Job
//	queue:q:workers    zset of live worker ids scored by last heartbeat (unix ms)
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sirpyerre/news-api/internal/core/domain"
)

const (
	StateWait      = "wait"
	StateActive    = "active"
	StateDelayed   = "delayed"
	StateCompleted = "completed"
	StateFailed    = "failed"

	defaultAttempts      = 3
	defaultBackoff       = time.Second
	defaultKeepCompleted = 100
	defaultKeepFailed    = 500
	completedRetention   = 24 * time.Hour
	failedRetention      = 7 * 24 * time.Hour
	workerTTL            = 15 * time.Second
)

var (
	errJobMissing = errors.New("job body missing")
	errJobCorrupt = errors.New("job body corrupt")
)

// Options are the default job options applied by Add.
type Options struct {
	Attempts      int
	Backoff       time.Duration
	KeepCompleted int64
	KeepFailed    int64
}

func (o Options) withDefaults() Options {
	if o.Attempts <= 0 {
		o.Attempts = defaultAttempts
	}
	if o.Backoff <= 0 {
		o.Backoff = defaultBackoff
	}
	if o.KeepCompleted <= 0 {
		o.KeepCompleted = defaultKeepCompleted
	}
	if o.KeepFailed <= 0 {
		o.KeepFailed = defaultKeepFailed
	}
	return o
}

type Queue struct {
	client *redis.Client
	name   string
	opts   Options
	now    func() time.Time
}

func New(client *redis.Client, name string, opts Options) *Queue {
	return &Queue{client: client, name: name, opts: opts.withDefaults(), now: time.Now}
}

func (q *Queue) Name() string { return q.name }

// Add enqueues a job carrying data and returns its id.
func (q *Queue) Add(ctx context.Context, name string, data []domain.News) (string, error) {
	job := &domain.Job{
		ID:          uuid.NewString(),
		Name:        name,
		Data:        data,
		MaxAttempts: q.opts.Attempts,
		Timestamp:   q.now().UTC(),
	}
	body, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("encode job: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, q.jobKey(job.ID), body, 0)
	pipe.LPush(ctx, q.key(StateWait), job.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("enqueue job: %w", err)
	}
	return job.ID, nil
}

// reserve moves the oldest waiting job to active, blocking up to timeout.
// It returns (nil, nil) when nothing arrived in time.
func (q *Queue) reserve(ctx context.Context, timeout time.Duration) (*domain.Job, error) {
	id, err := q.client.BLMove(ctx, q.key(StateWait), q.key(StateActive), "RIGHT", "LEFT", timeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reserve job: %w", err)
	}

	job, err := q.load(ctx, id)
	switch {
	case errors.Is(err, errJobMissing):
		_ = q.client.LRem(ctx, q.key(StateActive), 1, id).Err()
	case errors.Is(err, errJobCorrupt):
		if discardErr := q.discard(ctx, id); discardErr != nil {
			return nil, errors.Join(err, discardErr)
		}
	}
	return job, err
}

// discard moves an id whose body cannot be decoded straight to failed.
func (q *Queue) discard(ctx context.Context, id string) error {
	pipe := q.client.TxPipeline()
	pipe.LRem(ctx, q.key(StateActive), 1, id)
	pipe.Expire(ctx, q.jobKey(id), failedRetention)
	pipe.LPush(ctx, q.key(StateFailed), id)
	pipe.LTrim(ctx, q.key(StateFailed), 0, q.opts.KeepFailed-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("discard job %s: %w", id, err)
	}
	return nil
}

func (q *Queue) load(ctx context.Context, id string) (*domain.Job, error) {
	body, err := q.client.Get(ctx, q.jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("job %s: %w", id, errJobMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}

	var job domain.Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w: %w", id, errJobCorrupt, err)
	}
	return &job, nil
}

// Job returns the stored job with the given id.
func (q *Queue) Job(ctx context.Context, id string) (*domain.Job, error) {
	return q.load(ctx, id)
}

func (q *Queue) complete(ctx context.Context, job *domain.Job) error {
	return q.finish(ctx, job, StateCompleted, q.opts.KeepCompleted, completedRetention)
}

func (q *Queue) fail(ctx context.Context, job *domain.Job) error {
	return q.finish(ctx, job, StateFailed, q.opts.KeepFailed, failedRetention)
}

func (q *Queue) finish(ctx context.Context, job *domain.Job, state string, keep int64, retention time.Duration) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.LRem(ctx, q.key(StateActive), 1, job.ID)
	pipe.Set(ctx, q.jobKey(job.ID), body, retention)
	pipe.LPush(ctx, q.key(state), job.ID)
	pipe.LTrim(ctx, q.key(state), 0, keep-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("move job to %s: %w", state, err)
	}
	return nil
}

// retry parks job in the delayed set until its backoff elapses.
func (q *Queue) retry(ctx context.Context, job *domain.Job) (time.Duration, error) {
	delay := q.backoff(job.AttemptsMade)
	body, err := json.Marshal(job)
	if err != nil {
		return 0, fmt.Errorf("encode job: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.LRem(ctx, q.key(StateActive), 1, job.ID)
	pipe.Set(ctx, q.jobKey(job.ID), body, 0)
	pipe.ZAdd(ctx, q.key(StateDelayed), redis.Z{
		Score:  float64(q.now().Add(delay).UnixMilli()),
		Member: job.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("schedule retry: %w", err)
	}
	return delay, nil
}

// backoff doubles the base delay for every attempt already made.
func (q *Queue) backoff(attemptsMade int) time.Duration {
	if attemptsMade < 1 {
		attemptsMade = 1
	}
	return q.opts.Backoff << (attemptsMade - 1)
}

// PromoteDelayed moves delayed jobs whose due time has passed back to wait.
func (q *Queue) PromoteDelayed(ctx context.Context) (int, error) {
	due, err := q.client.ZRangeByScore(ctx, q.key(StateDelayed), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(q.now().UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("scan delayed: %w", err)
	}

	promoted := 0
	for _, id := range due {
		// Only the caller that wins the ZREM pushes the id.
		removed, err := q.client.ZRem(ctx, q.key(StateDelayed), id).Result()
		if err != nil {
			return promoted, fmt.Errorf("promote %s: %w", id, err)
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, q.key(StateWait), id).Err(); err != nil {
			return promoted, fmt.Errorf("promote %s: %w", id, err)
		}
		promoted++
	}
	return promoted, nil
}

// heartbeat records worker id as alive and prunes workers that stopped
// reporting.
func (q *Queue) heartbeat(ctx context.Context, id string) error {
	now := q.now()
	pipe := q.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, q.key("workers"), "-inf", strconv.FormatInt(now.Add(-workerTTL).UnixMilli(), 10))
	pipe.ZAdd(ctx, q.key("workers"), redis.Z{Score: float64(now.UnixMilli()), Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("worker heartbeat: %w", err)
	}
	return nil
}

func (q *Queue) leave(ctx context.Context, id string) error {
	return q.client.ZRem(ctx, q.key("workers"), id).Err()
}

// otherWorkers counts workers other than id whose heartbeat is still fresh.
func (q *Queue) otherWorkers(ctx context.Context, id string) (int, error) {
	live, err := q.client.ZRangeByScore(ctx, q.key("workers"), &redis.ZRangeBy{
		Min: strconv.FormatInt(q.now().Add(-workerTTL).UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("list workers: %w", err)
	}

	n := 0
	for _, w := range live {
		if w != id {
			n++
		}
	}
	return n, nil
}

// RecoverActive moves jobs left in active by a stopped worker back to the
// consuming end of wait. Workers call it on start only when no other worker
// is alive, since active is shared by every consumer of the queue.
func (q *Queue) RecoverActive(ctx context.Context) (int, error) {
	recovered := 0
	for {
		err := q.client.LMove(ctx, q.key(StateActive), q.key(StateWait), "LEFT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return recovered, nil
		}
		if err != nil {
			return recovered, fmt.Errorf("recover active: %w", err)
		}
		recovered++
	}
}

// Counts returns the number of jobs in every state.
func (q *Queue) Counts(ctx context.Context) (map[string]int64, error) {
	pipe := q.client.Pipeline()
	wait := pipe.LLen(ctx, q.key(StateWait))
	active := pipe.LLen(ctx, q.key(StateActive))
	delayed := pipe.ZCard(ctx, q.key(StateDelayed))
	completed := pipe.LLen(ctx, q.key(StateCompleted))
	failed := pipe.LLen(ctx, q.key(StateFailed))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("queue counts: %w", err)
	}

	return map[string]int64{
		StateWait:      wait.Val(),
		StateActive:    active.Val(),
		StateDelayed:   delayed.Val(),
		StateCompleted: completed.Val(),
		StateFailed:    failed.Val(),
	}, nil
}

func (q *Queue) key(part string) string {
	return "queue:" + q.name + ":" + part
}

func (q *Queue) jobKey(id string) string {
	return q.key("job:" + id)
}
