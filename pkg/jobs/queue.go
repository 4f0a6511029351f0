package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrQueueClosed = errors.New("jobs: queue is not accepting work")

// Job is a unit of background work. Payload is opaque to the queue; the
// handler decodes it.
type Job struct {
	ID       string
	Type     string
	Payload  any
	Attempt  int
	Enqueued time.Time
}

// Handler processes a single job. A non-nil error triggers a retry until
// MaxRetries is exhausted.
type Handler func(ctx context.Context, job Job) error

type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

func (c QueueConfig) withDefaults() QueueConfig {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 64
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 1
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Queue is an in-process worker pool with bounded buffering and
// per-job retry.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	jobs    chan Job

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	cfg = cfg.withDefaults()
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Start launches the worker pool. Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	q.ctx, q.cancel = context.WithCancel(ctx)

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.cfg.Logger.Info("queue started",
		zap.String("queue", q.name),
		zap.Int("workers", q.cfg.Workers),
		zap.Int("buffer", q.cfg.BufferSize),
	)
}

// Stop cancels the workers and waits for in-flight jobs to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.started = false
	cancel := q.cancel
	q.mu.Unlock()

	cancel()
	q.wg.Wait()
	q.cfg.Logger.Info("queue stopped", zap.String("queue", q.name))
}

// Enqueue submits a job. It fails when the queue is stopped or the
// buffer is full rather than blocking the caller.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	started := q.started
	ctx := q.ctx
	q.mu.Unlock()
	if !started {
		return ErrQueueClosed
	}

	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now()
	}
	if job.Attempt == 0 {
		job.Attempt = 1
	}

	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ErrQueueClosed
	default:
		return errors.New("jobs: queue buffer full")
	}
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(id, job)
		}
	}
}

func (q *Queue) run(worker int, job Job) {
	start := time.Now()
	err := q.handler(q.ctx, job)
	if err == nil {
		q.cfg.Logger.Debug("job done",
			zap.String("queue", q.name),
			zap.String("job_id", job.ID),
			zap.String("type", job.Type),
			zap.Int("worker", worker),
			zap.Duration("took", time.Since(start)),
		)
		return
	}
	q.handleFailure(job, err)
}

func (q *Queue) handleFailure(job Job, cause error) {
	if job.Attempt >= q.cfg.MaxRetries {
		q.cfg.Logger.Error("job failed, retries exhausted",
			zap.String("queue", q.name),
			zap.String("job_id", job.ID),
			zap.String("type", job.Type),
			zap.Int("attempt", job.Attempt),
			zap.Error(cause),
		)
		return
	}

	retry := job
	retry.Attempt++
	q.cfg.Logger.Warn("job failed, scheduling retry",
		zap.String("queue", q.name),
		zap.String("job_id", job.ID),
		zap.Int("next_attempt", retry.Attempt),
		zap.Error(cause),
	)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		timer := time.NewTimer(q.cfg.RetryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			select {
			case q.jobs <- retry:
			case <-q.ctx.Done():
			}
		}
	}()
}
