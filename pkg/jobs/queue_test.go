package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}

	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		seen[job.ID]++
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 8})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "a", Type: "work"}))
	require.NoError(t, q.Enqueue(Job{ID: "b", Type: "work"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["a"] == 1 && seen["b"] == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQueueRejectsWhenStopped(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})

	err := q.Enqueue(Job{ID: "a"})
	assert.ErrorIs(t, err, ErrQueueClosed)

	q.Start(context.Background())
	q.Stop()

	err = q.Enqueue(Job{ID: "b"})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueueRetriesUntilExhausted(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return errors.New("boom")
	}, QueueConfig{Workers: 1, BufferSize: 4, MaxRetries: 3, RetryDelay: 10 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "a", Type: "work"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts == 3
	}, 2*time.Second, 10*time.Millisecond)

	// No fourth attempt after retries run out.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, attempts)
}

func TestQueueStartIsIdempotent(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{Workers: 1})
	q.Start(context.Background())
	q.Start(context.Background())
	q.Stop()
	q.Stop()
}
