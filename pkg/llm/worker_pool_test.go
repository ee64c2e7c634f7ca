package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProcess_AllTasksComplete(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 3}, zap.NewNop())

	tasks := make([]Task[int], 10)
	for i := 0; i < 10; i++ {
		i := i
		tasks[i] = Task[int]{
			ID:      fmt.Sprintf("task-%d", i),
			Execute: func(ctx context.Context) (int, error) { return i * 2, nil },
		}
	}

	results := Process(context.Background(), pool, tasks)
	require.Len(t, results, 10)

	sum := 0
	for _, r := range results {
		require.NoError(t, r.Err)
		sum += r.Result
	}
	assert.Equal(t, 90, sum)
}

func TestProcess_FailuresAreCaptured(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())

	boom := errors.New("boom")
	tasks := []Task[string]{
		{ID: "ok", Execute: func(ctx context.Context) (string, error) { return "fine", nil }},
		{ID: "bad", Execute: func(ctx context.Context) (string, error) { return "", boom }},
		{ID: "also-ok", Execute: func(ctx context.Context) (string, error) { return "fine too", nil }},
	}

	results := Process(context.Background(), pool, tasks)
	require.Len(t, results, 3)

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			assert.Equal(t, "bad", r.ID)
			assert.ErrorIs(t, r.Err, boom)
		}
	}
	assert.Equal(t, 1, failed)
}

func TestProcess_BoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())

	var active, peak int32
	var mu sync.Mutex
	gate := make(chan struct{})

	tasks := make([]Task[struct{}], 6)
	for i := range tasks {
		tasks[i] = Task[struct{}]{
			ID: fmt.Sprintf("task-%d", i),
			Execute: func(ctx context.Context) (struct{}, error) {
				n := atomic.AddInt32(&active, 1)
				mu.Lock()
				if n > peak {
					peak = n
				}
				mu.Unlock()
				<-gate
				atomic.AddInt32(&active, -1)
				return struct{}{}, nil
			},
		}
	}

	done := make(chan []TaskResult[struct{}])
	go func() { done <- Process(context.Background(), pool, tasks) }()

	close(gate)
	results := <-done

	require.Len(t, results, 6)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int32(2))
}

func TestProcess_EmptyTasks(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{}, zap.NewNop())
	assert.Nil(t, Process[int](context.Background(), pool, nil))
}

func TestProcess_CanceledContext(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 1}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []Task[int]{
		{ID: "blocked", Execute: func(ctx context.Context) (int, error) { return 1, nil }},
	}

	results := Process(ctx, pool, tasks)
	require.Len(t, results, 1)
	// The task either ran or was refused with the context error; either
	// way every task yields exactly one result.
	if results[0].Err != nil {
		assert.ErrorIs(t, results[0].Err, context.Canceled)
	}
}
