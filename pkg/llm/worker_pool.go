package llm

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// WorkerPoolConfig configures the LLM worker pool.
type WorkerPoolConfig struct {
	MaxConcurrent int // Maximum concurrent LLM calls (default: 8)
}

// WorkerPool bounds concurrent reasoning-service calls with a semaphore.
// It is used for scatter/gather fan-outs where each task's failure must be
// captured in its result, never propagated as a fan-out-level error.
type WorkerPool struct {
	config WorkerPoolConfig
	logger *zap.Logger
}

// NewWorkerPool creates a new LLM worker pool.
func NewWorkerPool(config WorkerPoolConfig, logger *zap.Logger) *WorkerPool {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 8
	}
	return &WorkerPool{
		config: config,
		logger: logger.Named("llm-worker-pool"),
	}
}

// Task is a unit of work to be processed.
type Task[T any] struct {
	ID      string                               // For logging/tracking
	Execute func(ctx context.Context) (T, error) // The work to be executed
}

// TaskResult is the outcome of one task.
type TaskResult[T any] struct {
	ID     string
	Result T
	Err    error
}

// Process executes all tasks with bounded parallelism and returns results
// in completion order. It continues processing all tasks even if some fail;
// a failing task yields a result with Err set, never a cancellation of its
// siblings.
func Process[T any](ctx context.Context, pool *WorkerPool, tasks []Task[T]) []TaskResult[T] {
	if len(tasks) == 0 {
		return nil
	}

	results := make([]TaskResult[T], 0, len(tasks))
	resultsChan := make(chan TaskResult[T], len(tasks))
	sem := make(chan struct{}, pool.config.MaxConcurrent)

	var wg sync.WaitGroup

	for _, task := range tasks {
		wg.Add(1)
		go func(task Task[T]) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				var zero T
				resultsChan <- TaskResult[T]{ID: task.ID, Result: zero, Err: ctx.Err()}
				return
			}

			result, err := task.Execute(ctx)
			resultsChan <- TaskResult[T]{ID: task.ID, Result: result, Err: err}
		}(task)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for result := range resultsChan {
		results = append(results, result)
	}

	return results
}
