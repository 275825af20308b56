package llm

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// WorkerPoolConfig configures the worker pool.
type WorkerPoolConfig struct {
	MaxConcurrent int // Maximum concurrent work items (default: 4)
}

// DefaultWorkerPoolConfig returns sensible defaults.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		MaxConcurrent: 4,
	}
}

// WorkerPool runs LLM-bound work with bounded parallelism.
// A failing item never stops its siblings.
type WorkerPool struct {
	config WorkerPoolConfig
	logger *zap.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(config WorkerPoolConfig, logger *zap.Logger) *WorkerPool {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = DefaultWorkerPoolConfig().MaxConcurrent
	}
	return &WorkerPool{
		config: config,
		logger: logger.Named("worker-pool"),
	}
}

// MaxConcurrent returns the configured parallelism.
func (p *WorkerPool) MaxConcurrent() int {
	return p.config.MaxConcurrent
}

// WorkItem represents a unit of work to be processed.
type WorkItem[T any] struct {
	ID      string                               // For logging/tracking
	Execute func(ctx context.Context) (T, error) // The work to be executed
}

// WorkResult represents the result of a work item.
type WorkResult[T any] struct {
	ID     string
	Result T
	Err    error
}

// Process executes all work items with bounded parallelism and returns one
// result per item, in submission order. A panicking item is reported as an
// error result. Items that have not started when ctx is cancelled get ctx.Err().
func Process[T any](
	ctx context.Context,
	pool *WorkerPool,
	items []WorkItem[T],
	onProgress func(completed, total int),
) []WorkResult[T] {
	if len(items) == 0 {
		return nil
	}

	results := make([]WorkResult[T], len(items))
	sem := make(chan struct{}, pool.config.MaxConcurrent)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)

	for i, item := range items {
		wg.Add(1)
		go func(i int, item WorkItem[T]) {
			defer wg.Done()
			defer func() {
				mu.Lock()
				completed++
				done := completed
				mu.Unlock()
				if onProgress != nil {
					onProgress(done, len(items))
				}
			}()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = WorkResult[T]{ID: item.ID, Err: ctx.Err()}
				return
			}

			results[i] = runItem(ctx, pool.logger, item)
		}(i, item)
	}

	wg.Wait()
	return results
}

func runItem[T any](ctx context.Context, logger *zap.Logger, item WorkItem[T]) (res WorkResult[T]) {
	res.ID = item.ID
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Work item panicked", zap.String("id", item.ID), zap.Any("panic", r))
			res.Err = &panicError{id: item.ID, value: r}
		}
	}()

	res.Result, res.Err = item.Execute(ctx)
	if res.Err != nil {
		logger.Debug("Work item failed", zap.String("id", item.ID), zap.Error(res.Err))
	}
	return res
}

type panicError struct {
	id    string
	value any
}

func (e *panicError) Error() string {
	return "work item " + e.id + " panicked: " + formatPanic(e.value)
}

func formatPanic(v any) string {
	switch x := v.(type) {
	case error:
		return x.Error()
	case string:
		return x
	default:
		return "non-error panic value"
	}
}
