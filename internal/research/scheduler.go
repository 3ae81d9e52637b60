// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Akshath47/deep-research/internal/vfs"
	"github.com/Akshath47/deep-research/pkg/types"
)

// Scheduler runs tasks with at most Limit of them in flight. Each Scheduler
// owns its admission gate, so concurrent pipeline runs with separate
// schedulers do not throttle each other.
type Scheduler struct {
	runner  TaskRunner
	gate    *semaphore.Weighted
	limit   int
	metrics *Metrics
	logger  *zap.Logger
}

// NewScheduler returns a Scheduler admitting up to concurrency tasks at a
// time. Values below 1 are raised to 1.
func NewScheduler(runner TaskRunner, concurrency int, metrics *Metrics, logger *zap.Logger) *Scheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		runner:  runner,
		gate:    semaphore.NewWeighted(int64(concurrency)),
		limit:   concurrency,
		metrics: metrics,
		logger:  logger,
	}
}

// Limit returns the concurrency bound.
func (s *Scheduler) Limit() int { return s.limit }

// FanOut reads the sub-queries in store once and runs one task per
// sub-query. An empty or malformed list yields no tasks and no error.
func (s *Scheduler) FanOut(ctx context.Context, store *vfs.Store, cfg types.ResearchConfig) []Result {
	return s.Dispatch(ctx, BuildTasks(store, cfg, s.logger))
}

// Dispatch runs every task and waits for all of them. The returned slice
// has one Result per task at the task's position. A task that cannot be
// admitted because ctx ended is recorded as failed with an error file.
func (s *Scheduler) Dispatch(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))
	if len(tasks) == 0 {
		return results
	}
	s.logger.Info("dispatching research tasks", zap.Int("tasks", len(tasks)), zap.Int("concurrency", s.limit))

	var wg sync.WaitGroup
	for i, t := range tasks {
		if err := s.gate.Acquire(ctx, 1); err != nil {
			results[i] = s.reject(t, err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.gate.Release(1)
			results[i] = s.run(ctx, t)
		}()
	}
	wg.Wait()
	return results
}

// run executes one admitted task, keeping the task boundary intact even if
// the runner itself panics.
func (s *Scheduler) run(ctx context.Context, t Task) (res Result) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.TasksStarted.Inc()
		s.metrics.TasksActive.Inc()
	}
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("research task panicked", zap.Int("subquery_index", t.Index), zap.Any("panic", p))
			err := fmt.Errorf("panic: %v", p)
			if t.View != nil {
				writeErrorFile(t, "runner", err, nil)
			}
			res = Result{Index: t.Index, SubQuery: t.SubQuery, Failed: true, Err: &TaskError{Index: t.Index, Stage: "runner", Err: err}}
			if t.View != nil {
				res.Delta = t.View.Delta()
			}
		}
		if res.Duration == 0 {
			res.Duration = time.Since(start)
		}
		res.Index = t.Index
		if s.metrics != nil {
			s.metrics.TasksActive.Dec()
			s.metrics.TasksCompleted.WithLabelValues(outcomeLabel(res.Failed)).Inc()
			s.metrics.TaskDuration.WithLabelValues("total").Observe(res.Duration.Seconds())
		}
	}()
	return s.runner.Run(ctx, t)
}

func (s *Scheduler) reject(t Task, err error) Result {
	s.logger.Warn("research task not admitted", zap.Int("subquery_index", t.Index), zap.Error(err))
	res := Result{
		Index:    t.Index,
		SubQuery: t.SubQuery,
		Failed:   true,
		Err:      &TaskError{Index: t.Index, Stage: StageAdmission, Err: err},
	}
	if t.View != nil {
		writeErrorFile(t, StageAdmission, err, nil)
		res.Delta = t.View.Delta()
	}
	if s.metrics != nil {
		s.metrics.TasksCompleted.WithLabelValues(outcomeLabel(true)).Inc()
	}
	return res
}
