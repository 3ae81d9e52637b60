// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research runs the parallel part of the pipeline. The Scheduler
// turns the sub-queries in a store into one Task each and runs them with
// bounded concurrency; a Runner executes one Task (search, then summarize)
// against a private view of the store; Reduce folds every task's delta back
// into the shared store once all tasks have finished.
package research

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Akshath47/deep-research/internal/vfs"
	"github.com/Akshath47/deep-research/pkg/types"
)

// Task is one unit of parallel work. Index is the sub-query's position in
// subqueries.json and names every path the task writes.
type Task struct {
	Index    int
	SubQuery types.SubQuery
	Strategy types.SearchStrategy

	// View is a private clone of the store taken before fan-out. Writes to
	// it are visible to nobody until the reducer merges its Delta.
	View *vfs.Store
}

// Result is the outcome of one task.
type Result struct {
	Index    int
	SubQuery types.SubQuery

	// Delta holds exactly the files the task wrote, including its error
	// file when Failed is set.
	Delta *vfs.Store

	Failed   bool
	Err      error
	Results  int
	Summary  int
	Duration time.Duration
}

// TaskError is the error recorded for a failed task.
type TaskError struct {
	Index int
	Stage string
	Err   error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d failed in %s stage: %v", e.Index, e.Stage, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// Stage names used in error files, logs and metrics.
const (
	StageSearch    = "search"
	StageSummarize = "summarize"
	StageAdmission = "admission"
)

// BuildTasks snapshots the sub-query list and research plan from store and
// returns one Task per sub-query, each with its own clone of store.
func BuildTasks(store *vfs.Store, cfg types.ResearchConfig, logger *zap.Logger) []Task {
	if logger == nil {
		logger = zap.NewNop()
	}
	subs := LoadSubqueries(store, logger)
	if len(subs) == 0 {
		return nil
	}
	plan := LoadPlan(store, logger)

	tasks := make([]Task, len(subs))
	for i, sq := range subs {
		tasks[i] = Task{
			Index:    i,
			SubQuery: sq,
			Strategy: StrategyFor(plan, sq, cfg),
			View:     store.Clone(),
		}
	}
	return tasks
}
