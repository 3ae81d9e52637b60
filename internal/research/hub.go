// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Akshath47/deep-research/internal/vfs"
	"github.com/Akshath47/deep-research/pkg/types"
)

// Report summarises one fan-out/fan-in round.
type Report struct {
	Tasks    int
	Failed   int
	Results  []Result
	Duration time.Duration
}

// FailedIndexes returns the indexes of failed tasks in ascending order.
func (r Report) FailedIndexes() []int {
	var out []int
	for _, res := range r.Results {
		if res.Failed {
			out = append(out, res.Index)
		}
	}
	return out
}

// Hub is the Researching state: fan out over the store's sub-queries, wait
// for every task, and merge their output.
type Hub struct {
	Scheduler *Scheduler
	Config    types.ResearchConfig
	Logger    *zap.Logger
}

// Research returns store merged with the output of every task. store itself
// is not modified.
func (h *Hub) Research(ctx context.Context, store *vfs.Store) (*vfs.Store, Report) {
	logger := h.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	results := h.Scheduler.FanOut(ctx, store, h.Config)
	merged := Reduce(store, results, logger)

	rep := Report{Tasks: len(results), Results: results, Duration: time.Since(start)}
	for _, r := range results {
		if r.Failed {
			rep.Failed++
		}
	}
	logger.Info("research complete",
		zap.Int("tasks", rep.Tasks),
		zap.Int("failed", rep.Failed),
		zap.Duration("duration", rep.Duration),
	)
	return merged, rep
}
