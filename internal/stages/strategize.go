// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stages

import (
	"context"
	"time"

	"github.com/Akshath47/deep-research/internal/llm"
	"github.com/Akshath47/deep-research/internal/prompts"
	"github.com/Akshath47/deep-research/internal/research"
	"github.com/Akshath47/deep-research/internal/vfs"
	"github.com/Akshath47/deep-research/pkg/types"
)

// Strategist writes research_plan.json with one search strategy per
// sub-query.
type Strategist struct {
	Env
}

// Run writes the plan. Every sub-query gets a strategy: the model's when it
// produced a usable one, the default otherwise.
func (s *Strategist) Run(ctx context.Context, store *vfs.Store) error {
	subs := research.LoadSubqueries(store, s.logger())
	if len(subs) == 0 {
		return store.PutJSON(vfs.ResearchPlanFile, types.ResearchPlan{
			Strategies: map[string]types.SearchStrategy{},
			Metadata:   map[string]any{"note": "insufficient input: no sub-queries to plan"},
		})
	}

	var proposed types.ResearchPlan
	err := s.generate(ctx, ModelStrategist, prompts.Strategize,
		prompts.StrategizeData{Subqueries: subs}, llm.ResearchPlanSchema, &proposed)
	source := "model"
	if err != nil {
		proposed = types.ResearchPlan{}
		source = "default"
	}

	plan := types.ResearchPlan{
		Strategies: make(map[string]types.SearchStrategy, len(subs)),
		Metadata: map[string]any{
			"generated_at":   time.Now().UTC().Format(time.RFC3339),
			"subquery_count": len(subs),
			"source":         source,
		},
	}
	planned := 0
	for _, sq := range subs {
		if _, ok := proposed.Strategies[sq.Key()]; ok {
			planned++
		}
		plan.Strategies[sq.Key()] = research.StrategyFor(proposed, sq, s.Research)
	}
	plan.Metadata["model_strategies"] = planned

	if werr := store.PutJSON(vfs.ResearchPlanFile, plan); werr != nil {
		return werr
	}
	if err != nil {
		return s.degraded("strategize", err)
	}
	return nil
}
