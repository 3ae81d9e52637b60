// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stages

import (
	"context"
	"strings"

	"github.com/Akshath47/deep-research/internal/llm"
	"github.com/Akshath47/deep-research/internal/prompts"
	"github.com/Akshath47/deep-research/internal/vfs"
	"github.com/Akshath47/deep-research/pkg/types"
)

// MinSubqueries is the smallest decomposition the model is asked for.
const MinSubqueries = 3

// Decomposer splits the brief into independently researchable sub-queries
// and writes subqueries.json.
type Decomposer struct {
	Env
}

// Run writes subqueries.json. Without a brief it writes an empty list and a
// note explaining why.
func (d *Decomposer) Run(ctx context.Context, store *vfs.Store) error {
	brief := researchBrief(store)
	if brief == "" {
		store.Put(vfs.DecompositionNotesFile, insufficient("Decomposition", "no research brief to decompose."))
		return store.PutJSON(vfs.SubqueriesFile, []types.SubQuery{})
	}

	limit := d.Stages.MaxSubqueries
	if limit <= 0 {
		limit = types.DefaultMaxSubqueries
	}

	var resp struct {
		Subqueries []types.SubQuery `json:"subqueries"`
	}
	err := d.generate(ctx, ModelDecomposer, prompts.Decompose,
		prompts.DecomposeData{Brief: brief, Min: min(MinSubqueries, limit), Max: limit}, llm.SubqueriesSchema, &resp)
	subs := NormalizeSubqueries(resp.Subqueries, limit)
	if err == nil && len(subs) == 0 {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		subs = []types.SubQuery{fallbackSubquery(store, brief)}
		if werr := store.PutJSON(vfs.SubqueriesFile, subs); werr != nil {
			return werr
		}
		return d.degraded("decompose", err)
	}
	return store.PutJSON(vfs.SubqueriesFile, subs)
}

// NormalizeSubqueries drops blank entries, caps the list at limit, fills
// enum defaults, and renumbers ids 1..n when any id is missing or repeated.
func NormalizeSubqueries(subs []types.SubQuery, limit int) []types.SubQuery {
	out := make([]types.SubQuery, 0, len(subs))
	for _, sq := range subs {
		sq.Query = strings.TrimSpace(sq.Query)
		if sq.Query == "" {
			continue
		}
		if !sq.Priority.Valid() {
			sq.Priority = types.PriorityMedium
		}
		if !sq.Freshness.Valid() {
			sq.Freshness = types.FreshnessAny
		}
		out = append(out, sq)
		if limit > 0 && len(out) == limit {
			break
		}
	}

	seen := make(map[int]bool, len(out))
	renumber := false
	for _, sq := range out {
		if sq.ID <= 0 || seen[sq.ID] {
			renumber = true
			break
		}
		seen[sq.ID] = true
	}
	if renumber {
		for i := range out {
			out[i].ID = i + 1
		}
	}
	return out
}

func fallbackSubquery(store *vfs.Store, brief string) types.SubQuery {
	q := strings.TrimSpace(store.Get(vfs.OriginalQueryFile, ""))
	if q == "" {
		q = brief
	}
	return types.SubQuery{
		ID:          1,
		Query:       q,
		Priority:    types.PriorityHigh,
		Freshness:   types.FreshnessAny,
		Description: "Whole question researched as one sub-query because decomposition was unavailable.",
	}
}
