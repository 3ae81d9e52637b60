// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Akshath47/deep-research/internal/llm"
	"github.com/Akshath47/deep-research/internal/prompts"
	"github.com/Akshath47/deep-research/internal/research"
	"github.com/Akshath47/deep-research/internal/vfs"
	"github.com/Akshath47/deep-research/pkg/types"
)

// Reviewer writes final_paper.md and gap_list.json. The model revises the
// draft and names gaps; coverage and citation gaps found by inspecting the
// store are always added.
type Reviewer struct {
	Env
}

type reviewResponse struct {
	FinalPaper string      `json:"final_paper"`
	Gaps       []types.Gap `json:"gaps"`
}

// Run writes the final paper and gap list.
func (r *Reviewer) Run(ctx context.Context, store *vfs.Store) error {
	subs := research.LoadSubqueries(store, r.logger())
	indexes := LoadSummaryIndexes(store, r.logger())
	draft := strings.TrimSpace(store.Get(vfs.DraftReportFile, ""))
	detected := DetectGaps(store, subs, indexes, draft, r.Research)

	if draft == "" {
		gaps := append([]types.Gap{{
			Category:    types.GapClarity,
			Severity:    types.SeverityMajor,
			Description: "No draft report was available to review.",
		}}, detected...)
		store.Put(vfs.FinalPaperFile, insufficient("Final Paper", "no draft report was available to review."))
		return writeGaps(store, gaps)
	}

	var resp reviewResponse
	err := r.generate(ctx, ModelReviewer, prompts.Review, prompts.ReviewData{
		Subqueries: subs,
		FactCheck:  store.Get(vfs.FactcheckFile, ""),
		Draft:      draft,
	}, llm.ReviewSchema, &resp)

	var gaps []types.Gap
	final := strings.TrimSpace(resp.FinalPaper)
	if err != nil || final == "" {
		gaps = detected
		final = draft + "\n\n" + knownGapsAppendix(gaps)
	} else {
		gaps = append(normalizeGaps(resp.Gaps), detected...)
	}

	store.Put(vfs.FinalPaperFile, strings.TrimRight(final, "\n")+"\n")
	if werr := writeGaps(store, gaps); werr != nil {
		return werr
	}
	if err != nil {
		return r.degraded("review", err)
	}
	return nil
}

func writeGaps(store *vfs.Store, gaps []types.Gap) error {
	if gaps == nil {
		gaps = []types.Gap{}
	}
	return store.PutJSON(vfs.GapListFile, types.GapList{Gaps: gaps, GeneratedAt: time.Now().UTC()})
}

// DetectGaps inspects the store for weaknesses that do not need a model:
// sub-queries with no summaries, sub-queries with fewer summaries than
// their strategy expected, and draft citations that match no summarised
// source.
func DetectGaps(store *vfs.Store, subs []types.SubQuery, indexes []types.SummaryIndex, draft string, cfg types.ResearchConfig) []types.Gap {
	byIndex := make(map[int]types.SummaryIndex, len(indexes))
	for _, idx := range indexes {
		byIndex[idx.SubqueryIndex] = idx
	}
	plan := research.LoadPlan(store, nil)

	var gaps []types.Gap
	for i, sq := range subs {
		count := byIndex[i].SummariesCount
		switch {
		case count == 0:
			desc := fmt.Sprintf("No evidence was gathered for sub-query %d: %s", sq.ID, sq.Query)
			if store.Has(vfs.ErrorPath(i)) {
				desc += fmt.Sprintf(" (research failed, see %s)", vfs.ErrorPath(i))
			}
			gaps = append(gaps, types.Gap{
				SubqueryID:     sq.ID,
				Category:       types.GapCoverage,
				Severity:       types.SeverityMajor,
				Description:    desc,
				SuggestedQuery: sq.Query,
			})
		case count < expectedSummaries(plan, sq, cfg):
			gaps = append(gaps, types.Gap{
				SubqueryID:  sq.ID,
				Category:    types.GapEvidence,
				Severity:    types.SeverityModerate,
				Description: fmt.Sprintf("Only %d sources were summarised for sub-query %d: %s", count, sq.ID, sq.Query),
			})
		}
	}

	known := make(map[string]bool)
	for _, s := range allSummaries(indexes) {
		if s.Analysis.ExtractedURL != "" {
			known[normalizeURL(s.Analysis.ExtractedURL)] = true
		}
	}
	for _, u := range UnknownCitations(draft, known) {
		gaps = append(gaps, types.Gap{
			Category:    types.GapCitation,
			Severity:    types.SeverityMinor,
			Description: "The report cites a source that was not part of the research: " + u,
		})
	}
	return gaps
}

// expectedSummaries is the smaller of the strategy's expected yield and
// the number of results kept per task; fewer than half of it is a gap.
func expectedSummaries(plan types.ResearchPlan, sq types.SubQuery, cfg types.ResearchConfig) int {
	s := research.StrategyFor(plan, sq, cfg)
	want := min(s.ExpectedSources, s.MaxResults)
	return (want + 1) / 2
}

func normalizeGaps(gaps []types.Gap) []types.Gap {
	out := make([]types.Gap, 0, len(gaps))
	for _, g := range gaps {
		g.Description = strings.TrimSpace(g.Description)
		if g.Description == "" {
			continue
		}
		switch g.Category {
		case types.GapCoverage, types.GapEvidence, types.GapCitation, types.GapClarity:
		default:
			g.Category = types.GapEvidence
		}
		switch g.Severity {
		case types.SeverityMinor, types.SeverityModerate, types.SeverityMajor:
		default:
			g.Severity = types.SeverityModerate
		}
		out = append(out, g)
	}
	return out
}

func knownGapsAppendix(gaps []types.Gap) string {
	var b strings.Builder
	b.WriteString("## Known Gaps\n\n")
	if len(gaps) == 0 {
		b.WriteString("No gaps were detected.\n")
		return b.String()
	}
	for _, g := range gaps {
		fmt.Fprintf(&b, "- [%s/%s] %s\n", g.Severity, g.Category, g.Description)
	}
	return b.String()
}
