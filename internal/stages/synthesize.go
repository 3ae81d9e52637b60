// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/Akshath47/deep-research/internal/prompts"
	"github.com/Akshath47/deep-research/internal/research"
	"github.com/Akshath47/deep-research/internal/vfs"
	"github.com/Akshath47/deep-research/pkg/types"
)

// Synthesizer writes draft_report.md from the brief, the summaries and the
// fact-check notes.
type Synthesizer struct {
	Env
}

// Run writes the draft. A Sources section listing every summarised URL is
// always appended.
func (s *Synthesizer) Run(ctx context.Context, store *vfs.Store) error {
	subs := research.LoadSubqueries(store, s.logger())
	indexes := LoadSummaryIndexes(store, s.logger())
	summaries := allSummaries(indexes)

	if len(summaries) == 0 {
		var b strings.Builder
		b.WriteString(insufficient("Draft Report", "no research summaries were produced, so no report could be written."))
		writeFailures(&b, describeFailures(store, subs))
		store.Put(vfs.DraftReportFile, b.String())
		return nil
	}

	brief := researchBrief(store)
	draft, err := s.complete(ctx, ModelSynthesizer, prompts.Synthesize, prompts.SynthesizeData{
		Brief:      brief,
		Subqueries: subs,
		Indexes:    indexes,
		FactCheck:  store.Get(vfs.FactcheckFile, ""),
	})
	if err != nil {
		draft = fallbackDraft(brief, indexes)
	}
	store.Put(vfs.DraftReportFile, strings.TrimRight(draft, "\n")+"\n\n"+sourcesSection(summaries))
	if err != nil {
		return s.degraded("synthesize", err)
	}
	return nil
}

// fallbackDraft assembles the summaries into a report without a model.
func fallbackDraft(brief string, indexes []types.SummaryIndex) string {
	var b strings.Builder
	b.WriteString("# Research Report\n\n")
	if brief != "" {
		fmt.Fprintf(&b, "## Brief\n\n%s\n\n", brief)
	}
	for _, idx := range indexes {
		fmt.Fprintf(&b, "## %s\n\n", idx.Subquery)
		if len(idx.Summaries) == 0 {
			b.WriteString("No evidence was gathered for this question.\n\n")
			continue
		}
		for _, s := range idx.Summaries {
			fmt.Fprintf(&b, "- %s %s\n", s.Analysis.SummaryText, s.Citation)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func sourcesSection(summaries []types.Summary) string {
	var b strings.Builder
	b.WriteString("## Sources\n\n")
	for i, a := range sources(summaries) {
		title := a.ExtractedTitle
		if title == "" {
			title = a.ExtractedURL
		}
		fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, title, a.ExtractedURL)
	}
	return b.String()
}
