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

// FactChecker cross-checks the research summaries and writes
// factcheck_notes.md.
type FactChecker struct {
	Env
}

// Run writes the fact-check notes.
func (f *FactChecker) Run(ctx context.Context, store *vfs.Store) error {
	subs := research.LoadSubqueries(store, f.logger())
	summaries := allSummaries(LoadSummaryIndexes(store, f.logger()))
	failures := describeFailures(store, subs)

	if len(summaries) == 0 {
		store.Put(vfs.FactcheckFile, noEvidenceNotes(failures))
		return nil
	}

	notes, err := f.complete(ctx, ModelFactChecker, prompts.FactCheck, prompts.FactCheckData{
		Brief:     researchBrief(store),
		Summaries: summaries,
		Failures:  failures,
	})
	if err != nil {
		store.Put(vfs.FactcheckFile, uncheckedNotes(summaries, failures))
		return f.degraded("factcheck", err)
	}
	store.Put(vfs.FactcheckFile, notes+"\n")
	return nil
}

func noEvidenceNotes(failures []string) string {
	var b strings.Builder
	b.WriteString(insufficient("Fact-Check Notes", "no research summaries were produced, so nothing could be checked."))
	writeFailures(&b, failures)
	return b.String()
}

// uncheckedNotes lists the claims as unverified when the model could not
// check them.
func uncheckedNotes(summaries []types.Summary, failures []string) string {
	var b strings.Builder
	b.WriteString("# Fact-Check Notes\n\nAutomated cross-checking was unavailable. The claims below are unverified.\n\n## Unverified\n")
	for _, s := range summaries {
		fmt.Fprintf(&b, "- (%s) %s %s\n", s.Subquery, s.Analysis.SummaryText, s.Citation)
	}
	writeFailures(&b, failures)
	return b.String()
}

func writeFailures(b *strings.Builder, failures []string) {
	if len(failures) == 0 {
		return
	}
	b.WriteString("\n## Failed research tasks\n")
	for _, f := range failures {
		fmt.Fprintf(b, "- %s\n", f)
	}
}
