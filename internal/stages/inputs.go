// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stages

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/Akshath47/deep-research/internal/vfs"
	"github.com/Akshath47/deep-research/pkg/types"
)

// LoadSummaryIndexes returns every summaries/subquery{i}_index.json in the
// store ordered by sub-query index. Malformed indexes are logged and
// skipped.
func LoadSummaryIndexes(store *vfs.Store, logger *zap.Logger) []types.SummaryIndex {
	var out []types.SummaryIndex
	for _, path := range store.Keys(vfs.SummariesDir) {
		if !strings.HasSuffix(path, "_index.json") {
			continue
		}
		var idx types.SummaryIndex
		if err := store.GetJSON(path, &idx); err != nil {
			logger.Warn("skipping malformed summary index", zap.String("path", path), zap.Error(err))
			continue
		}
		out = append(out, idx)
	}
	slices.SortStableFunc(out, func(a, b types.SummaryIndex) int { return cmp.Compare(a.SubqueryIndex, b.SubqueryIndex) })
	return out
}

// allSummaries flattens the summaries of every index.
func allSummaries(indexes []types.SummaryIndex) []types.Summary {
	var out []types.Summary
	for _, idx := range indexes {
		out = append(out, idx.Summaries...)
	}
	return out
}

// failedTasks lists the task indexes with an error file, ascending.
func failedTasks(store *vfs.Store) []int {
	var out []int
	for _, path := range store.Keys(vfs.RawDataDir) {
		if !strings.HasSuffix(path, "_error.txt") {
			continue
		}
		if i, ok := vfs.TaskIndex(path); ok {
			out = append(out, i)
		}
	}
	return out
}

// describeFailures renders "index: query" lines for failed tasks.
func describeFailures(store *vfs.Store, subs []types.SubQuery) []string {
	var out []string
	for _, i := range failedTasks(store) {
		q := "unknown sub-query"
		if i < len(subs) {
			q = subs[i].Query
		}
		out = append(out, fmt.Sprintf("sub-query %d (%s): see %s", i, q, vfs.ErrorPath(i)))
	}
	return out
}

// researchBrief returns the clarified brief, falling back to the original
// query.
func researchBrief(store *vfs.Store) string {
	if b := strings.TrimSpace(store.Get(vfs.ClarifiedQueryFile, "")); b != "" {
		return b
	}
	return strings.TrimSpace(store.Get(vfs.OriginalQueryFile, ""))
}

// sources returns the distinct cited sources across summaries, in order of
// first appearance.
func sources(summaries []types.Summary) []types.SummaryAnalysis {
	seen := make(map[string]bool)
	var out []types.SummaryAnalysis
	for _, s := range summaries {
		u := s.Analysis.ExtractedURL
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, s.Analysis)
	}
	return out
}
