// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"cmp"
	"slices"

	"go.uber.org/zap"

	"github.com/Akshath47/deep-research/internal/vfs"
)

// Reduce merges every result's delta into base in ascending task order and
// returns the merged store. Failed tasks are merged like successful ones.
// base is not modified.
func Reduce(base *vfs.Store, results []Result, logger *zap.Logger) *vfs.Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	ordered := slices.Clone(results)
	slices.SortStableFunc(ordered, func(a, b Result) int { return cmp.Compare(a.Index, b.Index) })

	merged := base.Clone()
	for _, r := range ordered {
		files := 0
		if r.Delta != nil {
			files = r.Delta.Len()
			merged = merged.Merge(r.Delta)
		}
		logger.Debug("merged task delta",
			zap.Int("subquery_index", r.Index),
			zap.Int("files", files),
			zap.Bool("failed", r.Failed),
		)
	}
	return merged
}
