// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/Akshath47/deep-research/internal/search"
	"github.com/Akshath47/deep-research/internal/vfs"
	"github.com/Akshath47/deep-research/pkg/types"
)

// LoadSubqueries reads subqueries.json. A missing, empty or malformed file
// yields no sub-queries; parse problems are logged, not returned.
func LoadSubqueries(store *vfs.Store, logger *zap.Logger) []types.SubQuery {
	if logger == nil {
		logger = zap.NewNop()
	}
	var subs []types.SubQuery
	if err := store.GetJSON(vfs.SubqueriesFile, &subs); err != nil {
		logParseError(logger, err)
		return nil
	}
	out := subs[:0]
	for _, sq := range subs {
		if strings.TrimSpace(sq.Query) == "" {
			logger.Warn("skipping sub-query with empty text", zap.Int("id", sq.ID))
			continue
		}
		out = append(out, sq)
	}
	return out
}

// LoadPlan reads research_plan.json. A missing or malformed file yields an
// empty plan, so every task falls back to its default strategy.
func LoadPlan(store *vfs.Store, logger *zap.Logger) types.ResearchPlan {
	if logger == nil {
		logger = zap.NewNop()
	}
	var plan types.ResearchPlan
	if err := store.GetJSON(vfs.ResearchPlanFile, &plan); err != nil {
		logParseError(logger, err)
		return types.ResearchPlan{}
	}
	return plan
}

func logParseError(logger *zap.Logger, err error) {
	var pe *vfs.ParseError
	if errors.As(err, &pe) {
		logger.Warn("malformed document, using default",
			zap.String("path", pe.Path),
			zap.Int("line", pe.Line),
			zap.Int("column", pe.Column),
			zap.String("problem", pe.Msg),
			zap.String("context", pe.Context),
		)
		return
	}
	logger.Warn("reading document failed, using default", zap.Error(err))
}

// DefaultStrategy is the strategy used for a sub-query the plan does not
// cover: search the sub-query text itself.
func DefaultStrategy(sq types.SubQuery, cfg types.ResearchConfig) types.SearchStrategy {
	s := types.SearchStrategy{
		PrimaryTerms: []string{sq.Query},
		MaxResults:   cfg.MaxResults,
		SearchDepth:  types.DepthBasic,
		TimeRange:    defaultTimeRange(sq),
	}
	return normalizeStrategy(s, sq, cfg)
}

// StrategyFor returns the plan's strategy for sq with invalid or missing
// fields replaced by defaults.
func StrategyFor(plan types.ResearchPlan, sq types.SubQuery, cfg types.ResearchConfig) types.SearchStrategy {
	s, ok := plan.Strategies[sq.Key()]
	if !ok {
		return DefaultStrategy(sq, cfg)
	}
	return normalizeStrategy(s, sq, cfg)
}

func defaultTimeRange(sq types.SubQuery) types.TimeRange {
	if sq.Freshness == types.FreshnessRecent {
		return types.RangeMonth
	}
	return types.RangeNone
}

func normalizeStrategy(s types.SearchStrategy, sq types.SubQuery, cfg types.ResearchConfig) types.SearchStrategy {
	s.PrimaryTerms = cleanTerms(s.PrimaryTerms)
	s.AlternativeTerms = cleanTerms(s.AlternativeTerms)
	if len(s.PrimaryTerms) == 0 {
		s.PrimaryTerms = []string{sq.Query}
	}

	if s.MaxResults <= 0 {
		s.MaxResults = cfg.MaxResults
	}
	s.MaxResults = min(max(s.MaxResults, 1), search.MaxProviderResults)

	if s.SearchDepth != types.DepthAdvanced {
		s.SearchDepth = types.DepthBasic
	}
	if !s.TimeRange.Valid() {
		s.TimeRange = defaultTimeRange(sq)
	}

	preferred := s.PreferredSources[:0:0]
	for _, p := range s.PreferredSources {
		switch p {
		case types.SourceWeb, types.SourceNews, types.SourceAcademic:
			preferred = append(preferred, p)
		}
	}
	s.PreferredSources = preferred

	if s.ExpectedSources <= 0 {
		s.ExpectedSources = s.MaxResults
	}
	return s
}

// cleanTerms trims terms and drops blanks and repeats.
func cleanTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
