// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Akshath47/deep-research/internal/search"
	"github.com/Akshath47/deep-research/pkg/types"
)

var (
	// ErrNoSearchResults means no provider call of a task succeeded.
	ErrNoSearchResults = errors.New("no search call succeeded")

	// ErrSearchBudget means a task used up its provider call budget.
	ErrSearchBudget = errors.New("search call budget exhausted")
)

// SearchOutcome is what the search stage of one task produced.
type SearchOutcome struct {
	// Results survived dedup, score filtering, reranking and truncation.
	Results []types.SearchResult

	// Terms lists every term sent to the provider, in order.
	Terms []string

	// Calls counts provider invocations, retries included.
	Calls int

	// Errors holds one message per term whose retries were exhausted.
	Errors []string

	Duplicates    int
	BelowMinScore int
}

// Searcher runs the search stage: primary terms first, then alternative
// terms until the strategy's expected yield is met, under a per-task call
// budget.
type Searcher struct {
	Provider          search.Provider
	Config            types.ResearchConfig
	IncludeRawContent bool
	Metrics           *Metrics
	Logger            *zap.Logger
}

// Search executes strategy for sq. It fails only when no provider call
// succeeded; failed terms are otherwise recorded in the outcome.
func (s *Searcher) Search(ctx context.Context, sq types.SubQuery, strategy types.SearchStrategy) (SearchOutcome, error) {
	var out SearchOutcome
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	budget := s.Config.MaxSearchCalls
	if budget <= 0 {
		budget = types.DefaultMaxSearchCalls
	}
	expected := strategy.ExpectedSources
	if expected <= 0 {
		expected = strategy.MaxResults
	}

	var collected []types.SearchResult
	seen := make(map[string]bool)
	succeeded := 0
	var lastErr error

	runTerm := func(term string) bool {
		out.Terms = append(out.Terms, term)
		results, err := s.searchTerm(ctx, term, strategy, &budget, &out.Calls)
		if err != nil {
			lastErr = err
			out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", term, err))
			logger.Warn("search term failed", zap.String("term", term), zap.Error(err))
			return !errors.Is(err, ErrSearchBudget) && !contextError(err) && ctx.Err() == nil
		}
		succeeded++
		for _, r := range results {
			r.SearchTerm = term
			collected = append(collected, r)
			seen[r.URL] = true
		}
		return true
	}

	for _, term := range strategy.PrimaryTerms {
		if !runTerm(term) {
			break
		}
	}
	for _, term := range strategy.AlternativeTerms {
		if len(seen) >= expected || budget <= 0 || ctx.Err() != nil {
			break
		}
		if !runTerm(term) {
			break
		}
	}

	if succeeded == 0 {
		if lastErr == nil {
			lastErr = errors.New("strategy has no search terms")
		}
		return out, fmt.Errorf("%w: %w", ErrNoSearchResults, lastErr)
	}

	unique, dups := search.Deduplicate(collected)
	kept := search.FilterByScore(unique, s.Config.ScoreFloor())
	out.Duplicates = dups
	out.BelowMinScore = len(unique) - len(kept)
	if len(strategy.PreferredSources) > 0 {
		kept = search.Rerank(kept, strategy.PreferredSources, s.boost())
	}
	out.Results = search.Truncate(kept, strategy.MaxResults)

	logger.Debug("search stage finished",
		zap.Int("calls", out.Calls),
		zap.Int("collected", len(collected)),
		zap.Int("kept", len(out.Results)),
	)
	return out, nil
}

// searchTerm issues one query with retry, charging every attempt against
// budget.
func (s *Searcher) searchTerm(ctx context.Context, term string, strategy types.SearchStrategy, budget, calls *int) ([]types.SearchResult, error) {
	req := search.Request{
		Query:             term,
		MaxResults:        strategy.MaxResults,
		Depth:             strategy.SearchDepth,
		TimeRange:         strategy.TimeRange,
		IncludeDomains:    strategy.IncludeDomains,
		ExcludeDomains:    strategy.ExcludeDomains,
		IncludeRawContent: s.IncludeRawContent,
	}

	var results []types.SearchResult
	err := withRetry(ctx, s.attempts(), permanentSearchError, func(int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if *budget <= 0 {
			return ErrSearchBudget
		}
		*budget--
		*calls++
		res, err := s.Provider.Search(ctx, req)
		s.countCall(err)
		if err != nil {
			return err
		}
		results = res
		return nil
	})
	return results, err
}

func (s *Searcher) countCall(err error) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.SearchCalls.WithLabelValues(s.Provider.Name(), outcomeLabel(err != nil)).Inc()
}

func (s *Searcher) attempts() int {
	if s.Config.MaxAttempts > 0 {
		return s.Config.MaxAttempts
	}
	return types.DefaultMaxAttempts
}

func (s *Searcher) boost() float64 {
	if s.Config.PreferredBoost > 0 {
		return s.Config.PreferredBoost
	}
	return types.DefaultPreferredBoost
}

// permanentSearchError reports errors a retry cannot fix.
func permanentSearchError(err error) bool {
	if errors.Is(err, ErrSearchBudget) || contextError(err) {
		return true
	}
	var se *search.StatusError
	if errors.As(err, &se) {
		return se.Status >= 400 && se.Status < 500 && se.Status != http.StatusTooManyRequests
	}
	return false
}

func contextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
