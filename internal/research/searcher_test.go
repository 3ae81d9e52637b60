// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Akshath47/deep-research/internal/search"
	"github.com/Akshath47/deep-research/pkg/types"
)

func TestSearchPrimaryThenAlternatives(t *testing.T) {
	p := &funcProvider{fn: func(req search.Request) ([]types.SearchResult, error) {
		switch req.Query {
		case "primary":
			return resultsFor("p", 2), nil
		case "alt one":
			return resultsFor("a", 2), nil
		default:
			return resultsFor("z", 2), nil
		}
	}}
	s := &Searcher{Provider: p, Config: testConfig(), Logger: zaptest.NewLogger(t)}

	out, err := s.Search(context.Background(), types.SubQuery{Query: "q"}, types.SearchStrategy{
		PrimaryTerms:     []string{"primary"},
		AlternativeTerms: []string{"alt one", "alt two", "alt three"},
		MaxResults:       5,
		ExpectedSources:  4,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"primary", "alt one"}, p.Calls(), "stops once the expected yield is met")
	assert.Equal(t, []string{"primary", "alt one"}, out.Terms)
	assert.Len(t, out.Results, 4)
	assert.Equal(t, 2, out.Calls)
	assert.Equal(t, "primary", out.Results[0].SearchTerm)
}

func TestSearchAllPrimaryTermsRun(t *testing.T) {
	p := &funcProvider{fn: func(req search.Request) ([]types.SearchResult, error) {
		return resultsFor(req.Query, 5), nil
	}}
	s := &Searcher{Provider: p, Config: testConfig()}

	_, err := s.Search(context.Background(), types.SubQuery{}, types.SearchStrategy{
		PrimaryTerms:     []string{"one", "two"},
		AlternativeTerms: []string{"three"},
		MaxResults:       5,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, p.Calls())
}

func TestSearchPostProcessing(t *testing.T) {
	p := &funcProvider{fn: func(search.Request) ([]types.SearchResult, error) {
		return []types.SearchResult{
			{URL: "a", Score: 0.9, SourceType: types.SourceWeb},
			{URL: "a", Score: 0.5, SourceType: types.SourceWeb},
			{URL: "b", Score: 0.7, SourceType: types.SourceAcademic},
			{URL: "c", Score: 0.19999, SourceType: types.SourceWeb},
			{URL: "d", Score: 0.2, SourceType: types.SourceWeb},
			{URL: "e", Score: 0.3, SourceType: types.SourceWeb},
		}, nil
	}}
	s := &Searcher{Provider: p, Config: testConfig()}

	out, err := s.Search(context.Background(), types.SubQuery{}, types.SearchStrategy{
		PrimaryTerms:     []string{"t"},
		MaxResults:       3,
		PreferredSources: []types.SourceType{types.SourceAcademic},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, out.Duplicates)
	assert.Equal(t, 1, out.BelowMinScore)
	require.Len(t, out.Results, 3)
	assert.Equal(t, "a", out.Results[0].URL)
	assert.Equal(t, "b", out.Results[1].URL)
	assert.InDelta(t, 0.84, out.Results[1].Score, 1e-9)
	assert.Equal(t, "e", out.Results[2].URL)
}

func TestSearchMinScoreZeroKeepsEverything(t *testing.T) {
	p := &funcProvider{fn: func(search.Request) ([]types.SearchResult, error) {
		return []types.SearchResult{
			{URL: "a", Score: 0.9},
			{URL: "b", Score: 0.05},
			{URL: "c", Score: 0},
		}, nil
	}}
	cfg := testConfig()
	zero := 0.0
	cfg.MinScore = &zero
	s := &Searcher{Provider: p, Config: cfg}

	out, err := s.Search(context.Background(), types.SubQuery{}, types.SearchStrategy{PrimaryTerms: []string{"t"}, MaxResults: 5})
	require.NoError(t, err)
	assert.Equal(t, 0, out.BelowMinScore)
	assert.Len(t, out.Results, 3)

	s.Config.MinScore = nil
	out, err = s.Search(context.Background(), types.SubQuery{}, types.SearchStrategy{PrimaryTerms: []string{"t"}, MaxResults: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, out.BelowMinScore, "unset falls back to the default floor")
}

func TestSearchRetriesTransientErrors(t *testing.T) {
	attempts := 0
	p := &funcProvider{fn: func(search.Request) ([]types.SearchResult, error) {
		attempts++
		if attempts < 3 {
			return nil, errProviderDown
		}
		return resultsFor("ok", 1), nil
	}}
	s := &Searcher{Provider: p, Config: testConfig()}

	out, err := s.Search(context.Background(), types.SubQuery{}, types.SearchStrategy{PrimaryTerms: []string{"t"}, MaxResults: 5})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Calls)
	assert.Len(t, out.Results, 1)
	assert.Empty(t, out.Errors)
}

func TestSearchExhaustedRetries(t *testing.T) {
	p := failingFor("bad")
	s := &Searcher{Provider: p, Config: testConfig()}

	out, err := s.Search(context.Background(), types.SubQuery{}, types.SearchStrategy{PrimaryTerms: []string{"bad"}, MaxResults: 5})
	require.ErrorIs(t, err, ErrNoSearchResults)
	assert.ErrorIs(t, err, errProviderDown)
	assert.Equal(t, 3, out.Calls, "three attempts per call")
	assert.Len(t, out.Errors, 1)
}

func TestSearchPartialFailureIsAnnotated(t *testing.T) {
	p := failingFor("bad")
	s := &Searcher{Provider: p, Config: testConfig()}

	out, err := s.Search(context.Background(), types.SubQuery{}, types.SearchStrategy{PrimaryTerms: []string{"bad", "good"}, MaxResults: 5})
	require.NoError(t, err)
	assert.Len(t, out.Results, 3)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0], "bad: ")
}

func TestSearchPermanentErrorNotRetried(t *testing.T) {
	p := &funcProvider{fn: func(search.Request) ([]types.SearchResult, error) {
		return nil, &search.StatusError{Provider: "Tavily", Status: http.StatusUnauthorized}
	}}
	s := &Searcher{Provider: p, Config: testConfig()}

	out, err := s.Search(context.Background(), types.SubQuery{}, types.SearchStrategy{PrimaryTerms: []string{"t"}, MaxResults: 5})
	require.Error(t, err)
	assert.Equal(t, 1, out.Calls)
}

func TestSearchBudget(t *testing.T) {
	p := failingFor("a", "b", "c", "d", "e")
	cfg := testConfig()
	cfg.MaxSearchCalls = 4
	s := &Searcher{Provider: p, Config: cfg}

	out, err := s.Search(context.Background(), types.SubQuery{}, types.SearchStrategy{
		PrimaryTerms: []string{"a", "b", "c", "d", "e"},
		MaxResults:   5,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSearchBudget))
	assert.Equal(t, 4, out.Calls)
	assert.Len(t, p.Calls(), 4)
}

func TestSearchBudgetCountsEveryHTTPRequest(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	cfg := testConfig()
	cfg.MaxSearchCalls = 3
	s := &Searcher{
		Provider: &search.TavilyProvider{BaseURL: ts.URL, Client: ts.Client()},
		Config:   cfg,
		Logger:   zaptest.NewLogger(t),
	}

	out, err := s.Search(context.Background(), types.SubQuery{}, types.SearchStrategy{
		PrimaryTerms: []string{"a", "b"},
		MaxResults:   5,
	})
	require.ErrorIs(t, err, ErrNoSearchResults)
	assert.Equal(t, 3, out.Calls)
	assert.Equal(t, int32(3), hits.Load(), "server sees exactly the budgeted calls")
}

func TestSearchStopsWhenLimiterWouldOutlastDeadline(t *testing.T) {
	p := failingFor("a", "b")
	s := &Searcher{Provider: search.NewRateLimitedProvider(p, 0.001, 1), Config: testConfig()}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	out, err := s.Search(ctx, types.SubQuery{}, types.SearchStrategy{
		PrimaryTerms: []string{"a", "b"},
		MaxResults:   5,
	})
	require.ErrorIs(t, err, ErrNoSearchResults)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"a"}, p.Calls(), "only the burst token reaches the provider")
	assert.Equal(t, 2, out.Calls, "the limiter error is not retried")
	assert.Equal(t, []string{"a"}, out.Terms)
}

func TestSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &funcProvider{fn: func(search.Request) ([]types.SearchResult, error) {
		return nil, context.Canceled
	}}
	s := &Searcher{Provider: p, Config: testConfig()}

	out, err := s.Search(ctx, types.SubQuery{}, types.SearchStrategy{PrimaryTerms: []string{"a", "b"}, MaxResults: 5})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, p.Calls(), "a cancelled context never reaches the provider")
	assert.Equal(t, 0, out.Calls)
}

func TestSearchNoTerms(t *testing.T) {
	s := &Searcher{Provider: failingFor(), Config: testConfig()}
	_, err := s.Search(context.Background(), types.SubQuery{}, types.SearchStrategy{MaxResults: 5})
	assert.ErrorIs(t, err, ErrNoSearchResults)
}
