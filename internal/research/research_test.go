// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/Akshath47/deep-research/internal/httputil"
	"github.com/Akshath47/deep-research/internal/llm/llmtest"
	"github.com/Akshath47/deep-research/internal/search"
	"github.com/Akshath47/deep-research/internal/vfs"
	"github.com/Akshath47/deep-research/pkg/types"
)

func TestMain(m *testing.M) {
	backoffBase = time.Millisecond
	httputil.RetryBaseDelay = time.Millisecond
	goleak.VerifyTestMain(m)
}

const analysisJSON = `{
  "key_findings": ["finding"],
  "main_arguments": [],
  "data_points": [],
  "conclusions": [],
  "relevance_to_query": "high",
  "source_reliability": "medium",
  "summary_text": "A short summary.",
  "extracted_url": "",
  "extracted_title": ""
}`

// funcProvider adapts a function to search.Provider and counts calls.
type funcProvider struct {
	fn func(req search.Request) ([]types.SearchResult, error)

	mu    sync.Mutex
	calls []string
}

func (p *funcProvider) Name() string { return "stub" }

func (p *funcProvider) Search(_ context.Context, req search.Request) ([]types.SearchResult, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req.Query)
	p.mu.Unlock()
	return p.fn(req)
}

func (p *funcProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// resultsFor returns n distinct results whose URLs are derived from prefix.
func resultsFor(prefix string, n int) []types.SearchResult {
	out := make([]types.SearchResult, n)
	for i := range n {
		out[i] = types.SearchResult{
			URL:        fmt.Sprintf("https://%s.example/%d", prefix, i),
			Title:      fmt.Sprintf("%s result %d", prefix, i),
			Content:    "Content about " + prefix,
			Score:      0.9 - float64(i)*0.1,
			SourceType: types.SourceWeb,
		}
	}
	return out
}

var errProviderDown = errors.New("provider down")

// failingFor errors for every query in fail and returns three results
// otherwise.
func failingFor(fail ...string) *funcProvider {
	bad := make(map[string]bool, len(fail))
	for _, q := range fail {
		bad[q] = true
	}
	return &funcProvider{fn: func(req search.Request) ([]types.SearchResult, error) {
		if bad[req.Query] {
			return nil, errProviderDown
		}
		return resultsFor(req.Query, 3), nil
	}}
}

func testConfig() types.ResearchConfig {
	return types.Defaults().Research
}

func newRunner(p search.Provider) *Runner {
	cfg := testConfig()
	return &Runner{
		Searcher:   &Searcher{Provider: p, Config: cfg},
		Summarizer: &Summarizer{LLM: llmtest.Static(analysisJSON), MaxAttempts: cfg.MaxAttempts},
	}
}

func storeWithSubqueries(t *testing.T, queries ...string) *vfs.Store {
	t.Helper()
	subs := make([]types.SubQuery, len(queries))
	for i, q := range queries {
		subs[i] = types.SubQuery{ID: i + 1, Query: q, Priority: types.PriorityHigh, Freshness: types.FreshnessAny}
	}
	s := vfs.New()
	if err := s.PutJSON(vfs.SubqueriesFile, subs); err != nil {
		t.Fatal(err)
	}
	return s
}
