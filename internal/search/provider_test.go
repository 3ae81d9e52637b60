// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Akshath47/deep-research/internal/httputil"
	"github.com/Akshath47/deep-research/pkg/types"
)

func TestMain(m *testing.M) {
	httputil.RetryBaseDelay = time.Millisecond
	os.Exit(m.Run())
}

// stubProvider returns fixed results and counts calls.
type stubProvider struct {
	name    string
	results []types.SearchResult
	err     error
	calls   atomic.Int32
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(_ context.Context, _ Request) ([]types.SearchResult, error) {
	s.calls.Add(1)
	return s.results, s.err
}

const sampleTavilyJSON = `{
  "query": "solid state batteries",
  "results": [
    {"url": "https://www.reuters.com/tech/batteries", "title": "Battery news", "content": "Short news text.", "raw_content": "Full news article text.", "score": 0.9, "published_date": "2025-01-02"},
    {"url": "https://arxiv.org/abs/2401.00001", "title": "A paper", "content": "Abstract text.", "score": 0.5},
    {"url": "https://example.com/blog", "title": "A blog", "content": "Blog text.", "score": 0.1}
  ]
}`

func TestTavilySearch(t *testing.T) {
	var got tavilyRequest
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, sampleTavilyJSON)
	}))
	defer ts.Close()

	old := tavilyAPIURL
	tavilyAPIURL = ts.URL
	defer func() { tavilyAPIURL = old }()

	p := &TavilyProvider{APIKey: "tvly-test", Client: ts.Client()}
	results, err := p.Search(context.Background(), Request{
		Query:          "solid state batteries",
		MaxResults:     3,
		TimeRange:      types.RangeNone,
		IncludeDomains: []string{"reuters.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tvly-test", auth)
	assert.Equal(t, MinProviderResults, got.MaxResults, "max_results is clamped to the provider minimum")
	assert.Equal(t, "basic", got.SearchDepth)
	assert.Empty(t, got.TimeRange, "none is omitted")
	assert.Equal(t, []string{"reuters.com"}, got.IncludeDomains)

	require.Len(t, results, 3)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, types.SourceNews, results[0].SourceType)
	assert.Equal(t, "Full news article text.", results[0].Content)
	assert.Equal(t, "Short news text.", results[0].Snippet)
	assert.Equal(t, "2025-01-02", results[0].PublishedDate)
	assert.Equal(t, 0.5, results[1].Score)
	assert.Equal(t, types.SourceAcademic, results[1].SourceType)
	assert.Equal(t, 0.0, results[2].Score)
}

func TestTavilySearchErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	old := tavilyAPIURL
	tavilyAPIURL = ts.URL
	defer func() { tavilyAPIURL = old }()

	p := &TavilyProvider{Client: ts.Client()}
	_, err := p.Search(context.Background(), Request{Query: "q"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Status)

	_, err = p.Search(context.Background(), Request{Query: "  "})
	assert.Error(t, err)
}

func TestTavilySearchMakesOneRequest(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"unavailable", http.StatusServiceUnavailable},
		{"throttled", http.StatusTooManyRequests},
		{"bad gateway", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer ts.Close()

			p := &TavilyProvider{BaseURL: ts.URL, Client: ts.Client(), Logger: zaptest.NewLogger(t)}
			_, err := p.Search(context.Background(), Request{Query: "q"})
			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.Status)
			assert.Equal(t, int32(1), hits.Load(), "retrying is left to the caller")
		})
	}
}

const sampleArxivSearchXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v1</id>
    <title>Attention Is All
      You Need</title>
    <summary>We propose a new architecture based solely on attention mechanisms.</summary>
    <published>2017-06-12T17:57:34Z</published>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1810.04805v2</id>
    <title>BERT: Pre-training of Deep Bidirectional Transformers</title>
    <summary>We introduce BERT.</summary>
    <published>2018-10-11T00:00:00Z</published>
  </entry>
</feed>`

func TestArxivSearch(t *testing.T) {
	var query string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("search_query")
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, sampleArxivSearchXML)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	p := &ArxivProvider{Client: ts.Client()}
	results, err := p.Search(context.Background(), Request{Query: "attention transformer"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "all:attention AND all:transformer", query)
	assert.Equal(t, "https://arxiv.org/abs/1706.03762", results[0].URL)
	assert.Equal(t, "Attention Is All You Need", results[0].Title)
	assert.Equal(t, "2017-06-12", results[0].PublishedDate)
	assert.Equal(t, types.SourceAcademic, results[0].SourceType)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, 0.1, results[1].Score)
}

func TestBuildArxivQueryTimeRange(t *testing.T) {
	at := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	got := buildArxivQuery(Request{Query: "llm agents", TimeRange: types.RangeMonth}, at)
	assert.Equal(t, "all:llm AND all:agents AND submittedDate:[202602151200 TO 202603151200]", got)

	got = buildArxivQuery(Request{Query: "llm", TimeRange: types.RangeNone}, at)
	assert.Equal(t, "all:llm", got)
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"http://arxiv.org/abs/2301.12345", "2301.12345"},
		{"not a url", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractArxivID(tt.input), tt.input)
	}
}

func TestMultiProvider(t *testing.T) {
	a := &stubProvider{name: "a", results: []types.SearchResult{res("a1", 0.4)}}
	b := &stubProvider{name: "b", results: []types.SearchResult{res("b1", 0.9)}}
	broken := &stubProvider{name: "broken", err: errors.New("down")}

	m := &MultiProvider{Providers: []Provider{a, broken, b}, Logger: zaptest.NewLogger(t)}
	assert.Equal(t, "a+broken+b", m.Name())

	results, err := m.Search(context.Background(), Request{Query: "q"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b1", results[0].URL)

	allBroken := &MultiProvider{Providers: []Provider{broken}}
	_, err = allBroken.Search(context.Background(), Request{Query: "q"})
	assert.ErrorContains(t, err, "broken: down")
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestCachedProvider(t *testing.T) {
	mr, client := setupRedis(t)
	next := &stubProvider{name: "tavily", results: []types.SearchResult{res("https://x", 0.5)}}
	c := NewCachedProvider(next, client, time.Hour, zaptest.NewLogger(t))

	req := Request{Query: "cached query", MaxResults: 5}
	first, err := c.Search(context.Background(), req)
	require.NoError(t, err)
	second, err := c.Search(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), next.calls.Load(), "second call is served from cache")

	_, err = c.Search(context.Background(), Request{Query: "other query", MaxResults: 5})
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())

	keys := mr.Keys()
	require.Len(t, keys, 2)
	assert.True(t, strings.HasPrefix(keys[0], cachePrefix+"tavily:"))

	mr.FastForward(2 * time.Hour)
	_, err = c.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(3), next.calls.Load(), "expired entries are refetched")
}

func TestCachedProviderDoesNotCacheErrors(t *testing.T) {
	mr, client := setupRedis(t)
	next := &stubProvider{name: "tavily", err: errors.New("boom")}
	c := NewCachedProvider(next, client, time.Hour, nil)

	_, err := c.Search(context.Background(), Request{Query: "q"})
	assert.Error(t, err)
	assert.Empty(t, mr.Keys())
}

func TestCachedProviderBypassesBrokenRedis(t *testing.T) {
	mr, client := setupRedis(t)
	mr.Close()
	next := &stubProvider{name: "tavily", results: []types.SearchResult{res("https://x", 0.5)}}
	c := NewCachedProvider(next, client, time.Hour, zaptest.NewLogger(t))

	results, err := c.Search(context.Background(), Request{Query: "q"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestRateLimitedProvider(t *testing.T) {
	next := &stubProvider{name: "tavily"}
	assert.Same(t, Provider(next), NewRateLimitedProvider(next, 0, 0), "zero rate disables throttling")

	p := NewRateLimitedProvider(next, 1000, 1)
	assert.Equal(t, "tavily", p.Name())
	for range 3 {
		_, err := p.Search(context.Background(), Request{Query: "q"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), next.calls.Load())

	slow := NewRateLimitedProvider(next, 0.001, 1)
	_, err := slow.Search(context.Background(), Request{Query: "q"})
	require.NoError(t, err, "first call uses the burst token")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = slow.Search(ctx, Request{Query: "q"})
	assert.ErrorIs(t, err, context.DeadlineExceeded, "a wait past the deadline reads as a deadline error")
	assert.NoError(t, ctx.Err(), "fails before the deadline passes")
	assert.Equal(t, int32(4), next.calls.Load())
}

func TestCacheHitsSkipRateLimiter(t *testing.T) {
	_, client := setupRedis(t)
	next := &stubProvider{name: "tavily", results: []types.SearchResult{res("https://x", 0.5)}}
	c := NewCachedProvider(NewRateLimitedProvider(next, 0.001, 1), client, time.Hour, zaptest.NewLogger(t))

	req := Request{Query: "q", MaxResults: 5}
	_, err := c.Search(context.Background(), req)
	require.NoError(t, err, "first call uses the burst token")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	for range 3 {
		results, err := c.Search(ctx, req)
		require.NoError(t, err, "a cache hit needs no token")
		assert.Len(t, results, 1)
	}
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestFormatRawResult(t *testing.T) {
	r := types.SearchResult{URL: "https://x.example/a", Title: "Title A", Content: "Body", Snippet: "Snip", Score: 0.75, SourceType: types.SourceNews}
	out := FormatRawResult(0, r, RawContext{Subquery: "What is A?", Terms: []string{"a", "b"}})

	assert.True(t, strings.HasPrefix(out, "# Raw Search Result 1\n"))
	assert.Contains(t, out, "URL: https://x.example/a\n")
	assert.Contains(t, out, "Published: Unknown\n")
	assert.Contains(t, out, "Score: 0.75\n")
	assert.Contains(t, out, "Search Terms: a, b\n")
	assert.Contains(t, out, "Strategy: basic\n")

	assert.Equal(t, "https://x.example/a", ParseRawURL(out))
	assert.Equal(t, "Title A", ParseRawTitle(out))
}

func TestFormatListing(t *testing.T) {
	out := FormatListing(nil, "q", []string{"t"})
	assert.Contains(t, out, "No results found.")

	out = FormatListing([]types.SearchResult{res("https://a", 0.5)}, "q", []string{"t"})
	assert.Contains(t, out, "### Result 1: ")
	assert.Contains(t, out, "URL: https://a")
}
