// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Akshath47/deep-research/internal/httputil"
	"github.com/Akshath47/deep-research/pkg/types"
)

// tavilyAPIURL is the Tavily search endpoint. Declared as a var so tests
// can substitute an httptest server.
var tavilyAPIURL = "https://api.tavily.com/search"

// TavilyProvider queries the Tavily web search API. Each Search makes one
// HTTP request; throttled and unavailable responses come back as
// *StatusError for the caller to retry against its call budget. BaseURL
// overrides the search endpoint when non-empty.
type TavilyProvider struct {
	APIKey    string
	UserAgent string
	BaseURL   string
	Client    *http.Client
	Logger    *zap.Logger
}

// Name returns the provider identifier.
func (p *TavilyProvider) Name() string { return "tavily" }

type tavilyRequest struct {
	Query             string   `json:"query"`
	MaxResults        int      `json:"max_results"`
	SearchDepth       string   `json:"search_depth,omitempty"`
	IncludeRawContent bool     `json:"include_raw_content"`
	IncludeDomains    []string `json:"include_domains,omitempty"`
	ExcludeDomains    []string `json:"exclude_domains,omitempty"`
	TimeRange         string   `json:"time_range,omitempty"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	RawContent    string   `json:"raw_content"`
	Snippet       string   `json:"snippet"`
	PublishedDate string   `json:"published_date"`
	Score         *float64 `json:"score"`
}

// Search posts the query to Tavily and returns normalised results sorted
// by descending score.
func (p *TavilyProvider) Search(ctx context.Context, r Request) ([]types.SearchResult, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	body := tavilyRequest{
		Query:             r.Query,
		MaxResults:        r.ClampedMax(),
		SearchDepth:       string(r.Depth),
		IncludeRawContent: r.IncludeRawContent,
		IncludeDomains:    r.IncludeDomains,
		ExcludeDomains:    r.ExcludeDomains,
	}
	if r.TimeRange != "" && r.TimeRange != types.RangeNone {
		body.TimeRange = string(r.TimeRange)
	}
	if body.SearchDepth == "" {
		body.SearchDepth = string(types.DepthBasic)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := p.BaseURL
	if endpoint == "" {
		endpoint = tavilyAPIURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Tavily API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if p.Logger != nil {
			p.Logger.Debug("search request failed",
				zap.String("provider", p.Name()),
				zap.Int("status", resp.StatusCode),
				zap.Bool("retryable", httputil.Retryable(resp.StatusCode)))
		}
		return nil, &StatusError{Provider: "Tavily", Status: resp.StatusCode}
	}

	var tr tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("parsing Tavily response: %w", err)
	}
	return parseTavily(tr), nil
}

// parseTavily converts raw hits, min-max normalising their scores and
// classifying each URL.
func parseTavily(tr tavilyResponse) []types.SearchResult {
	if len(tr.Results) == 0 {
		return nil
	}

	raw := make([]float64, len(tr.Results))
	for i, hit := range tr.Results {
		if hit.Score != nil {
			raw[i] = *hit.Score
		}
	}
	scores := NormalizeScores(raw)

	results := make([]types.SearchResult, len(tr.Results))
	for i, hit := range tr.Results {
		content := hit.RawContent
		if content == "" {
			content = hit.Content
		}
		snippet := hit.Snippet
		if snippet == "" {
			snippet = truncateText(hit.Content, snippetLength)
		}
		results[i] = types.SearchResult{
			URL:           hit.URL,
			Title:         hit.Title,
			Content:       content,
			Snippet:       snippet,
			PublishedDate: hit.PublishedDate,
			Score:         scores[i],
			SourceType:    ClassifySource(hit.URL),
		}
	}
	SortByScore(results)
	return results
}
