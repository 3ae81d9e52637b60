// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Akshath47/deep-research/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// now is replaced in tests that check time-range queries.
var now = time.Now

// ArxivProvider queries the arXiv API. Every result is academic.
type ArxivProvider struct {
	UserAgent string
	Client    *http.Client
}

// Name returns the provider identifier.
func (p *ArxivProvider) Name() string { return "arxiv" }

// Search queries the arXiv Atom API and scores results by position.
func (p *ArxivProvider) Search(ctx context.Context, r Request) ([]types.SearchResult, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("search_query", buildArxivQuery(r, now()))
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(r.ClampedMax()))
	params.Set("sortBy", "relevance")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: "arXiv", Status: resp.StatusCode}
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	total := len(feed.Entries)
	results := make([]types.SearchResult, 0, total)
	for i, entry := range feed.Entries {
		arxivID := extractArxivID(entry.ID)
		if arxivID == "" {
			continue
		}

		summary := strings.Join(strings.Fields(entry.Summary), " ")
		res := types.SearchResult{
			URL:        "https://arxiv.org/abs/" + arxivID,
			Title:      strings.Join(strings.Fields(entry.Title), " "),
			Content:    summary,
			Snippet:    truncateText(summary, snippetLength),
			SourceType: types.SourceAcademic,
		}
		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			res.PublishedDate = t.Format("2006-01-02")
		}

		// Position-based relevance: first result 1.0, last 0.1.
		if total > 1 {
			res.Score = round3(1.0 - float64(i)/float64(total-1)*0.9)
		} else {
			res.Score = 1.0
		}

		results = append(results, res)
	}
	return results, nil
}

// buildArxivQuery turns free text into an all-fields AND query, narrowed
// to a submission window when a time range is set.
func buildArxivQuery(r Request, at time.Time) string {
	terms := strings.Fields(r.Query)
	parts := make([]string, 0, len(terms)+1)
	for _, t := range terms {
		parts = append(parts, "all:"+t)
	}

	var from time.Time
	switch r.TimeRange {
	case types.RangeDay:
		from = at.AddDate(0, 0, -1)
	case types.RangeWeek:
		from = at.AddDate(0, 0, -7)
	case types.RangeMonth:
		from = at.AddDate(0, -1, 0)
	case types.RangeYear:
		from = at.AddDate(-1, 0, 0)
	}
	if !from.IsZero() {
		parts = append(parts, fmt.Sprintf("submittedDate:[%s TO %s]",
			from.UTC().Format("200601021504"), at.UTC().Format("200601021504")))
	}
	return strings.Join(parts, " AND ")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" becomes "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
