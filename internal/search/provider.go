// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search is the web search boundary used by research tasks. A
// Provider turns one query into normalised results; wrappers add caching,
// throttling, and fan-in across providers. The ranking helpers implement
// the per-task dedup, filter, rerank, and truncate steps.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Akshath47/deep-research/pkg/types"
)

// Provider limits accepted by Tavily.
const (
	MinProviderResults = 5
	MaxProviderResults = 20
)

// Request holds the parameters of one provider call.
type Request struct {
	Query             string            `json:"query"`
	MaxResults        int               `json:"max_results"`
	Depth             types.SearchDepth `json:"search_depth,omitempty"`
	TimeRange         types.TimeRange   `json:"time_range,omitempty"`
	IncludeDomains    []string          `json:"include_domains,omitempty"`
	ExcludeDomains    []string          `json:"exclude_domains,omitempty"`
	IncludeRawContent bool              `json:"include_raw_content,omitempty"`
}

// Validate reports requests that no provider can serve.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("search query is empty")
	}
	return nil
}

// ClampedMax returns MaxResults limited to the provider range.
func (r Request) ClampedMax() int {
	return min(max(r.MaxResults, MinProviderResults), MaxProviderResults)
}

// Provider searches one backend. Implementations must be safe for
// concurrent use by multiple research tasks.
type Provider interface {
	Name() string
	Search(ctx context.Context, req Request) ([]types.SearchResult, error)
}

// StatusError is a non-success HTTP status from a search API.
type StatusError struct {
	Provider string
	Status   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned HTTP %d", e.Provider, e.Status)
}
