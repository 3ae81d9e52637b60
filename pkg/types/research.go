// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the records shared across the deep-research pipeline:
// sub-queries and their search strategies, search results, per-result
// summaries, review gaps, and configuration. Every record here is persisted
// as JSON in the document store, so field tags define the on-store format.
package types

import "strconv"

// Priority ranks a sub-query relative to its siblings.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Freshness states whether a sub-query needs recent sources.
type Freshness string

const (
	FreshnessRecent Freshness = "recent"
	FreshnessAny    Freshness = "any"
)

// Valid reports whether f is one of the known freshness values.
func (f Freshness) Valid() bool {
	return f == FreshnessRecent || f == FreshnessAny
}

// SubQuery is one focused question produced by decomposing the clarified
// research brief. The decomposer writes them to subqueries.json as an array.
type SubQuery struct {
	ID          int       `json:"id" yaml:"id"`
	Query       string    `json:"query" yaml:"query"`
	Priority    Priority  `json:"priority" yaml:"priority"`
	Freshness   Freshness `json:"freshness" yaml:"freshness"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// Key returns the research plan key for this sub-query.
func (q SubQuery) Key() string {
	return strconv.Itoa(q.ID)
}

// SearchDepth selects how thoroughly the search provider looks.
type SearchDepth string

const (
	DepthBasic    SearchDepth = "basic"
	DepthAdvanced SearchDepth = "advanced"
)

// TimeRange restricts results to a publication window.
type TimeRange string

const (
	RangeDay   TimeRange = "day"
	RangeWeek  TimeRange = "week"
	RangeMonth TimeRange = "month"
	RangeYear  TimeRange = "year"
	RangeNone  TimeRange = "none"
)

// Valid reports whether r is one of the known time ranges.
func (r TimeRange) Valid() bool {
	switch r {
	case RangeDay, RangeWeek, RangeMonth, RangeYear, RangeNone:
		return true
	}
	return false
}

// SearchStrategy tells a research task which terms to search and how to
// filter what comes back.
type SearchStrategy struct {
	PrimaryTerms     []string     `json:"primary_terms" yaml:"primary_terms"`
	AlternativeTerms []string     `json:"alternative_terms" yaml:"alternative_terms"`
	MaxResults       int          `json:"max_results" yaml:"max_results"`
	SearchDepth      SearchDepth  `json:"search_depth" yaml:"search_depth"`
	TimeRange        TimeRange    `json:"time_range" yaml:"time_range"`
	PreferredSources []SourceType `json:"preferred_sources,omitempty" yaml:"preferred_sources,omitempty"`
	IncludeDomains   []string     `json:"include_domains,omitempty" yaml:"include_domains,omitempty"`
	ExcludeDomains   []string     `json:"exclude_domains,omitempty" yaml:"exclude_domains,omitempty"`
	BackupStrategy   string       `json:"backup_strategy,omitempty" yaml:"backup_strategy,omitempty"`

	// ExpectedSources is the result count after which alternative terms are
	// no longer tried. Zero means MaxResults.
	ExpectedSources int `json:"expected_sources,omitempty" yaml:"expected_sources,omitempty"`
}

// ResearchPlan is the content of research_plan.json: one strategy per
// sub-query, keyed by the sub-query id rendered as a decimal string.
type ResearchPlan struct {
	Strategies map[string]SearchStrategy `json:"strategies" yaml:"strategies"`
	Metadata   map[string]any            `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}
