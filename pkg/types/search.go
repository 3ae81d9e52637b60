// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SourceType classifies where a search result came from.
type SourceType string

const (
	SourceWeb      SourceType = "web"
	SourceNews     SourceType = "news"
	SourceAcademic SourceType = "academic"
)

// SearchResult is one web page returned by a search provider after score
// normalisation.
type SearchResult struct {
	URL           string     `json:"url" yaml:"url"`
	Title         string     `json:"title" yaml:"title"`
	Content       string     `json:"content" yaml:"content"`
	Snippet       string     `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	PublishedDate string     `json:"published_date,omitempty" yaml:"published_date,omitempty"`
	Score         float64    `json:"score" yaml:"score"`
	SourceType    SourceType `json:"source_type" yaml:"source_type"`

	// SearchTerm is the term that produced this result.
	SearchTerm string `json:"search_term,omitempty" yaml:"search_term,omitempty"`
}

// SearchMetadata is written next to the raw results of one research task.
type SearchMetadata struct {
	SubqueryIndex   int            `json:"subquery_index" yaml:"subquery_index"`
	SubqueryInfo    SubQuery       `json:"subquery_info" yaml:"subquery_info"`
	SearchTermsUsed []string       `json:"search_terms_used" yaml:"search_terms_used"`
	ResultsCount    int            `json:"results_count" yaml:"results_count"`
	SearchStrategy  SearchStrategy `json:"search_strategy" yaml:"search_strategy"`
	RawDataFiles    []string       `json:"raw_data_files" yaml:"raw_data_files"`
	SearchCalls     int            `json:"search_calls" yaml:"search_calls"`
	SearchErrors    []string       `json:"search_errors,omitempty" yaml:"search_errors,omitempty"`
	Duplicates      int            `json:"duplicates_removed" yaml:"duplicates_removed"`
	BelowMinScore   int            `json:"below_min_score" yaml:"below_min_score"`
}
