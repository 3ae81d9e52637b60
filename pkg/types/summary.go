// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SummaryAnalysis is the structured extraction the language model returns
// for one raw search result.
type SummaryAnalysis struct {
	KeyFindings       []string `json:"key_findings" yaml:"key_findings"`
	MainArguments     []string `json:"main_arguments" yaml:"main_arguments"`
	DataPoints        []string `json:"data_points" yaml:"data_points"`
	Conclusions       []string `json:"conclusions" yaml:"conclusions"`
	RelevanceToQuery  string   `json:"relevance_to_query" yaml:"relevance_to_query"`
	SourceReliability string   `json:"source_reliability" yaml:"source_reliability"`
	SummaryText       string   `json:"summary_text" yaml:"summary_text"`
	ExtractedURL      string   `json:"extracted_url" yaml:"extracted_url"`
	ExtractedTitle    string   `json:"extracted_title" yaml:"extracted_title"`
}

// Summary is the per-result record written to
// summaries/subquery{i}_result{r}.json.
type Summary struct {
	ResultIndex int             `json:"result_index" yaml:"result_index"`
	Subquery    string          `json:"subquery" yaml:"subquery"`
	Analysis    SummaryAnalysis `json:"llm_analysis" yaml:"llm_analysis"`
	Citation    string          `json:"citation" yaml:"citation"`
	SourceFile  string          `json:"source_file" yaml:"source_file"`
	GeneratedAt time.Time       `json:"generated_at" yaml:"generated_at"`
}

// SummaryIndex lists every summary produced by one research task.
type SummaryIndex struct {
	SubqueryIndex  int       `json:"subquery_index" yaml:"subquery_index"`
	Subquery       string    `json:"subquery" yaml:"subquery"`
	Priority       Priority  `json:"priority" yaml:"priority"`
	Freshness      Freshness `json:"freshness" yaml:"freshness"`
	SummariesCount int       `json:"summaries_count" yaml:"summaries_count"`
	SummaryFiles   []string  `json:"summary_files" yaml:"summary_files"`
	Summaries      []Summary `json:"summaries" yaml:"summaries"`
	SkippedFiles   []string  `json:"skipped_files,omitempty" yaml:"skipped_files,omitempty"`
}
