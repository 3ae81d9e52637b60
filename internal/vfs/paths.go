// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vfs

import (
	"fmt"
	"regexp"
	"strconv"
)

// Well-known documents written by the single-shot stages.
const (
	OriginalQueryFile      = "original_query.md"
	ClarificationsFile     = "clarifications.json"
	ClarifiedQueryFile     = "clarified_query.md"
	SubqueriesFile         = "subqueries.json"
	DecompositionNotesFile = "decomposition_notes.md"
	ResearchPlanFile       = "research_plan.json"
	FactcheckFile          = "factcheck_notes.md"
	DraftReportFile        = "draft_report.md"
	FinalPaperFile         = "final_paper.md"
	GapListFile            = "gap_list.json"
	ManifestFile           = "run_manifest.json"
)

// Directory prefixes.
const (
	RawDataDir     = "raw_data/"
	SummariesDir   = "summaries/"
	DiagnosticsDir = "diagnostics/"
)

// RawResultPath is where a task stores the r-th raw search result.
func RawResultPath(i, r int) string {
	return fmt.Sprintf("%ssubquery%d_result%d.txt", RawDataDir, i, r)
}

// RawSummaryPath is the human-readable listing of a task's results.
func RawSummaryPath(i int) string {
	return fmt.Sprintf("%ssubquery%d_summary.txt", RawDataDir, i)
}

// RawMetadataPath is the search metadata of a task.
func RawMetadataPath(i int) string {
	return fmt.Sprintf("%ssubquery%d_metadata.json", RawDataDir, i)
}

// ErrorPath is where a failed task records its error.
func ErrorPath(i int) string {
	return fmt.Sprintf("%ssubquery%d_error.txt", RawDataDir, i)
}

// SummaryPath is where a task stores the summary of its r-th result.
func SummaryPath(i, r int) string {
	return fmt.Sprintf("%ssubquery%d_result%d.json", SummariesDir, i, r)
}

// SummaryIndexPath is the index of every summary a task produced.
func SummaryIndexPath(i int) string {
	return fmt.Sprintf("%ssubquery%d_index.json", SummariesDir, i)
}

// RawResultPrefix matches every raw result of task i.
func RawResultPrefix(i int) string {
	return fmt.Sprintf("%ssubquery%d_result", RawDataDir, i)
}

// DiagnosticPath is where the driver records a stage failure.
func DiagnosticPath(state string) string {
	return DiagnosticsDir + state + "_error.txt"
}

var taskPathPattern = regexp.MustCompile(`^(?:raw_data|summaries)/subquery(\d+)_`)

// TaskIndex extracts the task index from a path inside a task namespace.
func TaskIndex(path string) (int, bool) {
	m := taskPathPattern.FindStringSubmatch(path)
	if m == nil {
		return 0, false
	}
	i, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return i, true
}

var resultNumberPattern = regexp.MustCompile(`_result(\d+)\.txt$`)

// ResultNumber extracts r from a RawResultPath.
func ResultNumber(path string) (int, bool) {
	m := resultNumberPattern.FindStringSubmatch(path)
	if m == nil {
		return 0, false
	}
	r, err := strconv.Atoi(m[1])
	return r, err == nil
}
