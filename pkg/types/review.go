// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// GapCategory groups review findings.
type GapCategory string

const (
	GapCoverage GapCategory = "coverage"
	GapEvidence GapCategory = "evidence"
	GapCitation GapCategory = "citation"
	GapClarity  GapCategory = "clarity"
)

// GapSeverity ranks review findings.
type GapSeverity string

const (
	SeverityMinor    GapSeverity = "minor"
	SeverityModerate GapSeverity = "moderate"
	SeverityMajor    GapSeverity = "major"
)

// Gap is one weakness the reviewer found in the draft report.
type Gap struct {
	SubqueryID     int         `json:"subquery_id,omitempty" yaml:"subquery_id,omitempty"`
	Category       GapCategory `json:"category" yaml:"category"`
	Severity       GapSeverity `json:"severity" yaml:"severity"`
	Description    string      `json:"description" yaml:"description"`
	SuggestedQuery string      `json:"suggested_query,omitempty" yaml:"suggested_query,omitempty"`
}

// GapList is the content of gap_list.json.
type GapList struct {
	Gaps        []Gap     `json:"gaps" yaml:"gaps"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}

// StateTiming records how long one pipeline state took.
type StateTiming struct {
	State    string        `json:"state" yaml:"state"`
	Started  time.Time     `json:"started" yaml:"started"`
	Duration time.Duration `json:"duration_ns" yaml:"duration_ns"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunManifest is written to run_manifest.json when a pipeline run reaches
// its final state.
type RunManifest struct {
	RunID       string        `json:"run_id" yaml:"run_id"`
	Query       string        `json:"query" yaml:"query"`
	Started     time.Time     `json:"started" yaml:"started"`
	Finished    time.Time     `json:"finished" yaml:"finished"`
	States      []StateTiming `json:"states" yaml:"states"`
	Tasks       int           `json:"tasks" yaml:"tasks"`
	FailedTasks int           `json:"failed_tasks" yaml:"failed_tasks"`
}
