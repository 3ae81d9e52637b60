// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompts holds the text/template prompts sent to the language model
// by each pipeline stage. Every prompt opens with a "Task:" line naming the
// stage, which keeps transcripts greppable.
package prompts

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Akshath47/deep-research/pkg/types"
)

// Prompt names.
const (
	ClarifyQuestions = "clarify-questions"
	ClarifyBrief     = "clarify-brief"
	Decompose        = "decompose"
	Strategize       = "strategize"
	Summarize        = "summarize"
	FactCheck        = "factcheck"
	Synthesize       = "synthesize"
	Review           = "review"
)

// QA is one answered clarifying question.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuestionsData feeds ClarifyQuestions.
type QuestionsData struct {
	Query        string
	MaxQuestions int
}

// BriefData feeds ClarifyBrief.
type BriefData struct {
	Query   string
	Answers []QA
}

// DecomposeData feeds Decompose.
type DecomposeData struct {
	Brief    string
	Min, Max int
}

// StrategizeData feeds Strategize.
type StrategizeData struct {
	Subqueries []types.SubQuery
}

// SummarizeData feeds Summarize.
type SummarizeData struct {
	Subquery string
	Raw      string
}

// FactCheckData feeds FactCheck.
type FactCheckData struct {
	Brief     string
	Summaries []types.Summary
	Failures  []string
}

// SynthesizeData feeds Synthesize.
type SynthesizeData struct {
	Brief      string
	Subqueries []types.SubQuery
	Indexes    []types.SummaryIndex
	FactCheck  string
}

// ReviewData feeds Review.
type ReviewData struct {
	Subqueries []types.SubQuery
	FactCheck  string
	Draft      string
}

var templates = map[string]*template.Template{
	ClarifyQuestions: parse(ClarifyQuestions, `Task: clarify-questions
You help a researcher scope a question before any searching starts.

Research question:
{{.Query}}

Ask at most {{.MaxQuestions}} short questions whose answers would most change how the research is done (scope, time period, audience, depth). Ask none if the question is already specific.

Respond with a JSON object: {"questions": ["..."]}. Do not include any text outside the JSON object.
`),

	ClarifyBrief: parse(ClarifyBrief, `Task: clarify-brief
Rewrite the research question into a precise research brief in Markdown.

Research question:
{{.Query}}
{{if .Answers}}
Clarifications from the researcher:
{{range .Answers}}- Q: {{.Question}}
  A: {{.Answer}}
{{end}}{{end}}
The brief must state the core question, the scope, key terms, and what a complete answer contains. Do not answer the question.
`),

	Decompose: parse(Decompose, `Task: decompose
Break the research brief into {{.Min}} to {{.Max}} focused sub-queries that can each be researched independently with web search.

Research brief:
{{.Brief}}

For each sub-query give:
- id: integer starting at 1
- query: a self-contained question
- priority: "high", "medium", or "low"
- freshness: "recent" if the answer depends on current events, otherwise "any"
- description: one sentence on why it matters

Respond with a JSON object: {"subqueries": [{"id": 1, "query": "...", "priority": "high", "freshness": "any", "description": "..."}]}. Do not include any text outside the JSON object.
`),

	Strategize: parse(Strategize, `Task: strategize
Plan web searches for each sub-query.

Sub-queries:
{{range .Subqueries}}{{.ID}}. [{{.Priority}}/{{.Freshness}}] {{.Query}}
{{end}}
For each sub-query id give primary_terms (1-3 search strings), alternative_terms (0-3 fallback strings), max_results (1-20), search_depth ("basic" or "advanced"), time_range ("day", "week", "month", "year", or "none"), preferred_sources (any of "web", "news", "academic"), optional include_domains and exclude_domains, expected_sources (integer), and backup_strategy (one sentence).

Respond with a JSON object: {"strategies": {"<id>": {...}}}. Do not include any text outside the JSON object.
`),

	Summarize: parse(Summarize, `Task: summarize
Analyse one search result for the sub-query below.

Sub-query: {{.Subquery}}

Search result:
{{.Raw}}

Extract:
- key_findings: factual findings relevant to the sub-query
- main_arguments: arguments the source makes
- data_points: numbers, dates, and measurements with units
- conclusions: the source's conclusions
- relevance_to_query: "high", "medium", or "low" with a short reason
- source_reliability: "high", "medium", or "low" with a short reason
- summary_text: a 2-4 sentence summary
- extracted_url: the result URL
- extracted_title: the result title

Respond with a JSON object containing all fields above. Do not include any text outside the JSON object.
`),

	FactCheck: parse(FactCheck, `Task: factcheck
Cross-check the research summaries below. Identify claims that agree across sources, claims that conflict, claims resting on a single low-reliability source, and obvious errors. Reference sources by URL.

Research brief:
{{.Brief}}

Summaries:
{{range .Summaries}}- ({{.Subquery}}) {{.Analysis.SummaryText}} {{.Citation}}
{{end}}{{if .Failures}}
Sub-queries with no research due to errors:
{{range .Failures}}- {{.}}
{{end}}{{end}}
Write the notes in Markdown with sections: Corroborated, Conflicting, Weakly supported, Corrections.
`),

	Synthesize: parse(Synthesize, `Task: synthesize
Write a research report in Markdown answering the brief, using only the evidence below. Cite sources inline as [Source: URL]. Use the fact-check notes to hedge weak or conflicting claims.

Research brief:
{{.Brief}}

Sub-queries:
{{range .Subqueries}}{{.ID}}. {{.Query}}
{{end}}
Evidence:
{{range .Indexes}}### {{.Subquery}}
{{range .Summaries}}- {{.Analysis.SummaryText}} {{.Citation}}
{{end}}
{{end}}
Fact-check notes:
{{.FactCheck}}

Structure: title, executive summary, one section per sub-query, conclusion.
`),

	Review: parse(Review, `Task: review
Review the draft report against the sub-queries and evidence. Produce the final version of the report with clarity and structure fixed, unsupported claims hedged or removed, and citations preserved. List remaining gaps.

Sub-queries:
{{range .Subqueries}}{{.ID}}. {{.Query}}
{{end}}
Fact-check notes:
{{.FactCheck}}

Draft report:
{{.Draft}}

Respond with a JSON object: {"final_paper": "<markdown>", "gaps": [{"subquery_id": 1, "category": "coverage|evidence|citation|clarity", "severity": "minor|moderate|major", "description": "...", "suggested_query": "..."}]}. Do not include any text outside the JSON object.
`),
}

func parse(name, text string) *template.Template {
	return template.Must(template.New(name).Parse(text))
}

// Render executes the named prompt with data, which must expose the fields
// the template uses.
func Render(name string, data any) (string, error) {
	tmpl, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt %s: %w", name, err)
	}
	return buf.String(), nil
}
