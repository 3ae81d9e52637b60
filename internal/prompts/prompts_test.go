// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akshath47/deep-research/pkg/types"
)

func TestRenderEveryPrompt(t *testing.T) {
	subs := []types.SubQuery{{ID: 1, Query: "What is X?", Priority: types.PriorityHigh, Freshness: types.FreshnessAny}}
	summaries := []types.Summary{{Subquery: "What is X?", Citation: "[Source: https://x.example]", Analysis: types.SummaryAnalysis{SummaryText: "X is Y."}}}

	tests := []struct {
		name string
		data any
		want []string
	}{
		{ClarifyQuestions, QuestionsData{Query: "Tell me about X", MaxQuestions: 3}, []string{"Tell me about X", "at most 3"}},
		{ClarifyBrief, BriefData{Query: "X", Answers: []QA{{Question: "Scope?", Answer: "Europe"}}}, []string{"Q: Scope?", "A: Europe"}},
		{Decompose, DecomposeData{Brief: "brief text", Min: 3, Max: 7}, []string{"3 to 7", "brief text"}},
		{Strategize, StrategizeData{Subqueries: subs}, []string{"1. [high/any] What is X?"}},
		{Summarize, SummarizeData{Subquery: "What is X?", Raw: "URL: https://x.example"}, []string{"URL: https://x.example"}},
		{FactCheck, FactCheckData{Brief: "b", Summaries: summaries, Failures: []string{"sub-query 2"}}, []string{"X is Y.", "sub-query 2"}},
		{Synthesize, SynthesizeData{Brief: "b", Subqueries: subs, Indexes: []types.SummaryIndex{{Subquery: "What is X?", Summaries: summaries}}, FactCheck: "notes"}, []string{"### What is X?", "[Source: https://x.example]", "notes"}},
		{Review, ReviewData{Subqueries: subs, FactCheck: "notes", Draft: "# Draft"}, []string{"# Draft", "final_paper"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Render(tt.name, tt.data)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(out, "Task: "+tt.name+"\n"))
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestRenderUnknown(t *testing.T) {
	_, err := Render("nope", nil)
	assert.Error(t, err)
}

func TestRenderWrongData(t *testing.T) {
	_, err := Render(Decompose, struct{}{})
	assert.Error(t, err)
}
