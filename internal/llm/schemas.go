// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

// Schemas for every structured response the pipeline requests.
var (
	SummaryAnalysisSchema = MustSchema("summary_analysis", `{
  "type": "object",
  "required": ["key_findings", "summary_text", "relevance_to_query", "source_reliability"],
  "properties": {
    "key_findings": {"type": "array", "items": {"type": "string"}},
    "main_arguments": {"type": "array", "items": {"type": "string"}},
    "data_points": {"type": "array", "items": {"type": "string"}},
    "conclusions": {"type": "array", "items": {"type": "string"}},
    "relevance_to_query": {"type": "string"},
    "source_reliability": {"type": "string"},
    "summary_text": {"type": "string", "minLength": 1},
    "extracted_url": {"type": "string"},
    "extracted_title": {"type": "string"}
  }
}`)

	SubqueriesSchema = MustSchema("subqueries", `{
  "type": "object",
  "required": ["subqueries"],
  "properties": {
    "subqueries": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["query"],
        "properties": {
          "id": {"type": "integer"},
          "query": {"type": "string", "minLength": 1},
          "priority": {"type": "string"},
          "freshness": {"type": "string"},
          "description": {"type": "string"}
        }
      }
    }
  }
}`)

	ResearchPlanSchema = MustSchema("research_plan", `{
  "type": "object",
  "required": ["strategies"],
  "properties": {
    "strategies": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["primary_terms"],
        "properties": {
          "primary_terms": {"type": "array", "items": {"type": "string"}},
          "alternative_terms": {"type": "array", "items": {"type": "string"}},
          "max_results": {"type": "integer"},
          "search_depth": {"type": "string"},
          "time_range": {"type": "string"},
          "preferred_sources": {"type": "array", "items": {"type": "string"}},
          "include_domains": {"type": "array", "items": {"type": "string"}},
          "exclude_domains": {"type": "array", "items": {"type": "string"}},
          "backup_strategy": {"type": "string"},
          "expected_sources": {"type": "integer"}
        }
      }
    }
  }
}`)

	QuestionsSchema = MustSchema("clarifying_questions", `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {"type": "array", "items": {"type": "string"}}
  }
}`)

	ReviewSchema = MustSchema("review", `{
  "type": "object",
  "required": ["final_paper", "gaps"],
  "properties": {
    "final_paper": {"type": "string", "minLength": 1},
    "gaps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["description"],
        "properties": {
          "subquery_id": {"type": "integer"},
          "category": {"type": "string"},
          "severity": {"type": "string"},
          "description": {"type": "string"},
          "suggested_query": {"type": "string"}
        }
      }
    }
  }
}`)
)
