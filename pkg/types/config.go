// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by collaborators that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "deep-research/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchProviderName selects which search backends are queried.
type SearchProviderName string

const (
	ProviderTavily SearchProviderName = "tavily"
	ProviderArxiv  SearchProviderName = "arxiv"
	ProviderBoth   SearchProviderName = "both"
)

// SearchConfig holds settings for the web search collaborator.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider selects tavily, arxiv, or both (default tavily).
	Provider SearchProviderName `json:"provider" yaml:"provider"`

	// TavilyAPIKey authenticates against the Tavily search API.
	TavilyAPIKey string `json:"tavily_api_key,omitempty" yaml:"tavily_api_key,omitempty"`

	// IncludeRawContent asks the provider for full page text.
	IncludeRawContent bool `json:"include_raw_content" yaml:"include_raw_content"`

	// RequestsPerSecond throttles provider calls; zero disables throttling.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// Burst is the token bucket size used with RequestsPerSecond (default 1).
	Burst int `json:"burst" yaml:"burst"`

	// RedisAddr enables the response cache when non-empty.
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`

	// CacheTTL is how long cached responses live (default 24h).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// ResearchConfig holds settings for the parallel research stage.
type ResearchConfig struct {
	// Concurrency bounds how many research tasks run at once (default 2).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// MaxResults is the per-task result cap used when a strategy has none (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MinScore drops results scoring below it (default 0.2, inclusive).
	// Nil selects the default; zero keeps every result.
	MinScore *float64 `json:"min_score,omitempty" yaml:"min_score,omitempty"`

	// MaxSearchCalls caps provider invocations per task, retries included (default 12).
	MaxSearchCalls int `json:"max_search_calls" yaml:"max_search_calls"`

	// MaxAttempts is the number of tries per provider or model call (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// PreferredBoost multiplies the score of preferred source types (default 1.2).
	PreferredBoost float64 `json:"preferred_boost" yaml:"preferred_boost"`
}

// ScoreFloor returns MinScore, or DefaultMinScore when it is unset.
func (c ResearchConfig) ScoreFloor() float64 {
	if c.MinScore == nil {
		return DefaultMinScore
	}
	return *c.MinScore
}

// LLMBackendName selects the language model provider.
type LLMBackendName string

const (
	LLMClaude LLMBackendName = "claude"
	LLMGemini LLMBackendName = "gemini"
)

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Backend selects claude or gemini (default claude).
	Backend LLMBackendName `json:"backend" yaml:"backend"`

	// Model is the default model identifier.
	Model string `json:"model" yaml:"model"`

	// Models overrides Model per stage (clarifier, decomposer, strategist,
	// summarizer, factchecker, synthesizer, reviewer).
	Models map[string]string `json:"models,omitempty" yaml:"models,omitempty"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens bounds each completion (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// ModelFor returns the model configured for stage, falling back to Model.
func (c AIConfig) ModelFor(stage string) string {
	if m, ok := c.Models[stage]; ok && m != "" {
		return m
	}
	return c.Model
}

// ArchiveConfig holds settings for the run archive.
type ArchiveConfig struct {
	// Dir holds the SQLite database and exports (default "archive").
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default number of search hits (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// LoggingConfig selects the zap logger configuration.
type LoggingConfig struct {
	// Level is debug, info, warn, or error (default info).
	Level string `json:"level" yaml:"level"`

	// Format is console or json (default console).
	Format string `json:"format" yaml:"format"`
}

// StageConfig holds settings for the single-shot stages.
type StageConfig struct {
	// MaxSubqueries caps the decomposer output (default 7).
	MaxSubqueries int `json:"max_subqueries" yaml:"max_subqueries"`

	// MaxClarifyingQuestions caps interactive questions (default 3).
	MaxClarifyingQuestions int `json:"max_clarifying_questions" yaml:"max_clarifying_questions"`
}

// PipelineConfig groups all configuration for one pipeline run.
type PipelineConfig struct {
	Search   SearchConfig   `json:"search" yaml:"search"`
	Research ResearchConfig `json:"research" yaml:"research"`
	AI       AIConfig       `json:"ai" yaml:"ai"`
	Stages   StageConfig    `json:"stages" yaml:"stages"`
	Archive  ArchiveConfig  `json:"archive" yaml:"archive"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

// Default configuration values.
const (
	DefaultConcurrency    = 2
	DefaultMaxResults     = 5
	DefaultMinScore       = 0.2
	DefaultMaxSearchCalls = 12
	DefaultMaxAttempts    = 3
	DefaultPreferredBoost = 1.2
	DefaultMaxSubqueries  = 7
	DefaultMaxQuestions   = 3
	DefaultMaxTokens      = 4096
	DefaultClaudeModel    = "claude-sonnet-4-5-20250929"
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultArchiveDir     = "archive"
	DefaultArchiveResults = 20
	DefaultCacheTTL       = 24 * time.Hour
	DefaultHTTPTimeout    = 60 * time.Second
	DefaultUserAgent      = "deep-research/0.1"
)

// Defaults returns a PipelineConfig with every default applied.
func Defaults() PipelineConfig {
	var c PipelineConfig
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *PipelineConfig) ApplyDefaults() {
	if c.Search.Provider == "" {
		c.Search.Provider = ProviderTavily
	}
	if c.Search.Timeout <= 0 {
		c.Search.Timeout = DefaultHTTPTimeout
	}
	if c.Search.UserAgent == "" {
		c.Search.UserAgent = DefaultUserAgent
	}
	if c.Search.Burst <= 0 {
		c.Search.Burst = 1
	}
	if c.Search.CacheTTL <= 0 {
		c.Search.CacheTTL = DefaultCacheTTL
	}
	if c.Research.Concurrency <= 0 {
		c.Research.Concurrency = DefaultConcurrency
	}
	if c.Research.MaxResults <= 0 {
		c.Research.MaxResults = DefaultMaxResults
	}
	if c.Research.MinScore == nil {
		score := DefaultMinScore
		c.Research.MinScore = &score
	}
	if c.Research.MaxSearchCalls <= 0 {
		c.Research.MaxSearchCalls = DefaultMaxSearchCalls
	}
	if c.Research.MaxAttempts <= 0 {
		c.Research.MaxAttempts = DefaultMaxAttempts
	}
	if c.Research.PreferredBoost <= 0 {
		c.Research.PreferredBoost = DefaultPreferredBoost
	}
	if c.AI.Backend == "" {
		c.AI.Backend = LLMClaude
	}
	if c.AI.Model == "" {
		if c.AI.Backend == LLMGemini {
			c.AI.Model = DefaultGeminiModel
		} else {
			c.AI.Model = DefaultClaudeModel
		}
	}
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = DefaultMaxTokens
	}
	if c.Stages.MaxSubqueries <= 0 {
		c.Stages.MaxSubqueries = DefaultMaxSubqueries
	}
	if c.Stages.MaxClarifyingQuestions <= 0 {
		c.Stages.MaxClarifyingQuestions = DefaultMaxQuestions
	}
	if c.Archive.Dir == "" {
		c.Archive.Dir = DefaultArchiveDir
	}
	if c.Archive.MaxResults <= 0 {
		c.Archive.MaxResults = DefaultArchiveResults
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}
