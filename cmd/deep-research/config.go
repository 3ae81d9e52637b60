// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Akshath47/deep-research/internal/secrets"
	"github.com/Akshath47/deep-research/pkg/types"
)

// bindFlags binds each named flag to its viper key so that flags override
// the config file and DEEP_RESEARCH_* environment variables.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		if f := flags.Lookup(name); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}

// loadPipelineConfig reads the pipeline configuration from viper and fills
// defaults. API keys fall back to the environment and the secrets directory.
func loadPipelineConfig() (types.PipelineConfig, error) {
	cfg := types.PipelineConfig{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("search.timeout"),
				UserAgent: viper.GetString("search.user_agent"),
			},
			Provider:          types.SearchProviderName(viper.GetString("search.provider")),
			TavilyAPIKey:      viper.GetString("search.tavily_api_key"),
			IncludeRawContent: viper.GetBool("search.include_raw_content"),
			RequestsPerSecond: viper.GetFloat64("search.requests_per_second"),
			Burst:             viper.GetInt("search.burst"),
			RedisAddr:         viper.GetString("search.redis_addr"),
			CacheTTL:          viper.GetDuration("search.cache_ttl"),
		},
		Research: types.ResearchConfig{
			Concurrency:    viper.GetInt("research.concurrency"),
			MaxResults:     viper.GetInt("research.max_results"),
			MaxSearchCalls: viper.GetInt("research.max_search_calls"),
			MaxAttempts:    viper.GetInt("research.max_attempts"),
			PreferredBoost: viper.GetFloat64("research.preferred_boost"),
		},
		AI: types.AIConfig{
			Backend:   types.LLMBackendName(viper.GetString("ai.backend")),
			Model:     viper.GetString("ai.model"),
			Models:    viper.GetStringMapString("ai.models"),
			APIKey:    viper.GetString("ai.api_key"),
			MaxTokens: viper.GetInt("ai.max_tokens"),
		},
		Stages: types.StageConfig{
			MaxSubqueries:          viper.GetInt("stages.max_subqueries"),
			MaxClarifyingQuestions: viper.GetInt("stages.max_clarifying_questions"),
		},
		Archive: types.ArchiveConfig{
			Dir:        viper.GetString("archive.dir"),
			MaxResults: viper.GetInt("archive.max_results"),
		},
		Logging: types.LoggingConfig{
			Level:  viper.GetString("logging.level"),
			Format: viper.GetString("logging.format"),
		},
	}
	if viper.IsSet("research.min_score") {
		score := viper.GetFloat64("research.min_score")
		cfg.Research.MinScore = &score
	}
	cfg.ApplyDefaults()

	switch cfg.Search.Provider {
	case types.ProviderTavily, types.ProviderArxiv, types.ProviderBoth:
	default:
		return cfg, fmt.Errorf("unknown search provider %q: use tavily, arxiv, or both", cfg.Search.Provider)
	}
	switch cfg.AI.Backend {
	case types.LLMClaude:
		cfg.AI.APIKey = loadedSecrets.Resolve(secrets.AnthropicKey, cfg.AI.APIKey)
	case types.LLMGemini:
		cfg.AI.APIKey = loadedSecrets.Resolve(secrets.GeminiKey, cfg.AI.APIKey)
	default:
		return cfg, fmt.Errorf("unknown llm backend %q: use claude or gemini", cfg.AI.Backend)
	}
	cfg.Search.TavilyAPIKey = loadedSecrets.Resolve(secrets.TavilyKey, cfg.Search.TavilyAPIKey)
	return cfg, nil
}
