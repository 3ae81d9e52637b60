// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"go.uber.org/zap"

	"github.com/Akshath47/deep-research/internal/llm"
	"github.com/Akshath47/deep-research/internal/research"
	"github.com/Akshath47/deep-research/internal/search"
	"github.com/Akshath47/deep-research/internal/stages"
	"github.com/Akshath47/deep-research/pkg/types"
)

// Deps are the collaborators a Driver is assembled from.
type Deps struct {
	LLM      llm.Client
	Search   search.Provider
	Answerer stages.Answerer
	Metrics  *research.Metrics
	Observer Observer
	Logger   *zap.Logger
}

// NewHub assembles the Researching step from cfg.
func NewHub(cfg types.PipelineConfig, deps Deps) *research.Hub {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runner := &research.Runner{
		Searcher: &research.Searcher{
			Provider:          deps.Search,
			Config:            cfg.Research,
			IncludeRawContent: cfg.Search.IncludeRawContent,
			Metrics:           deps.Metrics,
			Logger:            logger.Named("search"),
		},
		Summarizer: &research.Summarizer{
			LLM:         deps.LLM,
			Model:       cfg.AI.ModelFor("summarizer"),
			MaxTokens:   cfg.AI.MaxTokens,
			MaxAttempts: cfg.Research.MaxAttempts,
			Metrics:     deps.Metrics,
			Logger:      logger.Named("summarize"),
		},
		Metrics: deps.Metrics,
		Logger:  logger.Named("task"),
	}
	return &research.Hub{
		Scheduler: research.NewScheduler(runner, cfg.Research.Concurrency, deps.Metrics, logger.Named("scheduler")),
		Config:    cfg.Research,
		Logger:    logger.Named("research"),
	}
}

// New assembles a Driver with every stage wired from cfg and deps.
func New(cfg types.PipelineConfig, deps Deps) *Driver {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	env := stages.Env{
		LLM:      deps.LLM,
		AI:       cfg.AI,
		Research: cfg.Research,
		Stages:   cfg.Stages,
		Logger:   logger.Named("stage"),
	}
	return &Driver{
		Clarify:    &stages.Clarifier{Env: env, Answerer: deps.Answerer},
		Decompose:  &stages.Decomposer{Env: env},
		Strategize: &stages.Strategist{Env: env},
		Research:   NewHub(cfg, deps),
		FactCheck:  &stages.FactChecker{Env: env},
		Synthesize: &stages.Synthesizer{Env: env},
		Review:     &stages.Reviewer{Env: env},
		Observer:   deps.Observer,
		Logger:     logger,
	}
}
