// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Akshath47/deep-research/internal/llm"
	"github.com/Akshath47/deep-research/internal/pipeline"
	"github.com/Akshath47/deep-research/internal/search"
	"github.com/Akshath47/deep-research/pkg/types"
)

// newSearchProvider builds the provider chain for cfg: the selected
// backends, then the rate limiter, then the optional Redis cache, so cache
// hits never wait for a token. The returned cleanup closes the Redis client.
func newSearchProvider(cfg types.SearchConfig, logger *zap.Logger) (search.Provider, func(), error) {
	client := &http.Client{Timeout: cfg.Timeout}

	var providers []search.Provider
	if cfg.Provider == types.ProviderTavily || cfg.Provider == types.ProviderBoth {
		if cfg.TavilyAPIKey == "" {
			return nil, nil, errors.New("tavily API key not set: use TAVILY_API_KEY, search.tavily_api_key, or .secrets/tavily-api-key")
		}
		providers = append(providers, &search.TavilyProvider{
			APIKey:    cfg.TavilyAPIKey,
			UserAgent: cfg.UserAgent,
			Client:    client,
			Logger:    logger.Named("tavily"),
		})
	}
	if cfg.Provider == types.ProviderArxiv || cfg.Provider == types.ProviderBoth {
		providers = append(providers, &search.ArxivProvider{UserAgent: cfg.UserAgent, Client: client})
	}

	var p search.Provider = providers[0]
	if len(providers) > 1 {
		p = &search.MultiProvider{Providers: providers, Logger: logger.Named("multi")}
	}

	p = search.NewRateLimitedProvider(p, cfg.RequestsPerSecond, cfg.Burst)

	cleanup := func() {}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		p = search.NewCachedProvider(p, rdb, cfg.CacheTTL, logger.Named("cache"))
		cleanup = func() { _ = rdb.Close() }
	}
	return p, cleanup, nil
}

// newLLM builds the model client for the configured backend.
func newLLM(ctx context.Context, cfg types.AIConfig, logger *zap.Logger) (llm.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key not set", cfg.Backend)
	}
	switch cfg.Backend {
	case types.LLMGemini:
		g, err := llm.NewGeminiClient(ctx, cfg.APIKey, cfg.Model, "", cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return &llm.ClaudeClient{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Client:    &http.Client{Timeout: types.DefaultHTTPTimeout * 5},
			Logger:    logger.Named("claude"),
		}, nil
	}
}

// promptAnswerer asks clarifying questions on a terminal. An empty line
// skips a question; end of input ends the exchange.
type promptAnswerer struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptAnswerer(in io.Reader, out io.Writer) *promptAnswerer {
	return &promptAnswerer{in: bufio.NewReader(in), out: out}
}

func (a *promptAnswerer) Answer(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprintf(a.out, "\n%s\n> ", question)
	line, err := a.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// progressObserver prints one line per finished state.
func progressObserver(w io.Writer) pipeline.Observer {
	total := len(pipeline.States) - 1
	step := 0
	return pipeline.ObserverFunc(func(e pipeline.Event) {
		switch {
		case e.State == pipeline.Done:
			fmt.Fprintf(w, "run %s done (%d files)\n", e.RunID, e.Files)
		case e.Phase == pipeline.PhaseStarted:
			step++
			fmt.Fprintf(w, "[%d/%d] %s ...\n", step, total, e.State)
		case e.Err != nil:
			fmt.Fprintf(w, "[%d/%d] %s failed after %s: %v\n", step, total, e.State, e.Duration.Round(time.Millisecond), e.Err)
		default:
			fmt.Fprintf(w, "[%d/%d] %s ok (%s)\n", step, total, e.State, e.Duration.Round(time.Millisecond))
		}
	})
}
