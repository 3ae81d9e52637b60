// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient calls the Gemini API through the genai SDK.
type GeminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// NewGeminiClient creates a Gemini client. baseURL overrides the API
// endpoint when non-empty.
func NewGeminiClient(ctx context.Context, apiKey, model, baseURL string, maxTokens int) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating GenAI client: %w", err)
	}
	return &GeminiClient{client: client, model: model, maxTokens: maxTokens}, nil
}

// Complete sends the prompt as a single user turn.
func (g *GeminiClient) Complete(ctx context.Context, r Request) (string, error) {
	model := r.Model
	if model == "" {
		model = g.model
	}

	cfg := &genai.GenerateContentConfig{}
	if r.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(r.System, genai.RoleUser)
	}
	if r.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	maxTokens := r.MaxTokens
	if maxTokens <= 0 {
		maxTokens = g.maxTokens
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}

	contents := []*genai.Content{genai.NewContentFromText(r.Prompt, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
