package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"google.golang.org/genai"
)

// Gemini provides an implementation of the LLM interface backed by Google's Gemini API.
type Gemini struct {
	model        string
	systemPrompt string

	params LLMParameters

	client *genai.Client

	logger *slog.Logger
}

// NewGemini creates a Gemini instance using the Gemini API backend with the given API key. An empty
// baseURL keeps Google's endpoint.
func NewGemini(
	ctx context.Context,
	apiKey, baseURL, model, systemPrompt string,
	params LLMParameters,
	logger *slog.Logger,
) (Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions.BaseURL = baseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return Gemini{}, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return Gemini{
		model:        model,
		systemPrompt: systemPrompt,
		params:       params,
		client:       client,
		logger:       logger.With(slog.String("module", "gemini")),
	}, nil
}

// Generate streams the completion of prompt from Gemini, yielding the text of every response chunk.
func (g Gemini) Generate(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, genai.Text(prompt), g.config()) {
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				yield("", fmt.Errorf("error receiving response: %w", err))
				return
			}
			if resp == nil {
				continue
			}

			text := resp.Text()
			if text == "" {
				g.logger.Debug("Chunk without text", slog.Int("candidates", len(resp.Candidates)))
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

func (g Gemini) config() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: g.params.Temperature,
		TopP:        g.params.TopP,
	}
	if g.params.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*g.params.MaxTokens)
	}
	if g.systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(g.systemPrompt, genai.RoleUser)
	}
	return cfg
}
