// Package openai answers prompts with the official OpenAI Go SDK, streaming
// chat completion deltas.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"resumechat/internal/domain"
	"resumechat/internal/generation"
)

// Config holds configuration for the OpenAI generator.
type Config struct {
	APIKey  string
	BaseURL string // Optional custom endpoint
	Model   string
	// MaxRetries overrides the SDK retry count when > 0.
	MaxRetries int
}

// Generator implements generation.Generator on chat completions.
type Generator struct {
	client *openai.Client
	model  string
}

func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: api key is required for openai", domain.ErrConfiguration)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model is required for openai", domain.ErrConfiguration)
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	client := openai.NewClient(opts...)
	return &Generator{client: &client, model: cfg.Model}, nil
}

func (g *Generator) Name() string { return "openai" }

func (g *Generator) Generate(ctx context.Context, prompt string, opts generation.Options) (*generation.Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(g.model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}

	if !opts.Stream {
		resp, err := g.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("%w: openai request failed: %w", domain.ErrGeneration, err)
		}
		if len(resp.Choices) == 0 {
			return &generation.Response{}, nil
		}
		return &generation.Response{Text: resp.Choices[0].Message.Content}, nil
	}

	return generation.Stream(ctx, func(ctx context.Context, emit func(string) error) error {
		stream := g.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if err := emit(chunk.Choices[0].Delta.Content); err != nil {
				return err
			}
		}
		return stream.Err()
	}), nil
}
