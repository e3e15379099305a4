// Package langchain answers prompts with a langchaingo model (Ollama or an
// OpenAI-compatible endpoint).
package langchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"resumechat/internal/domain"
	"resumechat/internal/generation"
)

// Generator wraps an llms.Model.
type Generator struct {
	name string
	llm  llms.Model
}

func New(name string, llm llms.Model) *Generator {
	return &Generator{name: name, llm: llm}
}

// NewOllama connects to a local Ollama server.
func NewOllama(serverURL, model string) (*Generator, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init ollama: %w", err)
	}
	return New("ollama", llm), nil
}

// NewOpenAI connects to an OpenAI-compatible chat endpoint.
func NewOpenAI(baseURL, token, model string) (*Generator, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(token, "Bearer ")),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init openai: %w", err)
	}
	return New("langchain-openai", llm), nil
}

func (g *Generator) Name() string { return g.name }

// Generate sends prompt as a single human message. With opts.Stream the
// model's streaming callback feeds the delta channel; models that never call
// it still deliver their full text as one delta.
func (g *Generator) Generate(ctx context.Context, prompt string, opts generation.Options) (*generation.Response, error) {
	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	log.Debug().Str("generator", g.name).Int("prompt_len", len(prompt)).Bool("stream", opts.Stream).Msg("generating")

	if !opts.Stream {
		text, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, callOpts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrGeneration, g.name, err)
		}
		return &generation.Response{Text: text}, nil
	}

	return generation.Stream(ctx, func(ctx context.Context, emit func(string) error) error {
		streamed := false
		streaming := llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			streamed = true
			return emit(string(chunk))
		})
		text, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, append(callOpts, streaming)...)
		if err != nil {
			return err
		}
		if !streamed && text != "" {
			return emit(text)
		}
		return nil
	}), nil
}
