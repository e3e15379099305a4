// Package langchain adapts langchaingo embedders (Ollama or any
// OpenAI-compatible endpoint) to the embedding.Service contract.
package langchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Service wraps a langchaingo embedder. Results are returned as the
// []float32 rows langchaingo produces; the extractor widens them.
type Service struct {
	name     string
	embedder embeddings.Embedder
}

// New wraps an existing embedder under the given name.
func New(name string, e embeddings.Embedder) *Service {
	return &Service{name: name, embedder: e}
}

// NewOllama builds an embedder for a local Ollama server.
func NewOllama(serverURL, model string) (*Service, error) {
	log.Debug().Str("base_url", serverURL).Str("model", model).Msg("creating ollama embedder")
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init ollama: %w", err)
	}
	e, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create ollama embedder: %w", err)
	}
	return New("ollama", e), nil
}

// NewOpenAI builds an embedder for an OpenAI-compatible endpoint.
func NewOpenAI(baseURL, token, model string) (*Service, error) {
	log.Debug().Str("base_url", baseURL).Str("model", model).Msg("creating openai embedder")
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(token, "Bearer ")),
		openai.WithEmbeddingModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init openai: %w", err)
	}
	e, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create openai embedder: %w", err)
	}
	return New("langchain-openai", e), nil
}

// Name returns the identifier of this embedder implementation.
func (s *Service) Name() string { return s.name }

// Prepare is not required for remote embedding.
func (s *Service) Prepare([]string) error { return nil }

// Embed embeds a single text.
func (s *Service) Embed(ctx context.Context, text string) (any, error) {
	v, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// EmbedBatch embeds the texts with one EmbedDocuments call.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([]any, error) {
	rows, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(texts))
	for i := 0; i < len(rows) && i < len(out); i++ {
		out[i] = rows[i]
	}
	return out, nil
}
