// Package app assembles a chat session from the application config.
package app

import (
	"fmt"
	"strings"

	"resumechat/internal/answer"
	"resumechat/internal/chunker"
	"resumechat/internal/config"
	"resumechat/internal/conversation"
	"resumechat/internal/document"
	"resumechat/internal/domain"
	"resumechat/internal/embedding"
	lcembed "resumechat/internal/embedding/langchain"
	"resumechat/internal/embedding/openai"
	"resumechat/internal/embedding/tfidf"
	"resumechat/internal/generation"
	lcgen "resumechat/internal/generation/langchain"
	oaigen "resumechat/internal/generation/openai"
	"resumechat/internal/prompt"
	"resumechat/internal/service"
	"resumechat/internal/summarizer"
	"resumechat/internal/vectorstore/chromem"
	"resumechat/internal/vectorstore/memory"
)

// Build wires the components selected by cfg. cfg is expected to be validated.
func Build(cfg *config.AppConfig) (service.Deps, service.Options, error) {
	ch, err := chunker.New(chunker.Options{
		Type:              cfg.Chunker.Type,
		Size:              cfg.Chunker.Size,
		Overlap:           cfg.Chunker.Overlap,
		SentencesPerChunk: cfg.Chunker.SentencesPerChunk,
		OverlapSentences:  cfg.Chunker.OverlapSentences,
		Marker:            cfg.Chunker.Marker,
		MinLength:         cfg.Chunker.MinLength,
	})
	if err != nil {
		return service.Deps{}, service.Options{}, err
	}

	svc, err := newEmbeddingService(cfg)
	if err != nil {
		return service.Deps{}, service.Options{}, err
	}
	extractor := embedding.NewExtractor(svc,
		embedding.WithDimension(cfg.Embedder.Dimension),
		embedding.WithCacheSize(cfg.Embedder.CacheSize),
	)

	store, err := newStore(cfg)
	if err != nil {
		return service.Deps{}, service.Options{}, err
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		return service.Deps{}, service.Options{}, err
	}

	deps := service.Deps{
		Source:    document.New(cfg.Document.Location),
		Location:  cfg.Document.Location,
		Chunker:   ch,
		Embedder:  extractor,
		Store:     store,
		Generator: gen,
		Prompt:    prompt.NewBuilder(cfg.Prompt.Owner),
		Memory:    conversation.NewMemory(cfg.Memory.Turns),
		Answer:    answer.NewExtractor(cfg.Retrieval.MinAnswerLength),
	}
	if cfg.Summarizer.Type == "frequency" {
		deps.Summarizer = summarizer.NewFrequencySummarizer()
	}

	opts := service.Options{
		TopK:             cfg.Retrieval.TopK,
		Concurrency:      cfg.Embedder.Concurrency,
		SummarySentences: cfg.Summarizer.MaxSentences,
		Generation: generation.Options{
			MaxTokens:   cfg.Generator.MaxTokens,
			Temperature: cfg.Generator.Temperature,
			Stream:      !cfg.Generator.DisableStream,
		},
		Timeout: cfg.Generator.Timeout(),
	}
	return deps, opts, nil
}

func newEmbeddingService(cfg *config.AppConfig) (embedding.Service, error) {
	r := cfg.EmbedderRemote()
	switch cfg.Embedder.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	case "openai":
		return openai.NewClient(openai.Config{
			BaseURL:    r.BaseURL,
			APIKeyEnv:  r.APIKeyEnv,
			Model:      r.Model,
			Timeout:    r.Timeout(),
			AllowNoKey: !strings.Contains(r.BaseURL, "openai.com"),
		})
	case "langchain-openai":
		return lcembed.NewOpenAI(r.BaseURL, r.APIKey(), r.Model)
	case "ollama":
		return lcembed.NewOllama(r.BaseURL, r.Model)
	}
	return nil, fmt.Errorf("%w: unknown embedder %q", domain.ErrConfiguration, cfg.Embedder.Type)
}

func newStore(cfg *config.AppConfig) (domain.VectorStore, error) {
	switch cfg.VectorStore.Type {
	case "memory", "":
		return memory.NewStorage(), nil
	case "chromem":
		return chromem.NewStorage(cfg.VectorStore.Collection), nil
	}
	return nil, fmt.Errorf("%w: unknown vector store %q", domain.ErrConfiguration, cfg.VectorStore.Type)
}

func newGenerator(cfg *config.AppConfig) (generation.Generator, error) {
	r := cfg.GeneratorRemote()
	if r == nil {
		return nil, fmt.Errorf("%w: generator %q has no connection settings", domain.ErrConfiguration, cfg.Generator.Type)
	}
	switch cfg.Generator.Type {
	case "ollama":
		return lcgen.NewOllama(r.BaseURL, r.Model)
	case "langchain-openai":
		return lcgen.NewOpenAI(r.BaseURL, r.APIKey(), r.Model)
	case "openai":
		return oaigen.New(oaigen.Config{APIKey: r.APIKey(), BaseURL: r.BaseURL, Model: r.Model})
	}
	return nil, fmt.Errorf("%w: unknown generator %q", domain.ErrConfiguration, cfg.Generator.Type)
}
