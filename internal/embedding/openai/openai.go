package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Client is an OpenAI-compatible embeddings client. It also understands the
// Ollama native responses, so it can point at a local Ollama server.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	client     *http.Client
	maxRetries int
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
	// AllowNoKey permits servers that do not authenticate, e.g. Ollama.
	AllowNoKey bool
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" && !cfg.AllowNoKey {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     key,
		model:      cfg.Model,
		client:     &http.Client{Timeout: t},
		maxRetries: 5,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Prepare is not required for remote embedding.
func (c *Client) Prepare(corpus []string) error { return nil }

// Embed returns the raw rows for text: one row for the OpenAI shape
// {"data":[{"embedding":[...]}]} or Ollama's {"embeddings":[[...]]}, and a
// flat vector for the legacy Ollama {"embedding":[...]}.
func (c *Client) Embed(ctx context.Context, text string) (any, error) {
	payload, err := c.post(ctx, map[string]any{"input": text, "prompt": text, "model": c.model})
	if err != nil {
		return nil, err
	}
	return decode(payload)
}

// EmbedBatch sends all texts in one request and returns one result per text.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([]any, error) {
	payload, err := c.post(ctx, map[string]any{"input": texts, "model": c.model})
	if err != nil {
		return nil, err
	}
	var out struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
		Embeddings [][]float64 `json:"embeddings"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode embeddings: %w", err)
	}
	results := make([]any, len(texts))
	switch {
	case len(out.Data) > 0:
		for _, d := range out.Data {
			if d.Index >= 0 && d.Index < len(results) {
				results[d.Index] = d.Embedding
			}
		}
	case len(out.Embeddings) > 0:
		for i := 0; i < len(out.Embeddings) && i < len(results); i++ {
			results[i] = out.Embeddings[i]
		}
	default:
		return nil, errors.New("no embedding returned")
	}
	return results, nil
}

func decode(payload []byte) (any, error) {
	var out struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
		Embeddings [][]float64 `json:"embeddings"`
		Embedding  []float64   `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode embeddings: %w", err)
	}
	switch {
	case len(out.Data) > 0:
		rows := make([][]float64, len(out.Data))
		for i, d := range out.Data {
			rows[i] = d.Embedding
		}
		return rows, nil
	case len(out.Embeddings) > 0:
		return out.Embeddings, nil
	case len(out.Embedding) > 0:
		return out.Embedding, nil
	}
	// let the extractor report the empty result
	return nil, nil
}

func (c *Client) post(ctx context.Context, body map[string]any) ([]byte, error) {
	url := fmt.Sprintf("%s/embeddings", c.baseURL)
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if attempt < c.maxRetries && ctx.Err() == nil {
				c.sleep(ctx, retryDelay(attempt))
				continue
			}
			return nil, err
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			if attempt >= c.maxRetries {
				return nil, fmt.Errorf("openai embeddings failed: %s", resp.Status)
			}
			delay := retryDelay(attempt)
			// Respect Retry-After if provided
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
				delay = time.Duration(secs) * time.Second
			}
			log.Debug().Int("attempt", attempt).Str("status", resp.Status).Dur("delay", delay).Msg("retrying embeddings request")
			c.sleep(ctx, delay)
			continue
		}
		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("openai embeddings failed: %s", resp.Status)
		}
		if err != nil {
			return nil, err
		}
		return payload, nil
	}
}

func (c *Client) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
