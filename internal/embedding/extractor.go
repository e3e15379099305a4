package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultCacheSize = 256

// Extractor calls a Service and normalizes its output to vectors of one fixed
// dimension. The dimension is either configured or taken from the first
// accepted vector.
type Extractor struct {
	svc   Service
	cache *lru.Cache[string, []float64]

	mu        sync.RWMutex
	dimension int
}

// ExtractorOption customizes an Extractor.
type ExtractorOption func(*Extractor)

// WithDimension pins the expected vector length.
func WithDimension(d int) ExtractorOption {
	return func(e *Extractor) {
		if d > 0 {
			e.dimension = d
		}
	}
}

// WithCacheSize sets how many question vectors are remembered; 0 disables the cache.
func WithCacheSize(n int) ExtractorOption {
	return func(e *Extractor) {
		if n <= 0 {
			e.cache = nil
			return
		}
		c, err := lru.New[string, []float64](n)
		if err == nil {
			e.cache = c
		}
	}
}

func NewExtractor(svc Service, opts ...ExtractorOption) *Extractor {
	e := &Extractor{svc: svc}
	WithCacheSize(defaultCacheSize)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Service returns the wrapped embedding service.
func (e *Extractor) Service() Service { return e.svc }

// Dimension returns the session dimension, or 0 before the first vector.
func (e *Extractor) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dimension
}

// Embed embeds a single text, typically a question. Repeated texts are
// answered from the cache.
func (e *Extractor) Embed(ctx context.Context, text string) ([]float64, error) {
	if e.cache != nil {
		if v, ok := e.cache.Get(text); ok {
			return v, nil
		}
	}
	raw, err := e.svc.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%s embed: %w", e.svc.Name(), err)
	}
	v, err := Flatten(raw)
	if err != nil {
		return nil, err
	}
	if err := e.accept(v); err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Add(text, v)
	}
	return v, nil
}

// accept fixes the dimension on first use and rejects vectors that differ from it.
func (e *Extractor) accept(v []float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dimension == 0 {
		e.dimension = len(v)
		return nil
	}
	if len(v) != e.dimension {
		return formatError("vector has %d dimensions, session uses %d", len(v), e.dimension)
	}
	return nil
}

// Rejection records a text whose embedding could not be used.
type Rejection struct {
	Index int
	Err   error
}

// EmbedAll embeds texts in order. A text whose result is malformed gets a nil
// vector and a Rejection; service failures abort the whole call. Batch
// services are called once; others are called with at most concurrency
// requests in flight, each result written at its own index.
func (e *Extractor) EmbedAll(ctx context.Context, texts []string, concurrency int) ([][]float64, []Rejection, error) {
	raws := make([]any, len(texts))
	if b, ok := e.svc.(BatchService); ok {
		out, err := b.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, nil, fmt.Errorf("%s batch embed: %w", e.svc.Name(), err)
		}
		if len(out) != len(texts) {
			return nil, nil, formatError("batch returned %d results for %d texts", len(out), len(texts))
		}
		copy(raws, out)
	} else {
		if concurrency <= 0 {
			concurrency = 1
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for i, text := range texts {
			g.Go(func() error {
				raw, err := e.svc.Embed(gctx, text)
				if err != nil {
					return fmt.Errorf("%s embed chunk %d: %w", e.svc.Name(), i, err)
				}
				raws[i] = raw
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
	}

	vectors := make([][]float64, len(texts))
	var rejected []Rejection
	for i, raw := range raws {
		v, err := Flatten(raw)
		if err == nil {
			err = e.accept(v)
		}
		if err != nil {
			rejected = append(rejected, Rejection{Index: i, Err: err})
			log.Warn().Err(err).Int("chunk", i).Msg("chunk embedding rejected")
			continue
		}
		vectors[i] = v
	}
	if len(texts) > 0 && len(rejected) == len(texts) {
		return nil, rejected, fmt.Errorf("no chunk produced a usable embedding: %w", errors.Join(errs(rejected)...))
	}
	return vectors, rejected, nil
}

func errs(rs []Rejection) []error {
	out := make([]error, len(rs))
	for i, r := range rs {
		out[i] = r.Err
	}
	return out
}
