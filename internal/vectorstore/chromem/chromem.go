// Package chromem keeps chunk vectors in an in-process chromem-go collection.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"resumechat/internal/domain"
	"resumechat/internal/ranking"
)

const defaultCollection = "resume"

// Storage implements domain.VectorStore on top of a non-persistent chromem DB.
// chromem computes the similarities; ordering and the zero-score policy for
// rejected chunks follow the ranking package so both stores rank alike.
type Storage struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	dimension  int
	chunks     []domain.Chunk
	position   map[string]int
}

func NewStorage(collection string) *Storage {
	if collection == "" {
		collection = defaultCollection
	}
	return &Storage{db: chromem.NewDB(), name: collection}
}

// vectors are always supplied by the caller
func noEmbedding(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("chromem store does not embed text itself")
}

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.db.DeleteCollection(s.name)
	c, err := s.db.GetOrCreateCollection(s.name, nil, noEmbedding)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %w", err)
	}
	s.collection = c
	s.dimension = dimension
	s.chunks = nil
	s.position = make(map[string]int)
	return nil
}

func (s *Storage) Upsert(chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection == nil {
		return errors.New("collection is not initialized")
	}
	base := len(s.chunks)
	docs := make([]chromem.Document, 0, len(chunks))
	for i, ch := range chunks {
		v := vectors[i]
		if v == nil {
			// kept for ranking, never sent to chromem
			continue
		}
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
		if !s.usable(v) {
			// chromem would normalize a zero vector into NaN; the chunk scores 0
			log.Debug().Int("chunk", ch.Index).Msg("degenerate chunk vector kept out of chromem")
			continue
		}
		docs = append(docs, chromem.Document{
			ID:        s.id(ch, base+i),
			Content:   ch.Text,
			Metadata:  map[string]string{"index": strconv.Itoa(ch.Index)},
			Embedding: toFloat32(v),
		})
	}
	if len(docs) > 0 {
		if err := s.collection.AddDocuments(context.Background(), docs, runtime.NumCPU()); err != nil {
			return fmt.Errorf("failed to add documents: %w", err)
		}
	}
	for i, ch := range chunks {
		s.position[s.id(ch, base+i)] = base + i
	}
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *Storage) id(ch domain.Chunk, pos int) string {
	if ch.ChunkID != "" {
		return ch.ChunkID
	}
	return "chunk:" + strconv.Itoa(pos)
}

func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scores := make([]float64, len(s.chunks))
	n := 0
	if s.collection != nil {
		n = s.collection.Count()
	}
	if n > 0 && s.usable(vector) {
		res, err := s.collection.QueryEmbedding(context.Background(), toFloat32(vector), n, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to query by similarity: %w", err)
		}
		for _, r := range res {
			pos, ok := s.position[r.ID]
			sim := float64(r.Similarity)
			if !ok || math.IsNaN(sim) || math.IsInf(sim, 0) {
				continue
			}
			scores[pos] = math.Max(-1, math.Min(1, sim))
		}
	} else if n > 0 {
		log.Debug().Int("dimension", len(vector)).Msg("degenerate query vector, all chunks score 0")
	}
	idxs := ranking.TopK(scores, topK)
	out := make([]domain.SearchResult, 0, len(idxs))
	for _, j := range idxs {
		out = append(out, domain.SearchResult{Chunk: s.chunks[j], Score: scores[j]})
	}
	return out, nil
}

// usable reports whether chromem can score vector without producing NaN:
// the session dimension, finite values and a non-zero norm.
func (s *Storage) usable(vector []float64) bool {
	if len(vector) != s.dimension {
		return false
	}
	var norm float64
	for _, x := range vector {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
		norm += x * x
	}
	return norm > 0
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection != nil {
		if err := s.db.DeleteCollection(s.name); err != nil {
			return fmt.Errorf("failed to drop collection: %w", err)
		}
	}
	c, err := s.db.GetOrCreateCollection(s.name, nil, noEmbedding)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %w", err)
	}
	s.collection = c
	s.chunks = nil
	s.position = make(map[string]int)
	return nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
