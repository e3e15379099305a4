// Package ranking scores chunk vectors against a query vector.
package ranking

import (
	"math"
	"sort"
)

// DefaultTopK is the number of chunks retrieved when no limit is given.
const DefaultTopK = 3

// Cosine returns dot(a,b) / (|a| * |b|). Empty, mismatched, zero-norm or
// non-finite input scores exactly 0 so that ranking stays total.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	s := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	// rounding can push |s| slightly past 1
	return math.Max(-1, math.Min(1, s))
}

// Scores computes the cosine of query against every vector, in order.
func Scores(query []float64, vectors [][]float64) []float64 {
	scores := make([]float64, len(vectors))
	for i, v := range vectors {
		scores[i] = Cosine(query, v)
	}
	return scores
}

// TopK returns the indexes of the k highest scores, best first. Equal scores
// keep their original order. k <= 0 means DefaultTopK.
func TopK(scores []float64, k int) []int {
	if k <= 0 {
		k = DefaultTopK
	}
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool { return scores[idxs[i]] > scores[idxs[j]] })
	if k > len(idxs) {
		k = len(idxs)
	}
	return idxs[:k]
}
