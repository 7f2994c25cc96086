package services

import (
	"context"
	"fmt"
	"sort"

	"enterprise-docs-qa/models"
)

// Retriever answers "which chunks are closest to this query". It ensures the
// index is ready itself rather than erroring on a cold start, trading first
// query latency for availability.
type Retriever struct {
	index    *IndexManager
	embedder Embedder
	defaultK int
}

func NewRetriever(index *IndexManager, embedder Embedder, defaultK int) *Retriever {
	return &Retriever{index: index, embedder: embedder, defaultK: defaultK}
}

// Retrieve returns up to k chunks ordered by descending cosine similarity to
// the query. An empty corpus yields an empty result, never the sentinel entry.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		k = r.defaultK
	}

	if _, err := r.index.EnsureReady(ctx); err != nil {
		return nil, err
	}
	idx := r.index.snapshot()
	if idx == nil {
		return nil, fmt.Errorf("vector index unavailable")
	}
	if idx.Placeholder {
		return nil, nil
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	queryVec = l2Normalize(queryVec)

	scores := make([]float64, len(idx.Vectors))
	order := make([]int, len(idx.Vectors))
	for i, vec := range idx.Vectors {
		scores[i] = dot(vec, queryVec)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	results := make([]models.ScoredChunk, 0, k)
	for _, i := range order[:k] {
		results = append(results, models.ScoredChunk{Chunk: idx.Chunks[i], Score: scores[i]})
	}
	return results, nil
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
