package store

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/mellowtone/tunescout/plugin/ai"
	"github.com/mellowtone/tunescout/plugin/ai/timeout"
	"github.com/mellowtone/tunescout/server/retrieval"
)

// MemoryIndex is an in-process cosine-similarity index over the song
// corpus. It embeds every document once at build time and answers searches
// without external storage, which also makes it the test-friendly backend.
type MemoryIndex struct {
	embedder ai.EmbeddingService
	docs     []retrieval.Document
	vectors  [][]float32
}

// NewMemoryIndex builds an index by embedding every document.
func NewMemoryIndex(ctx context.Context, embedder ai.EmbeddingService, docs []retrieval.Document) (*MemoryIndex, error) {
	idx := &MemoryIndex{embedder: embedder}
	if len(docs) == 0 {
		return idx, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.EmbeddingTimeout)
	defer cancel()

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed corpus")
	}

	idx.docs = append([]retrieval.Document(nil), docs...)
	idx.vectors = vectors
	return idx, nil
}

// Len returns the number of indexed documents.
func (idx *MemoryIndex) Len() int {
	return len(idx.docs)
}

// SimilaritySearch returns the k most similar documents in descending
// similarity order.
func (idx *MemoryIndex) SimilaritySearch(ctx context.Context, query string, k int) ([]retrieval.Document, error) {
	ranked, err := idx.rank(ctx, query)
	if err != nil {
		return nil, err
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]retrieval.Document, k)
	for i := 0; i < k; i++ {
		out[i] = idx.docs[ranked[i]]
	}
	return out, nil
}

// MMRSearch selects k documents from the fetchK most similar candidates by
// maximal marginal relevance, avoiding near-duplicate or single-decade
// clusters in the result.
func (idx *MemoryIndex) MMRSearch(ctx context.Context, query string, k, fetchK int) ([]retrieval.Document, error) {
	queryVec, err := idx.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	ranked := idx.rankByVector(queryVec)
	if fetchK > len(ranked) {
		fetchK = len(ranked)
	}
	pool := ranked[:fetchK]

	poolVectors := make([][]float32, len(pool))
	for i, docIdx := range pool {
		poolVectors[i] = idx.vectors[docIdx]
	}

	out := make([]retrieval.Document, 0, k)
	for _, poolIdx := range mmrSelect(queryVec, poolVectors, k) {
		out = append(out, idx.docs[pool[poolIdx]])
	}
	return out, nil
}

func (idx *MemoryIndex) embedQuery(ctx context.Context, query string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout.EmbeddingTimeout)
	defer cancel()

	queryVec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed query")
	}
	return queryVec, nil
}

func (idx *MemoryIndex) rank(ctx context.Context, query string) ([]int, error) {
	queryVec, err := idx.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return idx.rankByVector(queryVec), nil
}

func (idx *MemoryIndex) rankByVector(queryVec []float32) []int {
	order := make([]int, len(idx.docs))
	scores := make([]float32, len(idx.docs))
	for i := range idx.docs {
		order[i] = i
		scores[i] = cosineSimilarity(queryVec, idx.vectors[i])
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order
}
