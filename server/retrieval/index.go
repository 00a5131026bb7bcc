// Package retrieval implements diversified, deduplicated, filterable top-k
// song recommendation over a similarity-search index.
package retrieval

import "context"

// Metadata field names carried by indexed song documents.
const (
	MetaTitle  = "Title"
	MetaArtist = "Artist"
	MetaDecade = "Decade"
	MetaGenre  = "Genre"
	MetaMood   = "Mood"
)

// Document is a single indexed song with its searchable text and metadata.
type Document struct {
	Content  string
	Metadata map[string]string
}

// Index is the similarity-search contract the engine depends on.
// Implementations live in the store package.
type Index interface {
	// SimilaritySearch returns the k documents most relevant to the query,
	// in descending relevance order.
	SimilaritySearch(ctx context.Context, query string, k int) ([]Document, error)

	// MMRSearch returns k documents selected by maximal marginal relevance
	// from a fetchK candidate pool, trading relevance against diversity.
	MMRSearch(ctx context.Context, query string, k, fetchK int) ([]Document, error)
}
