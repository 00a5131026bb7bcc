package retrieval

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mellowtone/tunescout/internal/errors"
	"github.com/mellowtone/tunescout/plugin/ai/timeout"
	"github.com/mellowtone/tunescout/server/song"
)

const (
	// DefaultOverfetch is the candidate multiplier applied before filtering.
	// Higher multipliers trade latency for filter headroom.
	DefaultOverfetch = 10
	// MinOverfetch is the lowest multiplier the engine accepts.
	MinOverfetch = 5
	// DefaultFetchK is the MMR candidate pool size.
	DefaultFetchK = 40
)

// Filters constrains recommendation results by resolved metadata.
// Empty fields mean "no constraint".
type Filters struct {
	Decade string
	Genre  string
	Mood   string
}

// IsZero reports whether no constraint is set.
func (f Filters) IsZero() bool {
	return f.Decade == "" && f.Genre == "" && f.Mood == ""
}

// Options configures an Engine.
type Options struct {
	Overfetch int  // candidate multiplier, min MinOverfetch
	UseMMR    bool // diversified candidate selection
	FetchK    int  // MMR pool size
	Logger    *slog.Logger
}

// Engine wraps a similarity-search index with over-fetching, strict metadata
// filtering with fallback, and dedup by the (artist, title) key.
type Engine struct {
	index     Index
	overfetch int
	useMMR    bool
	fetchK    int
	cache     *queryCache
	logger    *slog.Logger
}

// NewEngine creates a recommendation engine over the given index.
func NewEngine(index Index, opts Options) *Engine {
	overfetch := opts.Overfetch
	if overfetch < MinOverfetch {
		overfetch = DefaultOverfetch
	}
	fetchK := opts.FetchK
	if fetchK <= 0 {
		fetchK = DefaultFetchK
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		index:     index,
		overfetch: overfetch,
		useMMR:    opts.UseMMR,
		fetchK:    fetchK,
		cache:     newQueryCache(256, 5*time.Minute),
		logger:    logger,
	}
}

// Recommend returns up to topK songs relevant to the query, in rank order.
//
// Candidates are over-fetched from the index, strictly filtered by the
// supplied metadata constraints, and deduplicated by the case-insensitive
// (artist, title) key. If strict filtering eliminates every candidate the
// filter is discarded and the unfiltered set is used instead; an empty
// result only occurs when the index itself returned nothing.
func (e *Engine) Recommend(ctx context.Context, query string, topK int, filters *Filters) ([]song.Record, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New(errors.ErrCodeInvalidQuery, "query must not be empty")
	}
	if topK <= 0 {
		topK = 1
	}

	f := Filters{}
	if filters != nil {
		f = *filters
	}

	if cached, ok := e.cache.get(query, topK, f); ok {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.RetrievalTimeout)
	defer cancel()

	docs, err := e.fetchCandidates(ctx, query, topK)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRetrievalUnavailable, "similarity search failed", err)
	}

	filtered := applyFilters(docs, f)
	if len(filtered) == 0 && len(docs) > 0 && !f.IsZero() {
		// Strict filtering wiped the pool; better to ignore the constraint
		// than to answer with nothing.
		e.logger.Debug("metadata filter eliminated all candidates, falling back",
			"query", query, "candidates", len(docs))
		filtered = docs
	}

	results := dedupAndTruncate(filtered, topK)
	e.cache.set(query, topK, f, results)
	return results, nil
}

func (e *Engine) fetchCandidates(ctx context.Context, query string, topK int) ([]Document, error) {
	k := topK * e.overfetch
	if e.useMMR {
		fetchK := e.fetchK
		if fetchK < k {
			fetchK = k * 2
		}
		return e.index.MMRSearch(ctx, query, k, fetchK)
	}
	return e.index.SimilaritySearch(ctx, query, k)
}

func applyFilters(docs []Document, f Filters) []Document {
	if f.IsZero() {
		return docs
	}
	filtered := make([]Document, 0, len(docs))
	for _, d := range docs {
		if f.Decade != "" && !strings.EqualFold(d.Metadata[MetaDecade], f.Decade) {
			continue
		}
		if f.Genre != "" && !strings.Contains(strings.ToLower(d.Metadata[MetaGenre]), strings.ToLower(f.Genre)) {
			continue
		}
		if f.Mood != "" && !strings.Contains(strings.ToLower(d.Metadata[MetaMood]), strings.ToLower(f.Mood)) {
			continue
		}
		filtered = append(filtered, d)
	}
	return filtered
}

func dedupAndTruncate(docs []Document, topK int) []song.Record {
	seen := make(map[string]struct{}, topK)
	results := make([]song.Record, 0, topK)
	for _, d := range docs {
		r := recordFromDocument(d)
		key := r.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		results = append(results, r)
		if len(results) >= topK {
			break
		}
	}
	return results
}

func recordFromDocument(d Document) song.Record {
	return song.Record{
		Title:  strings.TrimSpace(d.Metadata[MetaTitle]),
		Artist: strings.TrimSpace(d.Metadata[MetaArtist]),
		Decade: strings.TrimSpace(d.Metadata[MetaDecade]),
		Genre:  strings.TrimSpace(d.Metadata[MetaGenre]),
		Mood:   strings.TrimSpace(d.Metadata[MetaMood]),
	}.Normalize()
}
