package store

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/mellowtone/tunescout/plugin/ai"
	"github.com/mellowtone/tunescout/plugin/ai/timeout"
	"github.com/mellowtone/tunescout/server/retrieval"
)

// PGIndex is a Postgres/pgvector-backed song index. Vectors live in the
// song_embedding table and similarity queries use the cosine distance
// operator; MMR selection happens client-side over the fetched pool.
type PGIndex struct {
	db       *sql.DB
	embedder ai.EmbeddingService
}

// NewPGIndex opens a Postgres connection for the song index.
func NewPGIndex(dsn string, embedder ai.EmbeddingService) (*PGIndex, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres connection")
	}
	return &PGIndex{db: db, embedder: embedder}, nil
}

// Close releases the database connection.
func (idx *PGIndex) Close() error {
	return idx.db.Close()
}

// Migrate creates the song_embedding table if it does not exist.
func (idx *PGIndex) Migrate(ctx context.Context) error {
	stmt := `
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS song_embedding (
			id SERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			decade TEXT NOT NULL DEFAULT 'unknown',
			genre TEXT NOT NULL DEFAULT 'unknown',
			mood TEXT NOT NULL DEFAULT 'unknown',
			content TEXT NOT NULL,
			embedding vector NOT NULL,
			UNIQUE (artist, title)
		)
	`
	if _, err := idx.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to migrate song_embedding")
	}
	return nil
}

// Seed embeds and upserts the documents into the index.
func (idx *PGIndex) Seed(ctx context.Context, docs []retrieval.Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	embedCtx, cancel := context.WithTimeout(ctx, timeout.EmbeddingTimeout)
	vectors, err := idx.embedder.EmbedBatch(embedCtx, texts)
	cancel()
	if err != nil {
		return errors.Wrap(err, "failed to embed corpus")
	}

	stmt := `
		INSERT INTO song_embedding (title, artist, decade, genre, mood, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (artist, title)
		DO UPDATE SET
			decade = EXCLUDED.decade,
			genre = EXCLUDED.genre,
			mood = EXCLUDED.mood,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding
	`
	for i, d := range docs {
		_, err := idx.db.ExecContext(ctx, stmt,
			d.Metadata[retrieval.MetaTitle],
			d.Metadata[retrieval.MetaArtist],
			d.Metadata[retrieval.MetaDecade],
			d.Metadata[retrieval.MetaGenre],
			d.Metadata[retrieval.MetaMood],
			d.Content,
			pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return errors.Wrapf(err, "failed to upsert song %q", d.Metadata[retrieval.MetaTitle])
		}
	}
	return nil
}

// SimilaritySearch returns the k nearest documents by cosine distance.
func (idx *PGIndex) SimilaritySearch(ctx context.Context, query string, k int) ([]retrieval.Document, error) {
	queryVec, err := idx.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	docs, _, err := idx.nearest(ctx, queryVec, k)
	return docs, err
}

// MMRSearch fetches the fetchK nearest candidates with their vectors and
// selects k of them by maximal marginal relevance.
func (idx *PGIndex) MMRSearch(ctx context.Context, query string, k, fetchK int) ([]retrieval.Document, error) {
	queryVec, err := idx.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	docs, vectors, err := idx.nearest(ctx, queryVec, fetchK)
	if err != nil {
		return nil, err
	}

	out := make([]retrieval.Document, 0, k)
	for _, i := range mmrSelect(queryVec, vectors, k) {
		out = append(out, docs[i])
	}
	return out, nil
}

func (idx *PGIndex) embedQuery(ctx context.Context, query string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout.EmbeddingTimeout)
	defer cancel()

	queryVec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed query")
	}
	return queryVec, nil
}

func (idx *PGIndex) nearest(ctx context.Context, queryVec []float32, k int) ([]retrieval.Document, [][]float32, error) {
	stmt := `
		SELECT title, artist, decade, genre, mood, content, embedding
		FROM song_embedding
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	rows, err := idx.db.QueryContext(ctx, stmt, pgvector.NewVector(queryVec), k)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to query song embeddings")
	}
	defer rows.Close()

	var docs []retrieval.Document
	var vectors [][]float32
	for rows.Next() {
		var title, artist, decade, genre, mood, content string
		var vector pgvector.Vector
		if err := rows.Scan(&title, &artist, &decade, &genre, &mood, &content, &vector); err != nil {
			return nil, nil, errors.Wrap(err, "failed to scan song embedding")
		}
		docs = append(docs, retrieval.Document{
			Content: content,
			Metadata: map[string]string{
				retrieval.MetaTitle:  title,
				retrieval.MetaArtist: artist,
				retrieval.MetaDecade: decade,
				retrieval.MetaGenre:  genre,
				retrieval.MetaMood:   mood,
			},
		})
		vectors = append(vectors, vector.Slice())
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "failed to iterate song embeddings")
	}
	return docs, vectors, nil
}
