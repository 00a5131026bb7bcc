// Package store loads the song corpus and provides the vector index
// implementations behind the retrieval engine's search contract.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/mellowtone/tunescout/server/retrieval"
	"github.com/mellowtone/tunescout/server/song"
)

// DatasetEntry is one song row in the JSON corpus file.
type DatasetEntry struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Decade   string `json:"decade"`
	Genre    string `json:"genre"`
	Mood     string `json:"mood"`
	Duration int    `json:"duration,omitempty"`
}

// LoadDataset reads a JSON array of songs and converts each entry into an
// indexable document.
func LoadDataset(path string) ([]retrieval.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read dataset %s", path)
	}

	var entries []DatasetEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrapf(err, "failed to parse dataset %s", path)
	}

	docs := make([]retrieval.Document, 0, len(entries))
	for _, e := range entries {
		r := song.Record{
			Title:    e.Title,
			Artist:   e.Artist,
			Decade:   e.Decade,
			Genre:    e.Genre,
			Mood:     e.Mood,
			Duration: e.Duration,
		}.Normalize()
		docs = append(docs, DocumentFor(r))
	}
	return docs, nil
}

// DocumentFor renders a record as the pipe-delimited searchable text the
// index embeds, with the metadata carried alongside.
func DocumentFor(r song.Record) retrieval.Document {
	content := fmt.Sprintf("Title: %s | Artist: %s | Decade: %s | Genre: %s | Mood: %s",
		r.Title, r.Artist, r.Decade, r.Genre, r.Mood)
	return retrieval.Document{
		Content: content,
		Metadata: map[string]string{
			retrieval.MetaTitle:  r.Title,
			retrieval.MetaArtist: r.Artist,
			retrieval.MetaDecade: r.Decade,
			retrieval.MetaGenre:  r.Genre,
			retrieval.MetaMood:   r.Mood,
		},
	}
}

// ParseRow parses a pipe-delimited corpus row such as
// "Title: X | Artist: Y | Decade: 1970s | Genre: rock | Mood: ballad".
// Unknown keys are ignored; missing fields fall back to the unknown
// sentinel.
func ParseRow(row string) retrieval.Document {
	meta := map[string]string{}
	for _, kv := range strings.Split(row, " | ") {
		k, v, found := strings.Cut(kv, ": ")
		if !found {
			continue
		}
		meta[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	r := song.Record{
		Title:  meta[retrieval.MetaTitle],
		Artist: meta[retrieval.MetaArtist],
		Decade: meta[retrieval.MetaDecade],
		Genre:  meta[retrieval.MetaGenre],
		Mood:   meta[retrieval.MetaMood],
	}.Normalize()
	return DocumentFor(r)
}
