// Package song defines the song record model shared by retrieval, playlist
// editing and the conversational layer.
package song

import (
	"fmt"
	"strings"
)

// Unknown is the sentinel for metadata fields that could not be resolved.
const Unknown = "unknown"

// Record represents a single song in the corpus or a playlist.
type Record struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Decade   string `json:"decade"`
	Genre    string `json:"genre"`
	Mood     string `json:"mood"`
	Duration int    `json:"duration,omitempty"` // seconds
}

// Key returns the case-insensitive (artist, title) dedup key for a record.
// Two records with equal keys are considered the same song.
func (r Record) Key() string {
	return Key(r.Artist, r.Title)
}

// Key builds the dedup key for an (artist, title) pair.
func Key(artist, title string) string {
	return strings.ToLower(strings.TrimSpace(artist)) + "\x00" + strings.ToLower(strings.TrimSpace(title))
}

// Label returns the "Artist – Title" form used for song memory and
// download queries.
func (r Record) Label() string {
	return fmt.Sprintf("%s – %s", r.Artist, r.Title)
}

// Normalize fills unresolvable metadata fields with the Unknown sentinel.
func (r Record) Normalize() Record {
	if strings.TrimSpace(r.Decade) == "" {
		r.Decade = Unknown
	}
	if strings.TrimSpace(r.Genre) == "" {
		r.Genre = Unknown
	}
	if strings.TrimSpace(r.Mood) == "" {
		r.Mood = Unknown
	}
	return r
}

// Playlist is an ordered sequence of records. User-facing range operations
// over a playlist are 1-indexed.
type Playlist []Record

// Clone returns a deep copy of the playlist.
func (p Playlist) Clone() Playlist {
	if p == nil {
		return nil
	}
	out := make(Playlist, len(p))
	copy(out, p)
	return out
}

// Labels returns the "Artist – Title" line for every entry, in order.
func (p Playlist) Labels() []string {
	labels := make([]string, len(p))
	for i, r := range p {
		labels[i] = r.Label()
	}
	return labels
}

// Dedup removes entries sharing a dedup key with an earlier entry,
// preserving first-occurrence order.
func (p Playlist) Dedup() Playlist {
	seen := make(map[string]struct{}, len(p))
	out := make(Playlist, 0, len(p))
	for _, r := range p {
		key := r.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
