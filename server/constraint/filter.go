// Package constraint converts free-text playlist modification requests into
// structured exclusion filters.
package constraint

import (
	"strings"

	"github.com/mellowtone/tunescout/server/song"
)

// Filter is a structured exclusion constraint over playlist entries.
// The zero value means "no constraint"; absence of a field never means
// "exclude everything".
type Filter struct {
	ExcludeArtists []string `json:"exclude_artists"`
	ExcludeDecades []string `json:"exclude_decades"`
	ExcludeGenres  []string `json:"exclude_genres"`
	ExcludeMoods   []string `json:"exclude_moods"`
}

// IsZero reports whether the filter excludes nothing.
func (f Filter) IsZero() bool {
	return len(f.ExcludeArtists) == 0 && len(f.ExcludeDecades) == 0 &&
		len(f.ExcludeGenres) == 0 && len(f.ExcludeMoods) == 0
}

// Matches reports whether the record matches any exclusion field.
// This is OR-across-fields: a record is excluded if its artist is listed OR
// its decade is listed OR its genre is listed OR its mood is listed.
func (f Filter) Matches(r song.Record) bool {
	return containsFold(f.ExcludeArtists, r.Artist) ||
		containsFold(f.ExcludeDecades, r.Decade) ||
		containsFold(f.ExcludeGenres, r.Genre) ||
		containsFold(f.ExcludeMoods, r.Mood)
}

// QueryParts renders the active exclusions as retrieval-query fragments,
// e.g. "excluding artists: Queen, AC/DC".
func (f Filter) QueryParts() []string {
	var parts []string
	if len(f.ExcludeArtists) > 0 {
		parts = append(parts, "excluding artists: "+strings.Join(f.ExcludeArtists, ", "))
	}
	if len(f.ExcludeDecades) > 0 {
		parts = append(parts, "excluding decades: "+strings.Join(f.ExcludeDecades, ", "))
	}
	if len(f.ExcludeGenres) > 0 {
		parts = append(parts, "excluding genres: "+strings.Join(f.ExcludeGenres, ", "))
	}
	if len(f.ExcludeMoods) > 0 {
		parts = append(parts, "excluding moods: "+strings.Join(f.ExcludeMoods, ", "))
	}
	return parts
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return true
		}
	}
	return false
}
