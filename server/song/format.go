package song

import (
	"fmt"
	"strings"
)

// separator between artist and title in the rendered playlist line.
// This is an en dash, not a hyphen; the parser below and the renderers
// elsewhere must agree on it.
const separator = " – "

// FormatPlaylist renders a playlist as "N. Artist – Title (Decade)" lines,
// 1-indexed and newline-joined. This format is also the parse target of
// ParsePlaylist, so producer and consumer stay in lock-step.
func FormatPlaylist(p Playlist) string {
	lines := make([]string, len(p))
	for i, r := range p {
		lines[i] = fmt.Sprintf("%d. %s%s%s (%s)", i+1, r.Artist, separator, r.Title, r.Decade)
	}
	return strings.Join(lines, "\n")
}

// ParsePlaylist parses "N. Artist – Title (Decade)" lines back into records.
// Malformed lines are skipped rather than failing the whole parse; genre and
// mood come back as the Unknown sentinel since the line format does not
// carry them.
func ParsePlaylist(text string) Playlist {
	var out Playlist
	for _, line := range strings.Split(text, "\n") {
		if r, ok := parseLine(line); ok {
			out = append(out, r)
		}
	}
	return out
}

func parseLine(line string) (Record, bool) {
	line = strings.TrimSpace(line)
	if !strings.Contains(line, separator) {
		return Record{}, false
	}

	// Strip the "N. " prefix.
	_, rest, found := strings.Cut(line, ". ")
	if !found {
		return Record{}, false
	}

	artist, titleDecade, found := strings.Cut(rest, separator)
	if !found {
		return Record{}, false
	}

	// The decade is the trailing parenthesized group.
	open := strings.LastIndex(titleDecade, "(")
	if open < 0 {
		return Record{}, false
	}
	title := strings.TrimSpace(titleDecade[:open])
	decade := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(titleDecade[open+1:]), ")"))

	artist = strings.TrimSpace(artist)
	if artist == "" || title == "" {
		return Record{}, false
	}

	return Record{
		Artist: artist,
		Title:  title,
		Decade: decade,
		Genre:  Unknown,
		Mood:   Unknown,
	}, true
}
