// Package playlist applies structured edit operations to playlist snapshots,
// sourcing replacement songs from the retrieval engine.
package playlist

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/mellowtone/tunescout/server/constraint"
	"github.com/mellowtone/tunescout/server/song"
)

// Recommender sources songs for replace/add/refill operations.
type Recommender interface {
	Recommend(ctx context.Context, query string, topK int) ([]song.Record, error)
}

// RecommenderFunc adapts a function to the Recommender interface.
type RecommenderFunc func(ctx context.Context, query string, topK int) ([]song.Record, error)

func (f RecommenderFunc) Recommend(ctx context.Context, query string, topK int) ([]song.Record, error) {
	return f(ctx, query, topK)
}

// Action tags an edit operation.
type Action string

const (
	ActionReplace Action = "replace"
	ActionAdd     Action = "add"
	ActionExclude Action = "exclude"
	ActionRemove  Action = "remove"
	ActionClear   Action = "clear"
)

// Position values for the add operation besides 1-indexed integers.
const (
	PositionStart = "start"
	PositionEnd   = "end"
)

// Operation is a single playlist edit. Which fields are meaningful depends
// on the action: Range for replace/remove, Filters for replace/add/exclude,
// Count and Position for add.
type Operation struct {
	Action   Action              `json:"action"`
	Range    []int               `json:"range,omitempty"`
	Filters  map[string][]string `json:"filters,omitempty"`
	Count    int                 `json:"count,omitempty"`
	Position string              `json:"position,omitempty"`
}

// Engine applies operation sequences to playlists.
type Engine struct {
	recommender Recommender
	logger      *slog.Logger
}

// NewEngine creates a playlist operations engine.
func NewEngine(recommender Recommender, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{recommender: recommender, logger: logger}
}

// Apply executes the operations strictly in sequence against a deep copy of
// current, each operation seeing the result of the previous one. The input
// playlist is never mutated; callers commit the returned playlist in one
// write. Unknown action tags are skipped as a forward-compatibility policy,
// not an error.
func (e *Engine) Apply(ctx context.Context, current song.Playlist, operations []Operation) (song.Playlist, error) {
	p := current.Clone()

	for _, op := range operations {
		var err error
		switch op.Action {
		case ActionReplace:
			p, err = e.applyReplace(ctx, p, op)
		case ActionAdd:
			p, err = e.applyAdd(ctx, p, op)
		case ActionExclude:
			p = applyExclude(p, op.Filters)
		case ActionRemove:
			p = applyRemove(p, op.Range)
		case ActionClear:
			p = song.Playlist{}
		default:
			e.logger.Debug("skipping unknown playlist action", "action", string(op.Action))
		}
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (e *Engine) applyReplace(ctx context.Context, p song.Playlist, op Operation) (song.Playlist, error) {
	start, end := NormalizeRange(op.Range)
	count := end - start + 1
	if count < 1 {
		count = 1
	}

	newSongs, err := e.recommender.Recommend(ctx, BuildQuery(op.Filters), count)
	if err != nil {
		return nil, err
	}

	// Splice into the 1-indexed inclusive [start, end] window, clamping
	// out-of-bounds indices rather than failing.
	lo := clamp(start-1, 0, len(p))
	hi := clamp(end, lo, len(p))

	out := make(song.Playlist, 0, len(p)-(hi-lo)+len(newSongs))
	out = append(out, p[:lo]...)
	out = append(out, newSongs...)
	out = append(out, p[hi:]...)
	return out.Dedup(), nil
}

func (e *Engine) applyAdd(ctx context.Context, p song.Playlist, op Operation) (song.Playlist, error) {
	count := op.Count
	if count < 1 {
		count = 1
	}

	newSongs, err := e.recommender.Recommend(ctx, BuildQuery(op.Filters), count)
	if err != nil {
		return nil, err
	}

	var out song.Playlist
	switch op.Position {
	case PositionStart:
		out = append(append(song.Playlist{}, newSongs...), p...)
	case PositionEnd, "":
		out = append(p.Clone(), newSongs...)
	default:
		// A numeric 1-indexed position; unparsable or out-of-range values
		// fall back to append.
		idx, err := strconv.Atoi(op.Position)
		if err != nil || idx < 1 || idx > len(p)+1 {
			out = append(p.Clone(), newSongs...)
			break
		}
		out = make(song.Playlist, 0, len(p)+len(newSongs))
		out = append(out, p[:idx-1]...)
		out = append(out, newSongs...)
		out = append(out, p[idx-1:]...)
	}
	return out.Dedup(), nil
}

func applyExclude(p song.Playlist, filters map[string][]string) song.Playlist {
	if len(filters) == 0 {
		return p
	}
	out := make(song.Playlist, 0, len(p))
	for _, r := range p {
		if !matchesFields(r, filters) {
			out = append(out, r)
		}
	}
	return out
}

func applyRemove(p song.Playlist, rawRange []int) song.Playlist {
	start, end := NormalizeRange(rawRange)
	out := make(song.Playlist, 0, len(p))
	for i, r := range p {
		pos := i + 1
		if pos >= start && pos <= end {
			continue
		}
		out = append(out, r)
	}
	return out
}

// matchesFields reports whether the record matches any filter field
// (OR-across-fields). Field names are artist, decade, genre and mood;
// unknown fields never match.
func matchesFields(r song.Record, filters map[string][]string) bool {
	for field, values := range filters {
		var actual string
		switch strings.ToLower(field) {
		case "artist":
			actual = r.Artist
		case "decade":
			actual = r.Decade
		case "genre":
			actual = r.Genre
		case "mood":
			actual = r.Mood
		default:
			continue
		}
		for _, v := range values {
			if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(actual)) {
				return true
			}
		}
	}
	return false
}

// NormalizeRange coerces a raw range into an inclusive 1-indexed (start, end)
// pair: [a, b] -> (a, b); [a] -> (a, a); anything else -> (1, 1).
// Malformed input silently targets the first slot rather than failing.
func NormalizeRange(r []int) (int, int) {
	switch len(r) {
	case 2:
		return r[0], r[1]
	case 1:
		return r[0], r[0]
	}
	return 1, 1
}

// BuildQuery renders attribute filters as a retrieval query, joining
// "key: value" pairs and comma-joining list values. Keys are sorted so the
// same filters always produce the same query text.
func BuildQuery(filters map[string][]string) string {
	if len(filters) == 0 {
		return ""
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(filters[k], ", "))
	}
	return strings.Join(parts, " ")
}

// RefillToTarget tops up a filtered-down playlist to the target size with
// newly retrieved songs, appending only entries not already present by
// dedup key, and stopping once the target is reached or candidates run out.
func (e *Engine) RefillToTarget(ctx context.Context, p song.Playlist, filter constraint.Filter, target int) (song.Playlist, error) {
	needed := target - len(p)
	if needed <= 0 {
		return p, nil
	}

	query := "motivational songs"
	if parts := filter.QueryParts(); len(parts) > 0 {
		query += " " + strings.Join(parts, " ")
	}

	candidates, err := e.recommender.Recommend(ctx, query, needed)
	if err != nil {
		return nil, err
	}

	present := make(map[string]struct{}, len(p))
	for _, r := range p {
		present[r.Key()] = struct{}{}
	}

	out := p.Clone()
	for _, r := range candidates {
		if len(out) >= target {
			break
		}
		key := r.Key()
		if _, ok := present[key]; ok {
			continue
		}
		present[key] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
