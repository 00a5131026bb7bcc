package song

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPlaylist(t *testing.T) {
	p := Playlist{
		{Artist: "Queen", Title: "Bohemian Rhapsody", Decade: "1970s"},
		{Artist: "AC/DC", Title: "Thunderstruck", Decade: "1990s"},
	}

	got := FormatPlaylist(p)
	assert.Equal(t, "1. Queen – Bohemian Rhapsody (1970s)\n2. AC/DC – Thunderstruck (1990s)", got)
}

func TestFormatPlaylist_Empty(t *testing.T) {
	assert.Equal(t, "", FormatPlaylist(nil))
}

func TestParsePlaylist_RoundTrip(t *testing.T) {
	p := Playlist{
		{Artist: "Queen", Title: "Bohemian Rhapsody", Decade: "1970s", Genre: Unknown, Mood: Unknown},
		{Artist: "Daft Punk", Title: "One More Time", Decade: "2000s", Genre: Unknown, Mood: Unknown},
	}

	parsed := ParsePlaylist(FormatPlaylist(p))
	require.Len(t, parsed, 2)
	assert.Equal(t, p, parsed)
}

func TestParsePlaylist_SkipsMalformedLines(t *testing.T) {
	text := "1. Queen – Bohemian Rhapsody (1970s)\n" +
		"garbage line\n" +
		"2. no separator here (1980s)\n" +
		"3. Missing Decade – So Close\n" +
		"4. AC/DC – Thunderstruck (1990s)"

	parsed := ParsePlaylist(text)
	require.Len(t, parsed, 2)
	assert.Equal(t, "Queen", parsed[0].Artist)
	assert.Equal(t, "AC/DC", parsed[1].Artist)
}

func TestParsePlaylist_TitleWithParens(t *testing.T) {
	parsed := ParsePlaylist("1. ABBA – Gimme! Gimme! Gimme! (A Man After Midnight) (1970s)")
	require.Len(t, parsed, 1)
	assert.Equal(t, "Gimme! Gimme! Gimme! (A Man After Midnight)", parsed[0].Title)
	assert.Equal(t, "1970s", parsed[0].Decade)
}

func TestKey_CaseInsensitive(t *testing.T) {
	a := Record{Artist: "Queen", Title: "Bohemian Rhapsody"}
	b := Record{Artist: "QUEEN", Title: "bohemian rhapsody"}
	assert.Equal(t, a.Key(), b.Key())

	c := Record{Artist: "Queens", Title: "Bohemian Rhapsody"}
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestPlaylist_Dedup(t *testing.T) {
	p := Playlist{
		{Artist: "Queen", Title: "Bohemian Rhapsody", Decade: "1970s"},
		{Artist: "queen", Title: "BOHEMIAN RHAPSODY", Decade: "1970s"},
		{Artist: "AC/DC", Title: "Thunderstruck", Decade: "1990s"},
	}

	deduped := p.Dedup()
	require.Len(t, deduped, 2)
	assert.Equal(t, "Queen", deduped[0].Artist)
	assert.Equal(t, "AC/DC", deduped[1].Artist)
}

func TestNormalize_FillsSentinels(t *testing.T) {
	r := Record{Artist: "Queen", Title: "Bohemian Rhapsody"}.Normalize()
	assert.Equal(t, Unknown, r.Decade)
	assert.Equal(t, Unknown, r.Genre)
	assert.Equal(t, Unknown, r.Mood)
}
