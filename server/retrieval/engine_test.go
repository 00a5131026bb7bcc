package retrieval

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engineerrors "github.com/mellowtone/tunescout/internal/errors"
)

func testIndex() *MockIndex {
	return NewMockIndex(
		Doc("Bohemian Rhapsody", "Queen", "1970s", "rock", "epic"),
		Doc("Thunderstruck", "AC/DC", "1990s", "hard rock", "energetic"),
		Doc("bohemian rhapsody", "QUEEN", "1970s", "rock", "epic"), // dup by key
		Doc("One More Time", "Daft Punk", "2000s", "electronic", "happy"),
		Doc("Smells Like Teen Spirit", "Nirvana", "1990s", "grunge rock", "angry"),
	)
}

func TestRecommend_DedupInvariant(t *testing.T) {
	engine := NewEngine(testIndex(), Options{})

	got, err := engine.Recommend(context.Background(), "rock songs", 10, nil)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, r := range got {
		require.False(t, seen[r.Key()], "duplicate key %q in results", r.Key())
		seen[r.Key()] = true
	}
	// The case-variant Queen entry must have been collapsed.
	assert.Len(t, got, 4)
}

func TestRecommend_RankOrderPreserved(t *testing.T) {
	engine := NewEngine(testIndex(), Options{})

	got, err := engine.Recommend(context.Background(), "rock songs", 2, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Queen", got[0].Artist)
	assert.Equal(t, "AC/DC", got[1].Artist)
}

func TestRecommend_StrictFilter(t *testing.T) {
	engine := NewEngine(testIndex(), Options{})

	got, err := engine.Recommend(context.Background(), "rock songs", 10, &Filters{Decade: "1990s"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, "1990s", r.Decade)
	}
}

func TestRecommend_GenreSubstringMatch(t *testing.T) {
	engine := NewEngine(testIndex(), Options{})

	got, err := engine.Recommend(context.Background(), "rock songs", 10, &Filters{Genre: "Rock"})
	require.NoError(t, err)
	// rock, hard rock and grunge rock all contain "rock"; electronic does not.
	require.Len(t, got, 3)
	for _, r := range got {
		assert.Contains(t, r.Genre, "rock")
	}
}

func TestRecommend_FilterFallback(t *testing.T) {
	engine := NewEngine(testIndex(), Options{})

	// No indexed document is from the 1880s; the filter must be dropped
	// rather than returning an empty result.
	got, err := engine.Recommend(context.Background(), "rock songs", 2, &Filters{Decade: "1880s"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Queen", got[0].Artist)
	assert.Equal(t, "AC/DC", got[1].Artist)
}

func TestRecommend_EmptyIndex(t *testing.T) {
	engine := NewEngine(NewMockIndex(), Options{})

	got, err := engine.Recommend(context.Background(), "anything", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecommend_EmptyQuery(t *testing.T) {
	engine := NewEngine(testIndex(), Options{})

	_, err := engine.Recommend(context.Background(), "   ", 5, nil)
	require.Error(t, err)
	assert.Equal(t, engineerrors.ErrCodeInvalidQuery, engineerrors.CodeOf(err))
}

func TestRecommend_IndexUnreachable(t *testing.T) {
	index := testIndex()
	index.Err = errors.New("connection refused")
	engine := NewEngine(index, Options{})

	_, err := engine.Recommend(context.Background(), "rock songs", 5, nil)
	require.Error(t, err)
	assert.Equal(t, engineerrors.ErrCodeRetrievalUnavailable, engineerrors.CodeOf(err))
}

func TestRecommend_UsesMMRWhenEnabled(t *testing.T) {
	index := testIndex()
	engine := NewEngine(index, Options{UseMMR: true})

	_, err := engine.Recommend(context.Background(), "rock songs", 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, index.MMRCalls)
	assert.Equal(t, 0, index.SimilarityCalls)
}

func TestRecommend_CachesRepeatedQueries(t *testing.T) {
	index := testIndex()
	engine := NewEngine(index, Options{})

	first, err := engine.Recommend(context.Background(), "rock songs", 3, nil)
	require.NoError(t, err)
	second, err := engine.Recommend(context.Background(), "rock songs", 3, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, index.Calls())
}

func TestRecommend_UnknownSentinels(t *testing.T) {
	index := NewMockIndex(Doc("Mystery Track", "Somebody", "", "", ""))
	engine := NewEngine(index, Options{})

	got, err := engine.Recommend(context.Background(), "mystery", 1, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "unknown", got[0].Decade)
	assert.Equal(t, "unknown", got[0].Genre)
	assert.Equal(t, "unknown", got[0].Mood)
}
