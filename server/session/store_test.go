package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mellowtone/tunescout/server/song"
)

func TestStore_LazyCreation(t *testing.T) {
	st := NewStore()

	s := st.Get("s1")
	require.NotNil(t, s)
	assert.Equal(t, "s1", s.ID)
	assert.Empty(t, s.Playlist)
	assert.Equal(t, 1, st.Len())
}

func TestStore_GetReturnsCopy(t *testing.T) {
	st := NewStore()
	st.Set("s1", &Session{
		Playlist: song.Playlist{{Artist: "Queen", Title: "Bohemian Rhapsody"}},
	})

	a := st.Get("s1")
	a.Playlist[0].Artist = "mutated"
	a.SongMemory = append(a.SongMemory, "extra")

	b := st.Get("s1")
	assert.Equal(t, "Queen", b.Playlist[0].Artist)
	assert.Empty(t, b.SongMemory)
}

func TestStore_UpdateCommitsAtomically(t *testing.T) {
	st := NewStore()

	err := st.Update("s1", func(s *Session) error {
		s.Playlist = song.Playlist{{Artist: "Queen", Title: "Bohemian Rhapsody"}}
		s.SongMemory = []string{"Queen – Bohemian Rhapsody"}
		return nil
	})
	require.NoError(t, err)

	s := st.Get("s1")
	assert.Len(t, s.Playlist, 1)
	assert.Equal(t, []string{"Queen – Bohemian Rhapsody"}, s.SongMemory)
}

func TestStore_UpdateErrorDiscardsChanges(t *testing.T) {
	st := NewStore()
	st.Set("s1", &Session{SongMemory: []string{"original"}})

	err := st.Update("s1", func(s *Session) error {
		s.SongMemory = []string{"changed"}
		return assert.AnError
	})
	require.Error(t, err)
	assert.Equal(t, []string{"original"}, st.Get("s1").SongMemory)
}

func TestStore_ConcurrentUpdatesNoLostWrites(t *testing.T) {
	st := NewStore()
	const turns = 100

	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.Update("s1", func(s *Session) error {
				s.SongMemory = append(s.SongMemory, "x")
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Len(t, st.Get("s1").SongMemory, turns)
}

func TestStore_Clear(t *testing.T) {
	st := NewStore()
	st.Set("s1", &Session{SongMemory: []string{"a"}})

	st.Clear("s1")
	assert.Equal(t, 0, st.Len())
	assert.Empty(t, st.Get("s1").SongMemory)
}

func TestStore_EvictOlderThan(t *testing.T) {
	st := NewStore()
	st.Set("old", &Session{})
	st.Set("fresh", &Session{})

	// Backdate the old session directly through an update.
	e := st.entryFor("old")
	e.mu.Lock()
	e.session.UpdatedAt = time.Now().Add(-48 * time.Hour)
	e.mu.Unlock()

	evicted := st.evictOlderThan(time.Now().Add(-24 * time.Hour))
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, st.Len())
}

func TestSession_AppendHistoryCaps(t *testing.T) {
	s := &Session{}
	for i := 0; i < MaxHistoryMessages; i++ {
		s.AppendHistory("question", "answer")
	}
	assert.Len(t, s.History, MaxHistoryMessages)
}
