// Package session owns per-session mutable conversational state: the
// current playlist, the downloadable song memory and the chat history.
package session

import (
	"sync"
	"time"

	"github.com/mellowtone/tunescout/plugin/ai"
	"github.com/mellowtone/tunescout/server/song"
)

// MaxHistoryMessages caps the retained chat history per session.
const MaxHistoryMessages = 20

// Session is the unit of conversational and playlist state scoped to one
// session ID. Sessions are created lazily on first reference.
type Session struct {
	ID string

	// Playlist is the current playlist, replaced wholesale on every
	// recommend/modify turn.
	Playlist song.Playlist

	// SongMemory is the exact ordered list of "Artist – Title" strings
	// eligible for download, overwritten (never merged) whenever the
	// playlist changes.
	SongMemory []string

	// History holds recent conversation messages for the fallback chat path.
	History []ai.Message

	UpdatedAt time.Time
}

// clone returns a deep copy so callers never alias store-owned state.
func (s *Session) clone() *Session {
	return &Session{
		ID:         s.ID,
		Playlist:   s.Playlist.Clone(),
		SongMemory: append([]string(nil), s.SongMemory...),
		History:    append([]ai.Message(nil), s.History...),
		UpdatedAt:  s.UpdatedAt,
	}
}

// AppendHistory adds a user/assistant exchange, trimming to the cap.
func (s *Session) AppendHistory(userMsg, assistantMsg string) {
	s.History = append(s.History,
		ai.UserMessage(userMsg),
		ai.AssistantMessage(assistantMsg),
	)
	if len(s.History) > MaxHistoryMessages {
		s.History = s.History[len(s.History)-MaxHistoryMessages:]
	}
}

// Store is an in-memory map of session ID to session state. All
// read-modify-write sequences run under a per-session lock so concurrent
// turns for the same session never lose updates; turns for different
// sessions proceed independently.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	mu      sync.Mutex
	session *Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*entry)}
}

// entryFor returns the entry for the session ID, creating it lazily.
func (st *Store) entryFor(sessionID string) *entry {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.sessions[sessionID]
	if !ok {
		e = &entry{session: &Session{ID: sessionID, UpdatedAt: time.Now()}}
		st.sessions[sessionID] = e
	}
	return e
}

// Get returns a copy of the session state, creating the session if it does
// not exist yet.
func (st *Store) Get(sessionID string) *Session {
	e := st.entryFor(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.clone()
}

// Set replaces the session state in one write.
func (st *Store) Set(sessionID string, s *Session) {
	e := st.entryFor(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	s.ID = sessionID
	s.UpdatedAt = time.Now()
	e.session = s.clone()
}

// Update runs fn against the session state under the per-session lock.
// The whole read-modify-write is atomic with respect to other turns for the
// same session; fn sees and may mutate a private copy which is committed in
// one write when fn returns nil. A non-nil error discards the copy, so a
// failed turn leaves no partial mutation behind.
func (st *Store) Update(sessionID string, fn func(s *Session) error) error {
	e := st.entryFor(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	working := e.session.clone()
	if err := fn(working); err != nil {
		return err
	}
	working.UpdatedAt = time.Now()
	e.session = working
	return nil
}

// Clear removes the session.
func (st *Store) Clear(sessionID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, sessionID)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// evictOlderThan removes sessions not updated since the cutoff and returns
// how many were evicted.
func (st *Store) evictOlderThan(cutoff time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	evicted := 0
	for id, e := range st.sessions {
		e.mu.Lock()
		stale := e.session.UpdatedAt.Before(cutoff)
		e.mu.Unlock()
		if stale {
			delete(st.sessions, id)
			evicted++
		}
	}
	return evicted
}
