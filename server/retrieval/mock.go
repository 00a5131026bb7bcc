package retrieval

import (
	"context"
	"sync"
)

// MockIndex is an in-memory scripted Index for testing. It returns its
// documents in insertion order, ignoring query relevance.
type MockIndex struct {
	mu   sync.Mutex
	Docs []Document
	Err  error

	SimilarityCalls int
	MMRCalls        int
}

// NewMockIndex creates a mock index holding the given documents.
func NewMockIndex(docs ...Document) *MockIndex {
	return &MockIndex{Docs: docs}
}

// Doc is a convenience constructor for a song document.
func Doc(title, artist, decade, genre, mood string) Document {
	return Document{
		Content: "Title: " + title + " | Artist: " + artist + " | Decade: " + decade + " | Genre: " + genre + " | Mood: " + mood,
		Metadata: map[string]string{
			MetaTitle:  title,
			MetaArtist: artist,
			MetaDecade: decade,
			MetaGenre:  genre,
			MetaMood:   mood,
		},
	}
}

func (m *MockIndex) SimilaritySearch(_ context.Context, _ string, k int) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SimilarityCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	if k > len(m.Docs) {
		k = len(m.Docs)
	}
	return append([]Document(nil), m.Docs[:k]...), nil
}

func (m *MockIndex) MMRSearch(_ context.Context, _ string, k, _ int) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MMRCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	if k > len(m.Docs) {
		k = len(m.Docs)
	}
	return append([]Document(nil), m.Docs[:k]...), nil
}

// Calls returns the total number of search invocations.
func (m *MockIndex) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SimilarityCalls + m.MMRCalls
}
