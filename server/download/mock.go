package download

import (
	"context"
	"path/filepath"
	"sync"
)

// MockDownloader is a scripted Downloader for testing.
type MockDownloader struct {
	mu      sync.Mutex
	Batches [][]string
	// FailQueries marks queries that should report StatusError.
	FailQueries map[string]bool
}

// NewMockDownloader creates a mock that succeeds for every query.
func NewMockDownloader() *MockDownloader {
	return &MockDownloader{FailQueries: map[string]bool{}}
}

func (m *MockDownloader) DownloadBatch(_ context.Context, queries []string) []Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Batches = append(m.Batches, append([]string(nil), queries...))
	results := make([]Result, len(queries))
	for i, q := range queries {
		if m.FailQueries[q] {
			results[i] = Result{Query: q, Status: StatusError, Err: "not found"}
			continue
		}
		results[i] = Result{Query: q, Path: filepath.Join("downloads", q+".wav"), Status: StatusOK}
	}
	return results
}

// CallCount returns the number of batches requested.
func (m *MockDownloader) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Batches)
}
