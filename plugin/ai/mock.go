package ai

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
)

// MockLLMService is a scripted LLMService for testing. Replies are returned
// in order; the last reply repeats once the script runs out.
type MockLLMService struct {
	mu      sync.Mutex
	Replies []string
	Err     error
	Calls   [][]Message
	next    int
}

// NewMockLLMService creates a mock that always replies with the given strings.
func NewMockLLMService(replies ...string) *MockLLMService {
	return &MockLLMService{Replies: replies}
}

func (m *MockLLMService) Chat(_ context.Context, messages []Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, messages)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Replies) == 0 {
		return "", nil
	}
	if m.next >= len(m.Replies) {
		return m.Replies[len(m.Replies)-1], nil
	}
	reply := m.Replies[m.next]
	m.next++
	return reply, nil
}

// CallCount returns the number of Chat invocations.
func (m *MockLLMService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockEmbeddingService produces deterministic pseudo-embeddings from text
// hashes so similarity is stable across runs without a real model.
type MockEmbeddingService struct {
	Dim int
}

// NewMockEmbeddingService creates a mock embedder with the given dimension.
func NewMockEmbeddingService(dim int) *MockEmbeddingService {
	if dim <= 0 {
		dim = 8
	}
	return &MockEmbeddingService{Dim: dim}
}

func (m *MockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, m.Dim)
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float32(int64(seed>>33)) / float32(1<<30)
		vec[i] = v
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range vec {
			vec[i] /= n
		}
	}
	return vec, nil
}

func (m *MockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *MockEmbeddingService) Dimensions() int {
	return m.Dim
}
