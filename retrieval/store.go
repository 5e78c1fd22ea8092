package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// SearchResult pairs a stored chunk with its similarity score (cosine, 1 is
// identical).
type SearchResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// VectorStore holds embedded chunks and answers similarity queries against
// a pre-computed query vector.
type VectorStore interface {
	// Upsert inserts chunks, replacing any existing chunk with the same id.
	Upsert(ctx context.Context, chunks []Chunk) error
	// Query returns up to topK chunks most similar to the query embedding,
	// best first.
	Query(ctx context.Context, embedding []float64, topK int) ([]SearchResult, error)
	// Delete removes chunks by id; unknown ids are ignored.
	Delete(ctx context.Context, ids []string) error
	// Count reports the number of stored chunks.
	Count(ctx context.Context) (int, error)
}

// InMemoryStore is a map-backed VectorStore for tests and small corpora.
// Safe for concurrent use.
type InMemoryStore struct {
	mu     sync.RWMutex
	chunks map[string]Chunk
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{chunks: make(map[string]Chunk)}
}

// Upsert implements VectorStore. Every chunk must carry an embedding.
func (s *InMemoryStore) Upsert(_ context.Context, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range chunks {
		if c.ID == "" {
			return fmt.Errorf("chunk has no id")
		}
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", c.ID)
		}
		s.chunks[c.ID] = c
	}
	return nil
}

// Query implements VectorStore.
func (s *InMemoryStore) Query(_ context.Context, embedding []float64, topK int) ([]SearchResult, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("query embedding is empty")
	}
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SearchResult, 0, len(s.chunks))
	for _, c := range s.chunks {
		results = append(results, SearchResult{
			Chunk: c,
			Score: cosineSimilarity(embedding, c.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Delete implements VectorStore.
func (s *InMemoryStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.chunks, id)
	}
	return nil
}

// Count implements VectorStore.
func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Clear removes every stored chunk.
func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = make(map[string]Chunk)
	return nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
