package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// SimpleStore is an in-memory exact-search index with JSON persistence.
// Search walks every chunk and ranks by cosine similarity, which is fine
// for corpora in the thousands of chunks.
type SimpleStore struct {
	mu     sync.RWMutex
	chunks []Chunk
}

func NewSimpleStore() *SimpleStore {
	return &SimpleStore{}
}

func (s *SimpleStore) Add(ctx context.Context, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *SimpleStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func (s *SimpleStore) Search(ctx context.Context, query []float32, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SearchResult, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		score := cosineSimilarity(query, chunk.Embedding)
		results = append(results, SearchResult{Chunk: chunk, Score: score})
	}

	// SliceStable keeps insertion order for equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Save writes the full index to path atomically: the snapshot goes to a
// sibling temp file first, then replaces the target with a rename. Readers
// of the old file never observe a half-written index.
func (s *SimpleStore) Save(path string) error {
	s.mu.RLock()
	data, err := json.Marshal(s.chunks)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	tmp := path + ".build"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to swap index: %w", err)
	}
	return nil
}

// Load replaces the store contents with the index at path.
func (s *SimpleStore) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	var chunks []Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return fmt.Errorf("failed to parse index: %w", err)
	}

	s.mu.Lock()
	s.chunks = chunks
	s.mu.Unlock()
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
