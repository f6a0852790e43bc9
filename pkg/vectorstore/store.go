package vectorstore

import "context"

// Chunk is one embedded slice of a source document.
type Chunk struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Offset    int       `json:"offset"`
	Embedding []float32 `json:"embedding"`
}

// SearchResult pairs a chunk with its similarity to the query vector.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// VectorStore indexes embedded chunks and answers nearest-neighbour queries.
// Search returns results in descending score order; ties keep the order in
// which chunks were added.
type VectorStore interface {
	Add(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, query []float32, topK int) ([]SearchResult, error)
	Count(ctx context.Context) (int, error)
}
