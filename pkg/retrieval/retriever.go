package retrieval

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"ai-mentor-be/pkg/embedding"
	"ai-mentor-be/pkg/store"
	"ai-mentor-be/pkg/vectorstore"
)

// queryFields are the session fields whose values sharpen the retrieval
// query beyond the raw user message.
var queryFields = []string{"goals", "skills", "interests", "exciting_topics", "passions"}

// Options bound how much retrieved text a turn may carry.
type Options struct {
	Enabled          bool
	TopK             int
	MaxCharsPerChunk int
	MaxContextChars  int
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = 3
	}
	if o.MaxCharsPerChunk <= 0 {
		o.MaxCharsPerChunk = 500
	}
	if o.MaxContextChars <= 0 {
		o.MaxContextChars = 2000
	}
	return o
}

// Retriever answers turn-time queries against the persisted index. The index
// loads lazily on first use and is shared read-only afterwards, so concurrent
// sessions can retrieve without coordination.
type Retriever struct {
	embedder  embedding.EmbeddingProvider
	indexPath string
	opts      Options

	loadOnce sync.Once
	loadErr  error
	index    vectorstore.VectorStore
}

func NewRetriever(embedder embedding.EmbeddingProvider, indexPath string, opts Options) *Retriever {
	return &Retriever{
		embedder:  embedder,
		indexPath: indexPath,
		opts:      opts.withDefaults(),
	}
}

// NewRetrieverWithStore skips file loading and queries the given store
// directly. Used with the pgvector-backed index and in tests.
func NewRetrieverWithStore(embedder embedding.EmbeddingProvider, index vectorstore.VectorStore, opts Options) *Retriever {
	r := &Retriever{
		embedder: embedder,
		opts:     opts.withDefaults(),
		index:    index,
	}
	r.loadOnce.Do(func() {})
	return r
}

// Retrieve returns ranked, deduplicated, trimmed snippets for the turn.
// With the feature flag off it returns an empty result immediately: no
// embedding call, no index access. Index or embedding failures degrade to an
// empty result with an ErrRetrievalUnavailable-wrapped error, since snippets
// are supplementary context and never worth failing the turn over.
func (r *Retriever) Retrieve(ctx context.Context, session *store.Session, userMessage string) ([]store.RetrievedChunk, error) {
	return r.RetrieveTopK(ctx, session, userMessage, 0)
}

// RetrieveTopK overrides the configured result count for one query; topK <= 0
// falls back to the configured value.
func (r *Retriever) RetrieveTopK(ctx context.Context, session *store.Session, userMessage string, topK int) ([]store.RetrievedChunk, error) {
	if !r.opts.Enabled {
		return []store.RetrievedChunk{}, nil
	}
	if topK <= 0 {
		topK = r.opts.TopK
	}

	index, err := r.loadIndex()
	if err != nil {
		return []store.RetrievedChunk{}, err
	}

	query := r.buildQuery(session, userMessage)
	embedded, err := r.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return []store.RetrievedChunk{}, fmt.Errorf("%w: embed query: %v", ErrRetrievalUnavailable, err)
	}

	// Over-fetch so dedup can drop near-duplicates and still fill topK.
	results, err := index.Search(ctx, embedded.Embedding.Values, topK*2)
	if err != nil {
		return []store.RetrievedChunk{}, fmt.Errorf("%w: search: %v", ErrRetrievalUnavailable, err)
	}

	return r.shape(results, topK), nil
}

func (r *Retriever) loadIndex() (vectorstore.VectorStore, error) {
	r.loadOnce.Do(func() {
		index := vectorstore.NewSimpleStore()
		if err := index.Load(r.indexPath); err != nil {
			r.loadErr = fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)
			return
		}
		r.index = index
	})
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.index, nil
}

func (r *Retriever) buildQuery(session *store.Session, userMessage string) string {
	parts := []string{strings.TrimSpace(userMessage)}
	for _, field := range queryFields {
		for _, value := range session.FieldStrings(field) {
			if v := strings.TrimSpace(value); v != "" {
				parts = append(parts, v)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// shape applies the post-search pipeline: dedupe by source plus
// near-identical text, trim each snippet, sanitize markup, and cut the list
// once the total budget is spent.
func (r *Retriever) shape(results []vectorstore.SearchResult, topK int) []store.RetrievedChunk {
	seen := make(map[string]bool)
	chunks := make([]store.RetrievedChunk, 0, topK)
	budget := r.opts.MaxContextChars

	for _, res := range results {
		if len(chunks) >= topK {
			break
		}

		key := res.Chunk.Source + "|" + dedupeKey(res.Chunk.Text)
		if seen[key] {
			continue
		}
		seen[key] = true

		snippet := sanitizeSnippet(res.Chunk.Text)
		snippet = trimSnippet(snippet, r.opts.MaxCharsPerChunk)
		if snippet == "" {
			continue
		}
		if len(snippet) > budget {
			break
		}
		budget -= len(snippet)

		score := res.Score
		chunks = append(chunks, store.RetrievedChunk{
			ID:      res.Chunk.ID,
			Title:   res.Chunk.Title,
			Snippet: snippet,
			Source:  res.Chunk.Source,
			Score:   &score,
		})
	}
	return chunks
}

// dedupeKey normalizes a chunk's leading text so overlapping chunks from the
// same source collapse to one result.
func dedupeKey(text string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if len(normalized) > 120 {
		normalized = normalized[:120]
	}
	return normalized
}

var (
	markdownLinkRe = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	urlRe          = regexp.MustCompile(`https?://\S+`)
	markupRe       = regexp.MustCompile("[*_`#>]+")
)

func sanitizeSnippet(text string) string {
	text = markdownLinkRe.ReplaceAllString(text, "$1")
	text = urlRe.ReplaceAllString(text, "")
	text = markupRe.ReplaceAllString(text, "")
	return strings.TrimSpace(strings.Join(strings.Fields(text), " "))
}

func trimSnippet(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	cut := limit
	for i := limit - 1; i > limit-limit/5 && i > 0; i-- {
		if runes[i] == ' ' {
			cut = i
			break
		}
	}
	return strings.TrimSpace(string(runes[:cut])) + "…"
}
