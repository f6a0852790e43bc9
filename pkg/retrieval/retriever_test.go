package retrieval

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ai-mentor-be/pkg/embedding"
	"ai-mentor-be/pkg/store"
	"ai-mentor-be/pkg/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hashEmbedder maps text deterministically into a small vector so tests can
// steer similarity without a model. Safe for the ingester's worker pool.
type hashEmbedder struct {
	mu      sync.Mutex
	err     error
	calls   int
	queries []string
}

func (h *hashEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	h.mu.Lock()
	h.calls++
	h.queries = append(h.queries, text)
	h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}

	var sum float32
	for _, r := range text {
		sum += float32(r % 13)
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{sum, 1}},
	}, nil
}

func newTestRetriever(t *testing.T, embedder embedding.EmbeddingProvider, chunks []vectorstore.Chunk, opts Options) *Retriever {
	t.Helper()
	index := vectorstore.NewSimpleStore()
	require.NoError(t, index.Add(context.Background(), chunks))
	return NewRetrieverWithStore(embedder, index, opts)
}

func TestRetrieveDisabledReturnsEmptyWithoutCalls(t *testing.T) {
	embedder := &hashEmbedder{}
	r := newTestRetriever(t, embedder, []vectorstore.Chunk{
		{ID: "doc.md:0", Text: "anything", Embedding: []float32{1, 1}},
	}, Options{Enabled: false})

	session := store.NewSession("s1", "retrieve_knowledge")
	chunks, err := r.Retrieve(context.Background(), session, "help me")

	require.NoError(t, err)
	assert.NotNil(t, chunks)
	assert.Empty(t, chunks)
	assert.Zero(t, embedder.calls, "disabled retrieval must not touch the embedder")
}

func TestRetrieveEmbedderFailureDegradesToEmpty(t *testing.T) {
	embedder := &hashEmbedder{err: errors.New("provider down")}
	r := newTestRetriever(t, embedder, []vectorstore.Chunk{
		{ID: "doc.md:0", Text: "anything", Embedding: []float32{1, 1}},
	}, Options{Enabled: true})

	session := store.NewSession("s1", "retrieve_knowledge")
	chunks, err := r.Retrieve(context.Background(), session, "help me")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
	assert.NotNil(t, chunks)
	assert.Empty(t, chunks)
}

func TestRetrieveMissingIndexDegradesToEmpty(t *testing.T) {
	r := NewRetriever(&hashEmbedder{}, "/nonexistent/index.json", Options{Enabled: true})

	session := store.NewSession("s1", "retrieve_knowledge")
	chunks, err := r.Retrieve(context.Background(), session, "help me")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
	assert.Empty(t, chunks)
}

func TestRetrieveQueryIncludesStateFields(t *testing.T) {
	embedder := &hashEmbedder{}
	r := newTestRetriever(t, embedder, []vectorstore.Chunk{
		{ID: "doc.md:0", Text: "networking advice", Embedding: []float32{1, 1}},
	}, Options{Enabled: true})

	session := store.NewSession("s1", "retrieve_knowledge")
	session.Fields["goals"] = []any{"become a team lead"}
	session.Fields["skills"] = []any{"sql", "excel"}
	session.Fields["user_name"] = "Dina" // not a query field

	_, err := r.Retrieve(context.Background(), session, "what should I focus on")
	require.NoError(t, err)

	require.Len(t, embedder.queries, 1)
	query := embedder.queries[0]
	assert.Contains(t, query, "what should I focus on")
	assert.Contains(t, query, "become a team lead")
	assert.Contains(t, query, "sql")
	assert.NotContains(t, query, "Dina")
}

func TestRetrieveDedupesOverlappingChunks(t *testing.T) {
	embedder := &hashEmbedder{}
	shared := "Networking is the single highest-leverage habit for career growth according to most coaches, " +
		"and it compounds: every introduction this month multiplies the opportunities available next quarter."
	r := newTestRetriever(t, embedder, []vectorstore.Chunk{
		{ID: "guide.md:0", Source: "guide.md", Text: shared, Embedding: []float32{1, 1}},
		{ID: "guide.md:800", Source: "guide.md", Text: shared + " Keep a weekly cadence.", Embedding: []float32{1, 1}},
		{ID: "other.md:0", Source: "other.md", Text: "Sleep and recovery matter for sustained output.", Embedding: []float32{1, 1}},
	}, Options{Enabled: true, TopK: 3})

	session := store.NewSession("s1", "retrieve_knowledge")
	chunks, err := r.Retrieve(context.Background(), session, "how do I grow")
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	sources := []string{chunks[0].Source, chunks[1].Source}
	assert.Contains(t, sources, "guide.md")
	assert.Contains(t, sources, "other.md")
}

func TestRetrieveRespectsTopKAndBudget(t *testing.T) {
	embedder := &hashEmbedder{}
	chunks := []vectorstore.Chunk{
		{ID: "a.md:0", Source: "a.md", Text: "alpha advice one", Embedding: []float32{1, 1}},
		{ID: "b.md:0", Source: "b.md", Text: "beta advice two", Embedding: []float32{1, 1}},
		{ID: "c.md:0", Source: "c.md", Text: "gamma advice three", Embedding: []float32{1, 1}},
	}
	r := newTestRetriever(t, embedder, chunks, Options{Enabled: true, TopK: 2})

	session := store.NewSession("s1", "retrieve_knowledge")
	got, err := r.Retrieve(context.Background(), session, "advice")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// A per-query override can raise the count past the configured default.
	got, err = r.RetrieveTopK(context.Background(), session, "advice", 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	// A tight budget cuts the list even below topK.
	r = newTestRetriever(t, embedder, chunks, Options{Enabled: true, TopK: 3, MaxContextChars: 20})
	got, err = r.Retrieve(context.Background(), session, "advice")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRetrieveSanitizesAndTrimsSnippets(t *testing.T) {
	embedder := &hashEmbedder{}
	r := newTestRetriever(t, embedder, []vectorstore.Chunk{
		{
			ID:        "doc.md:0",
			Source:    "doc.md",
			Title:     "Doc",
			Text:      "## Heading\nRead [the guide](https://example.com/guide) and visit https://example.com for *more*.",
			Embedding: []float32{1, 1},
		},
	}, Options{Enabled: true, TopK: 1})

	session := store.NewSession("s1", "retrieve_knowledge")
	chunks, err := r.Retrieve(context.Background(), session, "guide")
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	snippet := chunks[0].Snippet
	assert.NotContains(t, snippet, "#")
	assert.NotContains(t, snippet, "*")
	assert.NotContains(t, snippet, "https://")
	assert.NotContains(t, snippet, "[")
	assert.Contains(t, snippet, "the guide")
	require.NotNil(t, chunks[0].Score)
}

func TestTrimSnippetBreaksOnWordBoundary(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	out := trimSnippet(text, 25)

	assert.LessOrEqual(t, len([]rune(out)), 26)
	assert.True(t, len(out) > 0)
	assert.Equal(t, "…", string([]rune(out)[len([]rune(out))-1]))
	assert.NotContains(t, out, "thre…")
}
