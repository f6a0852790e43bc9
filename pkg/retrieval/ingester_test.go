package retrieval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ai-mentor-be/pkg/embedding"
	"ai-mentor-be/pkg/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failAfterEmbedder fails every call once failAt is reached.
type failAfterEmbedder struct {
	hashEmbedder
	failAt int
}

func (f *failAfterEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.mu.Lock()
	failing := f.failAt > 0 && f.calls >= f.failAt
	f.calls++
	f.mu.Unlock()
	if failing {
		return nil, errors.New("quota exceeded")
	}
	return f.hashEmbedder.Generate(ctx, text, taskType)
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestIngestProducesDeterministicChunkIDs(t *testing.T) {
	corpus := writeCorpus(t, map[string]string{
		"guide.md":         "# Growth Guide\n\n" + strings.Repeat("Deliberate practice compounds over months. ", 40),
		"notes/week1.txt":  "Focus on one habit at a time for the first week.",
		"ignored/skip.bin": "binary noise",
	})

	ing := NewIngester(&hashEmbedder{}, NewChunker(400, 80))

	first, err := ing.Ingest(context.Background(), corpus)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := ing.Ingest(context.Background(), corpus)
	require.NoError(t, err)
	require.Len(t, second, len(first))

	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Offset, second[i].Offset)
		assert.Equal(t, first[i].Text, second[i].Text)
	}

	// Ids are source-relative with forward slashes, suffixed by offset.
	assert.Equal(t, "guide.md:0", first[0].ID)
	var sawNested bool
	for _, chunk := range first {
		if chunk.Source == "notes/week1.txt" {
			sawNested = true
			assert.Equal(t, "notes/week1.txt:0", chunk.ID)
		}
		assert.NotContains(t, chunk.Source, "skip.bin")
	}
	assert.True(t, sawNested)
}

func TestIngestExtractsMarkdownTitle(t *testing.T) {
	corpus := writeCorpus(t, map[string]string{
		"guide.md": "# Growth Guide\n\nSmall steps add up.",
	})

	ing := NewIngester(&hashEmbedder{}, NewChunker(400, 80))
	chunks, err := ing.Ingest(context.Background(), corpus)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "Growth Guide", chunks[0].Title)
	assert.NotEmpty(t, chunks[0].Embedding)
}

func TestIngestEmbedFailureFailsWholeRun(t *testing.T) {
	corpus := writeCorpus(t, map[string]string{
		"a.md": strings.Repeat("Sentence one for the corpus. ", 30),
		"b.md": strings.Repeat("Sentence two for the corpus. ", 30),
	})

	ing := NewIngester(&failAfterEmbedder{failAt: 2}, NewChunker(200, 40))
	chunks, err := ing.Ingest(context.Background(), corpus)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIngestion)
	assert.Nil(t, chunks)
}

func TestBuildIndexSwapsAtomically(t *testing.T) {
	corpus := writeCorpus(t, map[string]string{
		"guide.md": "Mentoring works best with weekly checkpoints and honest reviews.",
	})
	indexPath := filepath.Join(t.TempDir(), "index.json")

	ing := NewIngester(&hashEmbedder{}, NewChunker(400, 80))
	count, err := ing.BuildIndex(context.Background(), corpus, indexPath)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	store := vectorstore.NewSimpleStore()
	require.NoError(t, store.Load(indexPath))
	loaded, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)

	// A failed rebuild leaves the existing index in place.
	before, err := os.ReadFile(indexPath)
	require.NoError(t, err)

	failing := NewIngester(&failAfterEmbedder{failAt: 0, hashEmbedder: hashEmbedder{err: errors.New("down")}}, NewChunker(400, 80))
	_, err = failing.BuildIndex(context.Background(), corpus, indexPath)
	require.Error(t, err)

	after, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestBuildIndexEmptyCorpus(t *testing.T) {
	corpus := t.TempDir()
	indexPath := filepath.Join(t.TempDir(), "index.json")

	ing := NewIngester(&hashEmbedder{}, NewChunker(400, 80))
	_, err := ing.BuildIndex(context.Background(), corpus, indexPath)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIngestion)
	_, statErr := os.Stat(indexPath)
	assert.True(t, os.IsNotExist(statErr))
}
