package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"ai-mentor-be/pkg/embedding"
	"ai-mentor-be/pkg/vectorstore"
)

const (
	embedTopic          = "ingest.embed"
	defaultEmbedWorkers = 4
	headerMinRepeats    = 3
)

// Ingester builds the retrieval index from a corpus directory. A run either
// fully succeeds and swaps the persisted index, or leaves the previous index
// untouched. Chunk ids derive from source path and offset, so re-ingesting an
// unchanged corpus reproduces the same chunk set.
type Ingester struct {
	embedder   embedding.EmbeddingProvider
	extractors []TextExtractor
	chunker    *Chunker
	workers    int
}

func NewIngester(embedder embedding.EmbeddingProvider, chunker *Chunker, extractors ...TextExtractor) *Ingester {
	if len(extractors) == 0 {
		extractors = []TextExtractor{NewPlainTextExtractor()}
	}
	return &Ingester{
		embedder:   embedder,
		extractors: extractors,
		chunker:    chunker,
		workers:    defaultEmbedWorkers,
	}
}

// BuildIndex ingests the corpus and persists the resulting index at
// indexPath with a build-then-swap write.
func (i *Ingester) BuildIndex(ctx context.Context, corpusPath string, indexPath string) (int, error) {
	chunks, err := i.Ingest(ctx, corpusPath)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: no extractable documents under %s", ErrIngestion, corpusPath)
	}

	index := vectorstore.NewSimpleStore()
	if err := index.Add(ctx, chunks); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIngestion, err)
	}
	if err := index.Save(indexPath); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIngestion, err)
	}
	return len(chunks), nil
}

// Ingest walks the corpus and returns the embedded chunk set in corpus
// order: sources sorted by path, chunks by offset within each source.
func (i *Ingester) Ingest(ctx context.Context, corpusPath string) ([]vectorstore.Chunk, error) {
	sources, err := i.listSources(corpusPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIngestion, err)
	}

	var jobs []embedJob
	for _, src := range sources {
		extractor := i.extractorFor(src)

		title, raw, err := extractor.Extract(src)
		if err != nil {
			return nil, fmt.Errorf("%w: extract %s: %v", ErrIngestion, src, err)
		}

		text := NormalizeText(StripRepeatedLines(raw, headerMinRepeats))
		if text == "" {
			continue
		}

		rel, err := filepath.Rel(corpusPath, src)
		if err != nil {
			rel = filepath.Base(src)
		}
		rel = filepath.ToSlash(rel)

		for _, span := range i.chunker.Split(text) {
			jobs = append(jobs, embedJob{
				Index:  len(jobs),
				ID:     fmt.Sprintf("%s:%d", rel, span.Offset),
				Source: rel,
				Title:  title,
				Text:   span.Text,
				Offset: span.Offset,
			})
		}
	}

	if len(jobs) == 0 {
		return nil, nil
	}

	chunks, err := i.embedAll(ctx, jobs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIngestion, err)
	}
	return chunks, nil
}

func (i *Ingester) listSources(corpusPath string) ([]string, error) {
	var sources []string
	err := filepath.WalkDir(corpusPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != corpusPath {
				return filepath.SkipDir
			}
			return nil
		}
		if i.extractorFor(path) != nil {
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(sources)
	return sources, nil
}

func (i *Ingester) extractorFor(path string) TextExtractor {
	for _, e := range i.extractors {
		if e.Supports(path) {
			return e
		}
	}
	return nil
}

type embedJob struct {
	Index  int    `json:"index"`
	ID     string `json:"id"`
	Source string `json:"source"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	Offset int    `json:"offset"`
}

// embedAll fans chunk jobs out to a small worker pool over an in-process
// pub/sub channel. Results land back at their job index, so the returned
// slice keeps corpus order regardless of which worker finished first.
func (i *Ingester) embedAll(ctx context.Context, jobs []embedJob) ([]vectorstore.Chunk, error) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: int64(len(jobs)),
	}, watermill.NopLogger{})
	defer pubSub.Close()

	messages, err := pubSub.Subscribe(ctx, embedTopic)
	if err != nil {
		return nil, err
	}

	chunks := make([]vectorstore.Chunk, len(jobs))
	var (
		pending  sync.WaitGroup
		workers  sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	pending.Add(len(jobs))

	workerCount := i.workers
	if workerCount > len(jobs) {
		workerCount = len(jobs)
	}
	for w := 0; w < workerCount; w++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for msg := range messages {
				var job embedJob
				if err := json.Unmarshal(msg.Payload, &job); err != nil {
					msg.Ack()
					pending.Done()
					continue
				}

				res, embErr := i.embedder.Generate(ctx, job.Text, embedding.TaskRetrievalDocument)
				mu.Lock()
				if embErr != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("embed %s: %w", job.ID, embErr)
					}
				} else {
					chunks[job.Index] = vectorstore.Chunk{
						ID:        job.ID,
						Source:    job.Source,
						Title:     job.Title,
						Text:      job.Text,
						Offset:    job.Offset,
						Embedding: res.Embedding.Values,
					}
				}
				mu.Unlock()
				msg.Ack()
				pending.Done()
			}
		}()
	}

	for _, job := range jobs {
		payload, err := json.Marshal(job)
		if err != nil {
			return nil, err
		}
		if err := pubSub.Publish(embedTopic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
			return nil, err
		}
	}

	pending.Wait()
	pubSub.Close()
	workers.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return chunks, nil
}
