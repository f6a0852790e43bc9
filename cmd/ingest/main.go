package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"ai-mentor-be/internal/config"
	"ai-mentor-be/internal/pkg/logger"
	"ai-mentor-be/internal/service"
	embeddingFactory "ai-mentor-be/pkg/embedding/factory"
	"ai-mentor-be/pkg/retrieval"

	"github.com/fatih/color"
)

// Rebuilds the knowledge index from the corpus directory. Run this whenever
// corpus files change; the running server keeps serving the old index until
// the new one is swapped in.
func main() {
	corpusFlag := flag.String("corpus", "", "override RETRIEVAL_CORPUS_PATH")
	indexFlag := flag.String("index", "", "override RETRIEVAL_INDEX_PATH")
	flag.Parse()

	cfg := config.Load()
	if *corpusFlag != "" {
		cfg.Retrieval.CorpusPath = *corpusFlag
	}
	if *indexFlag != "" {
		cfg.Retrieval.IndexPath = *indexFlag
	}

	color.Cyan("🚀 Rebuilding knowledge index")
	color.Yellow("Corpus: %s", cfg.Retrieval.CorpusPath)
	color.Yellow("Index:  %s", cfg.Retrieval.IndexPath)

	embeddingProvider, err := embeddingFactory.NewEmbeddingProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.EmbeddingModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.EmbeddingAPIKey,
	)
	if err != nil {
		log.Fatalf("Failed to initialize embedding provider: %v", err)
	}
	color.Yellow("Embedder: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)

	// File-only logger keeps the CLI output readable.
	sysLogger := logger.NewIsolatedLogger("logs/ingest.log")
	defer sysLogger.Sync()

	ingester := retrieval.NewIngester(
		embeddingProvider,
		retrieval.NewChunker(cfg.Retrieval.ChunkChars, cfg.Retrieval.ChunkOverlap),
		retrieval.NewPlainTextExtractor(),
		retrieval.NewPDFExtractor(cfg.Retrieval.PDFPageLimit),
	)
	ingestService := service.NewIngestService(ingester, cfg.Retrieval, nil, sysLogger)

	start := time.Now()
	chunkCount, err := ingestService.Rebuild(context.Background())
	if err != nil {
		color.Red("Ingestion failed: %v", err)
		os.Exit(1)
	}

	color.Green("✅ Indexed %d chunks in %s", chunkCount, time.Since(start).Round(time.Millisecond))
}
