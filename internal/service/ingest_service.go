package service

import (
	"context"

	"ai-mentor-be/internal/config"
	"ai-mentor-be/internal/pkg/logger"
	"ai-mentor-be/pkg/events"
	"ai-mentor-be/pkg/retrieval"
)

// IIngestService rebuilds the retrieval index from the configured corpus.
// Ingestion is an offline, exclusive operation: it never runs inside the
// HTTP server against the same index live retrieval reads.
type IIngestService interface {
	Rebuild(ctx context.Context) (int, error)
}

type ingestService struct {
	ingester  *retrieval.Ingester
	cfg       config.RetrievalConfig
	publisher EventPublisher
	logger    logger.ILogger
}

func NewIngestService(ingester *retrieval.Ingester, cfg config.RetrievalConfig, publisher EventPublisher, log logger.ILogger) IIngestService {
	return &ingestService{
		ingester:  ingester,
		cfg:       cfg,
		publisher: publisher,
		logger:    log,
	}
}

func (s *ingestService) Rebuild(ctx context.Context) (int, error) {
	s.logger.Info("INGEST", "corpus rebuild started", map[string]interface{}{
		"corpus_path": s.cfg.CorpusPath,
		"index_path":  s.cfg.IndexPath,
	})

	count, err := s.ingester.BuildIndex(ctx, s.cfg.CorpusPath, s.cfg.IndexPath)
	if err != nil {
		s.logger.Error("INGEST", "corpus rebuild failed", map[string]interface{}{
			"error": err.Error(),
		})
		return 0, err
	}

	s.logger.Info("INGEST", "corpus rebuild finished", map[string]interface{}{
		"chunk_count": count,
	})

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewIngestionCompleted(s.cfg.CorpusPath, count)); err != nil {
			s.logger.Warn("INGEST", "failed to publish event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return count, nil
}
