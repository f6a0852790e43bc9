package service

import (
	"context"

	"ai-mentor-be/internal/dto"
	"ai-mentor-be/internal/pkg/logger"
	"ai-mentor-be/pkg/retrieval"
	"ai-mentor-be/pkg/store"
)

// ISearchService exposes the retrieval index directly, which is how corpus
// quality gets checked without driving a whole conversation to the
// retrieval node.
type ISearchService interface {
	Search(ctx context.Context, query string, topK int) (*dto.SearchResponse, error)
}

type searchService struct {
	retriever *retrieval.Retriever
	logger    logger.ILogger
}

func NewSearchService(retriever *retrieval.Retriever, log logger.ILogger) ISearchService {
	return &searchService{retriever: retriever, logger: log}
}

func (s *searchService) Search(ctx context.Context, query string, topK int) (*dto.SearchResponse, error) {
	// A probe query carries no session fields; a throwaway session keeps
	// the retriever contract uniform.
	probe := store.NewSession("search-probe", "")

	chunks, err := s.retriever.RetrieveTopK(ctx, probe, query, topK)
	if err != nil {
		s.logger.Warn("SEARCH", "probe query degraded", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return nil, err
	}

	return &dto.SearchResponse{
		Query:  query,
		Chunks: chunks,
	}, nil
}
