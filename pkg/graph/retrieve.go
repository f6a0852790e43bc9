package graph

import (
	"context"

	"ai-mentor-be/internal/pkg/logger"
	"ai-mentor-be/pkg/retrieval"
	"ai-mentor-be/pkg/store"
)

// NewRetrieveExecutor bridges the retrieval engine into the graph's
// deterministic node. Retrieval failures degrade to an empty chunk list:
// snippets are supplementary context and never block plan generation.
func NewRetrieveExecutor(retriever *retrieval.Retriever, log logger.ILogger) ExecutorFunc {
	return func(ctx context.Context, userMessage string, session *store.Session) (*ExecutorResult, error) {
		chunks, err := retriever.Retrieve(ctx, session, userMessage)
		if err != nil {
			log.Warn("graph", "retrieval degraded to empty result", map[string]interface{}{
				"session_id": session.ID,
				"error":      err.Error(),
			})
			chunks = []store.RetrievedChunk{}
		}

		return &ExecutorResult{
			Reply:   "",
			Outputs: map[string]any{"retrieved_chunks": chunks},
			Next:    "generate_plan",
		}, nil
	}
}
