package retrieval

import "errors"

var (
	// ErrRetrievalUnavailable means the index is missing or unreadable.
	// Retrieval degrades to an empty result; the turn still completes.
	ErrRetrievalUnavailable = errors.New("retrieval index unavailable")

	// ErrIngestion fails the whole ingestion run. A partial index is never
	// persisted; the previously persisted index stays untouched.
	ErrIngestion = errors.New("ingestion failed")
)
