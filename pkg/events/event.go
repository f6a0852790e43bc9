package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "TURN_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the common implementation used by all domain events.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

const (
	TypeTurnCompleted      = "TURN_COMPLETED"
	TypePeriodClosed       = "PERIOD_CLOSED"
	TypeIngestionCompleted = "INGESTION_COMPLETED"
	TypeSessionCreated     = "SESSION_CREATED"
)

// NewTurnCompleted fires after a conversational turn has been processed and
// persisted.
func NewTurnCompleted(sessionID string, nodeID string, nextNodeID string) Event {
	return BaseEvent{
		Type: TypeTurnCompleted,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"node_id":    nodeID,
			"next_node":  nextNodeID,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// NewPeriodClosed fires when a mentoring week has been summarized and reset.
func NewPeriodClosed(sessionID string, period int) Event {
	return BaseEvent{
		Type: TypePeriodClosed,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"period":     period,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// NewSessionCreated fires when a new mentoring session starts.
func NewSessionCreated(sessionID string) Event {
	return BaseEvent{
		Type: TypeSessionCreated,
		Data: map[string]interface{}{
			"session_id": sessionID,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// NewIngestionCompleted fires after a corpus rebuild has been persisted.
func NewIngestionCompleted(corpusPath string, chunkCount int) Event {
	return BaseEvent{
		Type: TypeIngestionCompleted,
		Data: map[string]interface{}{
			"corpus_path": corpusPath,
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now().UTC(),
	}
}
