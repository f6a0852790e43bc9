package dto

import (
	"time"

	"ai-mentor-be/pkg/memory"
	"ai-mentor-be/pkg/store"
)

type CreateSessionResponse struct {
	Id            string    `json:"id"`
	CurrentNodeId string    `json:"current_node_id"`
	CreatedAt     time.Time `json:"created_at"`
}

type SendChatRequest struct {
	Message string `json:"message" validate:"required"`
}

type SendChatResponse struct {
	Reply         string    `json:"reply"`
	CurrentNodeId string    `json:"current_node_id"`
	CreatedAt     time.Time `json:"created_at"`
}

type SessionStatusResponse struct {
	Id            string         `json:"id"`
	CurrentNodeId string         `json:"current_node_id"`
	CurrentPeriod int            `json:"current_period"`
	Fields        map[string]any `json:"fields"`
	Memory        memory.Stats   `json:"memory"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type SearchRequest struct {
	Query string `json:"query" validate:"required"`
	TopK  int    `json:"top_k,omitempty"`
}

type SearchResponse struct {
	Query  string                 `json:"query"`
	Chunks []store.RetrievedChunk `json:"chunks"`
}

// --- System Log DTOs ---

type LogListResponse struct {
	Id        string    `json:"id"` // MD5 hash, not UUID
	Level     string    `json:"level"`
	Module    string    `json:"module"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type LogDetailResponse struct {
	LogListResponse
	Details map[string]interface{} `json:"details"`
}
