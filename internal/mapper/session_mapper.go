package mapper

import (
	"encoding/json"
	"fmt"

	"ai-mentor-be/internal/model"
	"ai-mentor-be/pkg/store"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToModel(s *store.Session) (*model.MentorSession, error) {
	if s == nil {
		return nil, nil
	}

	doc, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session document: %w", err)
	}

	return &model.MentorSession{
		Id:            s.ID,
		CurrentNodeId: s.CurrentNodeID,
		CurrentPeriod: s.CurrentPeriod,
		MessageCount:  s.MessageCount,
		Document:      doc,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}, nil
}

func (m *SessionMapper) ToSession(row *model.MentorSession) (*store.Session, error) {
	if row == nil {
		return nil, nil
	}

	var s store.Session
	if err := json.Unmarshal(row.Document, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session document: %w", err)
	}

	// Columns win over the document copy; they are what got indexed.
	s.ID = row.Id
	s.CurrentNodeID = row.CurrentNodeId
	s.CurrentPeriod = row.CurrentPeriod
	s.MessageCount = row.MessageCount
	return &s, nil
}
