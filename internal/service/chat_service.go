package service

import (
	"context"
	"fmt"
	"time"

	"ai-mentor-be/internal/dto"
	"ai-mentor-be/internal/pkg/logger"
	"ai-mentor-be/internal/pkg/serverutils"
	"ai-mentor-be/internal/repository/contract"
	"ai-mentor-be/pkg/events"
	"ai-mentor-be/pkg/graph"
	"ai-mentor-be/pkg/memory"
	"ai-mentor-be/pkg/store"

	"github.com/google/uuid"
)

// EventPublisher is the slice of the NATS publisher the chat service needs.
// Nil-able: deployments without a bus simply skip events.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IChatService interface {
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	SendChat(ctx context.Context, sessionID string, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	GetStatus(ctx context.Context, sessionID string) (*dto.SessionStatusResponse, error)
}

type chatService struct {
	sessions    contract.SessionRepository
	processor   *graph.Processor
	memory      *memory.Engine
	locker      SessionLocker
	publisher   EventPublisher
	logger      logger.ILogger
	turnTimeout time.Duration
}

func NewChatService(
	sessions contract.SessionRepository,
	processor *graph.Processor,
	memoryEngine *memory.Engine,
	locker SessionLocker,
	publisher EventPublisher,
	log logger.ILogger,
	turnTimeout time.Duration,
) IChatService {
	return &chatService{
		sessions:    sessions,
		processor:   processor,
		memory:      memoryEngine,
		locker:      locker,
		publisher:   publisher,
		logger:      log,
		turnTimeout: turnTimeout,
	}
}

func (s *chatService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	session := store.NewSession(uuid.NewString(), graph.EntryNodeID)

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("CHAT", "session created", map[string]interface{}{
		"session_id": session.ID,
	})
	s.emit(ctx, events.NewSessionCreated(session.ID))

	return &dto.CreateSessionResponse{
		Id:            session.ID,
		CurrentNodeId: session.CurrentNodeID,
		CreatedAt:     session.CreatedAt,
	}, nil
}

// SendChat runs one turn. Turns on the same session are serialized; the
// session is only persisted after the whole turn succeeded, so a failed or
// timed-out turn leaves stored state untouched and the same input can be
// retried safely.
func (s *chatService) SendChat(ctx context.Context, sessionID string, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	release, err := s.locker.Acquire(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: session %s", serverutils.ErrConflict, sessionID)
	}
	defer release()

	session, err := s.sessions.FindById(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", serverutils.ErrNotFound, sessionID)
	}

	turnCtx, cancel := context.WithTimeout(ctx, s.turnTimeout)
	defer cancel()

	previousPeriod := session.CurrentPeriod

	result, err := s.processor.Process(turnCtx, session.CurrentNodeID, request.Message, session)
	if err != nil {
		s.logger.Error("CHAT", "turn failed", map[string]interface{}{
			"session_id": sessionID,
			"node_id":    session.CurrentNodeID,
			"error":      err.Error(),
		})
		return nil, err
	}
	if result.Warning != nil {
		s.logger.Warn("CHAT", "turn degraded", map[string]interface{}{
			"session_id": sessionID,
			"error":      result.Warning.Error(),
		})
	}

	if err := s.sessions.Save(ctx, result.Session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.emit(ctx, events.NewTurnCompleted(sessionID, session.CurrentNodeID, result.NextNodeID))
	if result.Session.CurrentPeriod > previousPeriod {
		s.emit(ctx, events.NewPeriodClosed(sessionID, previousPeriod))
	}

	return &dto.SendChatResponse{
		Reply:         result.Reply,
		CurrentNodeId: result.NextNodeID,
		CreatedAt:     result.Session.UpdatedAt,
	}, nil
}

func (s *chatService) GetStatus(ctx context.Context, sessionID string) (*dto.SessionStatusResponse, error) {
	session, err := s.sessions.FindById(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", serverutils.ErrNotFound, sessionID)
	}

	return &dto.SessionStatusResponse{
		Id:            session.ID,
		CurrentNodeId: session.CurrentNodeID,
		CurrentPeriod: session.CurrentPeriod,
		Fields:        session.Fields,
		Memory:        s.memory.Stats(session),
		CreatedAt:     session.CreatedAt,
		UpdatedAt:     session.UpdatedAt,
	}, nil
}

func (s *chatService) emit(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("CHAT", "failed to publish event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}
