package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-mentor-be/internal/dto"
	"ai-mentor-be/internal/pkg/logger"
	"ai-mentor-be/internal/pkg/serverutils"
	memoryRepo "ai-mentor-be/internal/repository/memory"
	"ai-mentor-be/pkg/events"
	"ai-mentor-be/pkg/graph"
	"ai-mentor-be/pkg/graph/state"
	"ai-mentor-be/pkg/llm"
	"ai-mentor-be/pkg/memory"
	"ai-mentor-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }
func (nopLogger) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return nil, nil
}
func (nopLogger) GetLogById(id string) (*logger.LogEntry, error) { return nil, nil }

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *capturePublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type scriptedProvider struct {
	mu        sync.Mutex
	responses []string
	err       error
}

func (f *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (f *scriptedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no scripted response left")
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	return next, nil
}

func newChatFixture(provider llm.LLMProvider, publisher EventPublisher) IChatService {
	engine := memory.NewEngine(provider, 0)
	mentorGraph := graph.NewRootGraph(func(ctx context.Context, userMessage string, session *store.Session) (*graph.ExecutorResult, error) {
		return &graph.ExecutorResult{Next: "generate_plan"}, nil
	})
	processor := graph.NewProcessor(mentorGraph, provider, state.NewManager(engine), engine)

	return NewChatService(
		memoryRepo.NewSessionRepository(),
		processor,
		engine,
		NewInProcessLocker(),
		publisher,
		nopLogger{},
		30*time.Second,
	)
}

func TestCreateSessionStartsAtEntryNode(t *testing.T) {
	publisher := &capturePublisher{}
	svc := newChatFixture(&scriptedProvider{}, publisher)

	res, err := svc.CreateSession(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.Id)
	assert.Equal(t, graph.EntryNodeID, res.CurrentNodeId)
	assert.Equal(t, []string{events.TypeSessionCreated}, publisher.types())

	status, err := svc.GetStatus(context.Background(), res.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, status.CurrentPeriod)
	assert.Zero(t, status.Memory.MessageCount)
}

func TestSendChatUnknownSession(t *testing.T) {
	svc := newChatFixture(&scriptedProvider{}, nil)

	_, err := svc.SendChat(context.Background(), "missing", &dto.SendChatRequest{Message: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, serverutils.ErrNotFound)
}

func TestSendChatPersistsSuccessfulTurn(t *testing.T) {
	publisher := &capturePublisher{}
	provider := &scriptedProvider{responses: []string{
		`{"reply": "Welcome, Dina!", "user_name": "Dina", "user_age": 24}`,
	}}
	svc := newChatFixture(provider, publisher)

	created, err := svc.CreateSession(context.Background())
	require.NoError(t, err)

	res, err := svc.SendChat(context.Background(), created.Id, &dto.SendChatRequest{Message: "Hi, I'm Dina, 24"})
	require.NoError(t, err)
	assert.Equal(t, "Welcome, Dina!", res.Reply)
	assert.Equal(t, "classify_category", res.CurrentNodeId)

	status, err := svc.GetStatus(context.Background(), created.Id)
	require.NoError(t, err)
	assert.Equal(t, "classify_category", status.CurrentNodeId)
	assert.Equal(t, "Dina", status.Fields["user_name"])
	assert.Equal(t, 2, status.Memory.MessageCount)

	assert.Equal(t, []string{events.TypeSessionCreated, events.TypeTurnCompleted}, publisher.types())
}

func TestSendChatFailedTurnLeavesStateUntouched(t *testing.T) {
	provider := &scriptedProvider{}
	svc := newChatFixture(provider, nil)

	created, err := svc.CreateSession(context.Background())
	require.NoError(t, err)

	provider.err = errors.New("model offline")
	_, err = svc.SendChat(context.Background(), created.Id, &dto.SendChatRequest{Message: "hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrGeneration)

	status, err := svc.GetStatus(context.Background(), created.Id)
	require.NoError(t, err)
	assert.Equal(t, graph.EntryNodeID, status.CurrentNodeId)
	assert.Zero(t, status.Memory.MessageCount)
	assert.Empty(t, status.Fields)
}

func TestSendChatPublisherFailureDoesNotFailTurn(t *testing.T) {
	publisher := &capturePublisher{err: errors.New("nats down")}
	provider := &scriptedProvider{responses: []string{
		`{"reply": "Hello!"}`,
	}}
	svc := newChatFixture(provider, publisher)

	created, err := svc.CreateSession(context.Background())
	require.NoError(t, err)

	res, err := svc.SendChat(context.Background(), created.Id, &dto.SendChatRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", res.Reply)
}
