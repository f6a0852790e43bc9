package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"ai-mentor-be/pkg/llm"
	"ai-mentor-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider returns canned responses and counts calls, so tests can
// assert exactly when the engine reaches for the model.
type fakeProvider struct {
	response string
	err      error
	calls    int
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestAppendKeepsRecentWindowBounded(t *testing.T) {
	provider := &fakeProvider{response: "summary"}
	engine := NewEngine(provider, 0)
	session := store.NewSession("s1", "collect_basic_info")

	for i := 0; i < 9; i++ {
		msg := store.Message{Role: "assistant", Content: fmt.Sprintf("message %d", i)}
		require.NoError(t, engine.Append(context.Background(), session, msg))
	}

	assert.Len(t, session.PromptContext.RecentMessages, RecentWindowSize)
	assert.Equal(t, "message 8", session.PromptContext.RecentMessages[RecentWindowSize-1].Content)
	assert.Equal(t, "message 4", session.PromptContext.RecentMessages[0].Content)
	assert.Len(t, session.History, 9)
	assert.Equal(t, 9, session.MessageCount)
}

func TestAppendSummarizesOnInterval(t *testing.T) {
	provider := &fakeProvider{response: "the student discussed goals"}
	engine := NewEngine(provider, 0)
	session := store.NewSession("s1", "collect_basic_info")

	for i := 0; i < 25; i++ {
		msg := store.Message{Role: "assistant", Content: fmt.Sprintf("message %d", i)}
		require.NoError(t, engine.Append(context.Background(), session, msg))
	}

	// One refresh at message 20, none before or after.
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, "the student discussed goals", session.PromptContext.RunningSummary)
	assert.Equal(t, 25, session.MessageCount)
}

func TestAppendSummarizationFailureIsNonFatal(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model offline")}
	engine := NewEngine(provider, 0)
	session := store.NewSession("s1", "collect_basic_info")

	var lastErr error
	for i := 0; i < 20; i++ {
		msg := store.Message{Role: "user", Content: fmt.Sprintf("plain message %d", i)}
		lastErr = engine.Append(context.Background(), session, msg)
	}

	require.Error(t, lastErr)
	assert.ErrorIs(t, lastErr, ErrSummarization)
	// Everything but the summary was applied.
	assert.Equal(t, 20, session.MessageCount)
	assert.Len(t, session.History, 20)
	assert.Empty(t, session.PromptContext.RunningSummary)
}

func TestAppendExtractsFactsFromUserMessages(t *testing.T) {
	provider := &fakeProvider{}
	engine := NewEngine(provider, 0)
	session := store.NewSession("s1", "collect_basic_info")
	session.CurrentPeriod = 3

	msg := store.Message{Role: "user", Content: "My goal is to become a data engineer. The weather is nice."}
	require.NoError(t, engine.Append(context.Background(), session, msg))

	require.Len(t, session.PromptContext.ImportantFacts, 1)
	fact := session.PromptContext.ImportantFacts[0]
	assert.Equal(t, "My goal is to become a data engineer", fact.Fact)
	assert.Equal(t, 3, fact.Period)
	assert.Equal(t, 0.9, fact.ImportanceScore)
	assert.False(t, fact.Timestamp.IsZero())

	// Assistant messages never produce facts.
	echo := store.Message{Role: "assistant", Content: "My goal is to help you get there."}
	require.NoError(t, engine.Append(context.Background(), session, echo))
	assert.Len(t, session.PromptContext.ImportantFacts, 1)
}

func TestClosePeriodResetsWorkingState(t *testing.T) {
	provider := &fakeProvider{response: "week one went well"}
	engine := NewEngine(provider, 0)
	session := store.NewSession("s1", "week1_chat")

	for i := 0; i < 7; i++ {
		msg := store.Message{Role: "user", Content: "I want to practice interviews every day this week"}
		require.NoError(t, engine.Append(context.Background(), session, msg))
	}

	require.NoError(t, engine.ClosePeriod(context.Background(), session, 1))

	require.Len(t, session.PromptContext.WeeklySummaries, 1)
	weekly := session.PromptContext.WeeklySummaries[1]
	assert.Equal(t, "week one went well", weekly.Summary)
	assert.Equal(t, 7, weekly.MessageCount)
	assert.NotEmpty(t, weekly.Facts)

	assert.Zero(t, session.MessageCount)
	assert.Empty(t, session.History)
	assert.Empty(t, session.PromptContext.RecentMessages)
	assert.Empty(t, session.PromptContext.RunningSummary)
	// Extracted facts survive the period boundary.
	assert.NotEmpty(t, session.PromptContext.ImportantFacts)
}

func TestClosePeriodFailureLeavesSessionUntouched(t *testing.T) {
	provider := &fakeProvider{response: "ok"}
	engine := NewEngine(provider, 0)
	session := store.NewSession("s1", "week1_chat")

	for i := 0; i < 4; i++ {
		msg := store.Message{Role: "user", Content: "I plan to finish the course module"}
		require.NoError(t, engine.Append(context.Background(), session, msg))
	}

	provider.err = errors.New("model offline")
	err := engine.ClosePeriod(context.Background(), session, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSummarization)

	assert.Equal(t, 4, session.MessageCount)
	assert.Len(t, session.History, 4)
	assert.Empty(t, session.PromptContext.WeeklySummaries)
}

func TestFormatContextOrdering(t *testing.T) {
	engine := NewEngine(&fakeProvider{}, 0)
	session := store.NewSession("s1", "week2_chat")
	session.PromptContext.RunningSummary = "the student is preparing for interviews"
	session.PromptContext.RecentMessages = []store.Message{
		{Role: "user", Content: "what should I do next"},
	}
	session.PromptContext.ImportantFacts = []store.Fact{
		{Fact: "My goal is to switch to backend work", Period: 1, ImportanceScore: 0.9},
	}
	session.PromptContext.WeeklySummaries = map[int]store.PeriodSummary{
		2: {Summary: "worked on algorithms"},
		1: {Summary: "set up the study plan"},
	}

	out := engine.FormatContext(session)

	summaryIdx := strings.Index(out, "Conversation so far:")
	recentIdx := strings.Index(out, "Recent messages:")
	factsIdx := strings.Index(out, "Known facts about the student:")
	weeksIdx := strings.Index(out, "Previous weeks:")

	require.True(t, summaryIdx >= 0 && recentIdx >= 0 && factsIdx >= 0 && weeksIdx >= 0, "all sections present:\n%s", out)
	assert.Less(t, summaryIdx, recentIdx)
	assert.Less(t, recentIdx, factsIdx)
	assert.Less(t, factsIdx, weeksIdx)

	// Weekly summaries come out in ascending period order.
	assert.Less(t, strings.Index(out, "Week 1:"), strings.Index(out, "Week 2:"))
}

func TestFormatContextDropsOldestWeekliesFirst(t *testing.T) {
	engine := NewEngine(&fakeProvider{}, 300)
	session := store.NewSession("s1", "week4_chat")
	session.PromptContext.RecentMessages = []store.Message{
		{Role: "user", Content: "short"},
	}
	filler := strings.Repeat("x", 120)
	session.PromptContext.WeeklySummaries = map[int]store.PeriodSummary{
		1: {Summary: filler},
		2: {Summary: filler},
		3: {Summary: "kept week"},
	}

	out := engine.FormatContext(session)

	assert.Contains(t, out, "Recent messages:")
	assert.Contains(t, out, "Week 3: kept week")
	assert.NotContains(t, out, "Week 1:")
	assert.LessOrEqual(t, len(out), 300)
}

func TestFormatContextCapsFactCount(t *testing.T) {
	engine := NewEngine(&fakeProvider{}, 0)
	session := store.NewSession("s1", "week1_chat")
	for i := 0; i < FactDisplayLimit+5; i++ {
		session.PromptContext.ImportantFacts = append(session.PromptContext.ImportantFacts, store.Fact{
			Fact:   fmt.Sprintf("fact number %d", i),
			Period: 1,
		})
	}

	out := engine.FormatContext(session)

	assert.NotContains(t, out, "fact number 4")
	assert.Contains(t, out, fmt.Sprintf("fact number %d", FactDisplayLimit+4))
	assert.Equal(t, FactDisplayLimit, strings.Count(out, "- fact number"))
}

func TestExtractFactsScoring(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		wantCount int
		wantScore float64
	}{
		{
			name:      "goal statement scores highest",
			message:   "My goal is to lead a team",
			wantCount: 1,
			wantScore: 0.9,
		},
		{
			name:      "plan statement",
			message:   "I will study two hours every evening",
			wantCount: 1,
			wantScore: 0.7,
		},
		{
			name:      "background statement",
			message:   "I work as a junior accountant",
			wantCount: 1,
			wantScore: 0.5,
		},
		{
			name:      "preference statement",
			message:   "I like building small tools",
			wantCount: 1,
			wantScore: 0.3,
		},
		{
			name:      "no marker",
			message:   "The meeting is on Thursday afternoon",
			wantCount: 0,
		},
		{
			name:      "too short",
			message:   "I like it!",
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := ExtractFacts(tt.message, 1)
			require.Len(t, facts, tt.wantCount)
			if tt.wantCount > 0 {
				assert.Equal(t, tt.wantScore, facts[0].ImportanceScore)
			}
		})
	}
}
