package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-mentor-be/pkg/llm"
	"ai-mentor-be/pkg/store"
)

// ErrSummarization marks a failed summary generation. The previous summary
// stays in place and the turn keeps going, so callers log this instead of
// failing on it.
var ErrSummarization = errors.New("summarization failed")

const (
	// RecentWindowSize bounds prompt_context.recent_messages.
	RecentWindowSize = 5

	// SummaryInterval is how many appended messages trigger a running
	// summary refresh.
	SummaryInterval = 20

	// FactDisplayLimit caps how many recent facts FormatContext includes.
	FactDisplayLimit = 10

	defaultMaxContextChars = 6000
)

// Engine keeps the conversation context fed to the model bounded no matter
// how long a session runs: a small recent-message window, a running summary
// refreshed on a fixed interval, per-period summaries, and extracted facts.
type Engine struct {
	provider        llm.LLMProvider
	maxContextChars int
}

func NewEngine(provider llm.LLMProvider, maxContextChars int) *Engine {
	if maxContextChars <= 0 {
		maxContextChars = defaultMaxContextChars
	}
	return &Engine{
		provider:        provider,
		maxContextChars: maxContextChars,
	}
}

// Append records one message into the session's history and rolling window,
// extracts facts from user messages, and refreshes the running summary on
// every SummaryInterval-th message. A summarization failure is reported as
// ErrSummarization but leaves everything else applied.
func (e *Engine) Append(ctx context.Context, session *store.Session, msg store.Message) error {
	session.History = append(session.History, msg)

	session.PromptContext.RecentMessages = append(session.PromptContext.RecentMessages, msg)
	if len(session.PromptContext.RecentMessages) > RecentWindowSize {
		session.PromptContext.RecentMessages = session.PromptContext.RecentMessages[len(session.PromptContext.RecentMessages)-RecentWindowSize:]
	}

	session.MessageCount++

	if msg.Role == "user" {
		facts := ExtractFacts(msg.Content, session.CurrentPeriod)
		session.PromptContext.ImportantFacts = append(session.PromptContext.ImportantFacts, facts...)
	}

	if session.MessageCount%SummaryInterval == 0 {
		summary, err := e.summarizeHistory(ctx, session.History)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSummarization, err)
		}
		session.PromptContext.RunningSummary = summary
	}

	return nil
}

// ClosePeriod condenses the finished period into weekly_summaries and wipes
// the working history. The reset is destructive on purpose: raw transcript
// detail is traded for a compact summary kept indefinitely. If the summary
// cannot be generated the session is left untouched so the close can be
// retried.
func (e *Engine) ClosePeriod(ctx context.Context, session *store.Session, periodNumber int) error {
	periodFacts := factsForPeriod(session.PromptContext.ImportantFacts, periodNumber)

	summary, err := e.summarizePeriod(ctx, session.History, periodFacts, periodNumber)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSummarization, err)
	}

	if session.PromptContext.WeeklySummaries == nil {
		session.PromptContext.WeeklySummaries = make(map[int]store.PeriodSummary)
	}
	session.PromptContext.WeeklySummaries[periodNumber] = store.PeriodSummary{
		Summary:      summary,
		Facts:        periodFacts,
		CreatedAt:    time.Now().UTC(),
		MessageCount: session.MessageCount,
	}

	e.ClearWorkingHistory(session)

	return nil
}

// ClearWorkingHistory wipes the transcript, the recent window and the
// running summary without producing a period summary. Used when a
// conversation phase ends and its content was already condensed elsewhere.
// Facts and weekly summaries are kept.
func (e *Engine) ClearWorkingHistory(session *store.Session) {
	session.History = nil
	session.PromptContext.RecentMessages = nil
	session.PromptContext.RunningSummary = ""
	session.MessageCount = 0
}

// Stats exposes counters for the status endpoint.
type Stats struct {
	MessageCount      int  `json:"message_count"`
	RecentMessages    int  `json:"recent_messages"`
	ImportantFacts    int  `json:"important_facts"`
	WeeklySummaries   int  `json:"weekly_summaries"`
	HasRunningSummary bool `json:"has_running_summary"`
}

func (e *Engine) Stats(session *store.Session) Stats {
	return Stats{
		MessageCount:      session.MessageCount,
		RecentMessages:    len(session.PromptContext.RecentMessages),
		ImportantFacts:    len(session.PromptContext.ImportantFacts),
		WeeklySummaries:   len(session.PromptContext.WeeklySummaries),
		HasRunningSummary: session.PromptContext.RunningSummary != "",
	}
}

func factsForPeriod(facts []store.Fact, period int) []store.Fact {
	var out []store.Fact
	for _, f := range facts {
		if f.Period == period {
			out = append(out, f)
		}
	}
	return out
}
