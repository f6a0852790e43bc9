package store

import "time"

// Message is a single conversational turn in provider-agnostic form.
type Message struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// Fact is an extracted piece of durable knowledge about the user,
// tagged with the period it was learned in and a salience score in [0,1].
type Fact struct {
	Fact            string    `json:"fact"`
	Period          int       `json:"period"`
	ImportanceScore float64   `json:"importance_score"`
	Timestamp       time.Time `json:"timestamp"`
}

// PeriodSummary is the compacted record of one finished coaching period.
type PeriodSummary struct {
	Summary      string    `json:"summary"`
	Facts        []Fact    `json:"facts"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
}

// PromptContext is the memory engine's compacted view of the conversation.
// It is the only history representation fed to the generative model.
type PromptContext struct {
	RunningSummary  string                `json:"running_summary,omitempty"`
	RecentMessages  []Message             `json:"recent_messages"`
	ImportantFacts  []Fact                `json:"important_facts"`
	WeeklySummaries map[int]PeriodSummary `json:"weekly_summaries"`
}

// RetrievedChunk is a knowledge snippet attached to the session by the
// retrieval node, consumed by the immediately following generation node.
type RetrievedChunk struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Snippet string   `json:"snippet"`
	Source  string   `json:"source"`
	Score   *float64 `json:"score"`
}

// Session represents the active conversation state for one user session.
// It is the single mutable aggregate threaded through every turn; the
// graph processor, state manager and memory engine all operate on it.
type Session struct {
	ID string `json:"id"`

	// Collected fields written by graph nodes (goals, skills, plan, ...).
	// Each key is owned by the node(s) whitelisted to write it.
	Fields map[string]any `json:"fields"`

	// CurrentNodeID is the active graph node; mutated only by the graph
	// processor after a turn completes.
	CurrentNodeID string `json:"current_node_id"`

	// History is the full ordered transcript, kept for external consumers.
	// The core never truncates it except at period boundaries.
	History []Message `json:"history"`

	PromptContext PromptContext `json:"prompt_context"`

	// MessageCount counts messages within the current period; reset to 0
	// when a period summary is created.
	MessageCount int `json:"message_count"`

	// CurrentPeriod is the active coaching week, starting at 1.
	CurrentPeriod int `json:"current_period"`

	// RetrievedChunks is written by the retrieval node and overwritten on
	// each retrieval run; transient within the session.
	RetrievedChunks []RetrievedChunk `json:"retrieved_chunks,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession returns a session positioned at the entry node of the graph.
func NewSession(id string, entryNode string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:            id,
		Fields:        make(map[string]any),
		CurrentNodeID: entryNode,
		History:       []Message{},
		PromptContext: PromptContext{
			RecentMessages:  []Message{},
			ImportantFacts:  []Fact{},
			WeeklySummaries: make(map[int]PeriodSummary),
		},
		CurrentPeriod: 1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Clone returns a deep copy of the session. The turn pipeline mutates a
// clone and swaps it in only on success, so a failed turn leaves the
// caller's state untouched.
func (s *Session) Clone() *Session {
	c := *s

	c.Fields = make(map[string]any, len(s.Fields))
	for k, v := range s.Fields {
		c.Fields[k] = v
	}

	c.History = append([]Message(nil), s.History...)
	c.RetrievedChunks = append([]RetrievedChunk(nil), s.RetrievedChunks...)

	c.PromptContext.RecentMessages = append([]Message(nil), s.PromptContext.RecentMessages...)
	c.PromptContext.ImportantFacts = append([]Fact(nil), s.PromptContext.ImportantFacts...)
	c.PromptContext.WeeklySummaries = make(map[int]PeriodSummary, len(s.PromptContext.WeeklySummaries))
	for k, v := range s.PromptContext.WeeklySummaries {
		v.Facts = append([]Fact(nil), v.Facts...)
		c.PromptContext.WeeklySummaries[k] = v
	}

	return &c
}

// FieldString returns a collected field as a string, or "" when absent
// or of another type.
func (s *Session) FieldString(key string) string {
	if v, ok := s.Fields[key].(string); ok {
		return v
	}
	return ""
}

// FieldStrings returns a collected list field as strings. JSON round-trips
// store lists as []any, so both representations are accepted.
func (s *Session) FieldStrings(key string) []string {
	switch v := s.Fields[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
