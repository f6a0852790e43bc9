package state

import (
	"context"
	"fmt"
	"time"

	"ai-mentor-be/pkg/memory"
	"ai-mentor-be/pkg/store"
)

// controlKeys are turn-control outputs that never land in session fields.
var controlKeys = map[string]bool{
	"reply":            true,
	"next":             true,
	"period_closed":    true,
	"retrieved_chunks": true,
}

// writableFields narrows the session fields known nodes may set beyond
// their declared output schema, so a misbehaving response cannot corrupt
// fields owned by other nodes. Nodes without an entry fall back to their
// schema alone.
var writableFields = map[string][]string{
	"collect_basic_info": {"user_name", "user_age"},
	"classify_category":  {"goal_type"},
	"improve_intro":      {"job_circumstances"},
	"improve_skills":     {"skills", "interests", "activities", "exciting_topics"},
	"improve_obstacles":  {"goals", "negative_qualities"},
	"change_intro":       {"career_change_circumstances"},
	"change_skills":      {"skills", "interests", "activities", "exciting_topics"},
	"change_obstacles":   {"goals"},
	"find_intro":         {"background_circumstances"},
	"find_skills":        {"passions", "exciting_topics", "content_consumption"},
	"find_obstacles":     {"goals"},
	"lost_intro":         {},
	"lost_skills":        {"lost_skills"},
	"retrieve_knowledge": {},
	"generate_plan":      {"plan", "onboarding_chat_summary"},
}

// Manager merges node outputs into the session and keeps the memory engine
// in step with every turn. Callers pass the turn's working copy of the
// session; persistence stays with the caller.
type Manager struct {
	memory *memory.Engine
}

func NewManager(memoryEngine *memory.Engine) *Manager {
	return &Manager{memory: memoryEngine}
}

// Apply merges the node's outputs into the session, records the user and
// assistant messages, and closes the period when the node signals it via
// the structured period_closed output. The declared list is the node's
// output schema; only declared, non-control keys may land in fields. A
// memory.ErrSummarization return means everything else was applied and the
// turn can proceed.
func (m *Manager) Apply(ctx context.Context, session *store.Session, nodeID string, declared []string, outputs map[string]any, userMessage string, reply string) error {
	m.mergeFields(session, nodeID, declared, outputs)

	if chunks, ok := outputs["retrieved_chunks"].([]store.RetrievedChunk); ok {
		session.RetrievedChunks = chunks
	} else if nodeID != "retrieve_knowledge" && len(session.RetrievedChunks) > 0 {
		// Snippets feed exactly one generation; drop them once consumed.
		session.RetrievedChunks = nil
	}

	session.UpdatedAt = time.Now().UTC()

	var warn error
	if userMessage != "" {
		if err := m.memory.Append(ctx, session, store.Message{Role: "user", Content: userMessage}); err != nil {
			warn = err
		}
	}
	if reply != "" {
		if err := m.memory.Append(ctx, session, store.Message{Role: "assistant", Content: reply}); err != nil {
			warn = err
		}
	}

	if nodeID == "generate_plan" && validPlan(outputs["plan"]) {
		// The onboarding transcript is condensed into
		// onboarding_chat_summary; once the plan exists the coaching weeks
		// start from a clean history.
		m.memory.ClearWorkingHistory(session)
	}

	if closed, _ := outputs["period_closed"].(bool); closed {
		if err := m.memory.ClosePeriod(ctx, session, session.CurrentPeriod); err != nil {
			// Period stays open; the close can be signalled again.
			return err
		}
		session.CurrentPeriod++
	}

	return warn
}

func (m *Manager) mergeFields(session *store.Session, nodeID string, declared []string, outputs map[string]any) {
	allowed := make(map[string]bool, len(declared))
	for _, name := range declared {
		if !controlKeys[name] {
			allowed[name] = true
		}
	}
	if census, ok := writableFields[nodeID]; ok {
		narrowed := make(map[string]bool, len(census))
		for _, name := range census {
			if allowed[name] {
				narrowed[name] = true
			}
		}
		allowed = narrowed
	}

	for key, value := range outputs {
		if controlKeys[key] || !allowed[key] || value == nil {
			continue
		}
		if key == "plan" && !validPlan(value) {
			continue
		}
		if s, ok := value.(string); ok && s == "" {
			continue
		}
		session.Fields[key] = value
	}
}

// validPlan requires all twelve week topics to be present and non-empty.
// A partial plan is worse than none: week chats would dereference missing
// topics for the rest of the program.
func validPlan(value any) bool {
	plan, ok := value.(map[string]any)
	if !ok || len(plan) != 12 {
		return false
	}
	for week := 1; week <= 12; week++ {
		topic, ok := plan[planTopicKey(week)].(string)
		if !ok || topic == "" {
			return false
		}
	}
	return true
}

func planTopicKey(week int) string {
	return fmt.Sprintf("week_%d_topic", week)
}
