package graph

import (
	"encoding/json"
	"fmt"
	"strings"

	"ai-mentor-be/pkg/store"
)

// promptStateFields are the session fields serialized into the prompt so
// the model sees what has already been collected.
var promptStateFields = []string{
	"user_name", "user_age", "goal_type",
	"job_circumstances", "career_change_circumstances", "background_circumstances",
	"skills", "interests", "activities", "exciting_topics",
	"passions", "content_consumption",
	"goals", "negative_qualities", "lost_skills",
	"plan", "onboarding_chat_summary",
}

func composePrompt(node *Node, session *store.Session, memoryContext string, userMessage string) string {
	var b strings.Builder

	b.WriteString("System: ")
	b.WriteString(node.SystemPrompt)
	b.WriteString("\n\n")

	if memoryContext != "" {
		b.WriteString(memoryContext)
		b.WriteString("\n\n")
	}

	if len(session.RetrievedChunks) > 0 {
		b.WriteString("Knowledge snippets:\n")
		for _, chunk := range session.RetrievedChunks {
			b.WriteString(fmt.Sprintf("- [%s] %s\n", chunk.Title, chunk.Snippet))
		}
		b.WriteString("\n")
	}

	if stateBlock := renderState(session); stateBlock != "" {
		b.WriteString("Current state: ")
		b.WriteString(stateBlock)
		b.WriteString("\n\n")
	}

	b.WriteString(node.Instructions)
	b.WriteString("\n\nUser: ")
	b.WriteString(userMessage)

	return b.String()
}

func renderState(session *store.Session) string {
	picked := make(map[string]any)
	for _, name := range promptStateFields {
		if value, ok := session.Fields[name]; ok && value != nil {
			picked[name] = value
		}
	}
	if len(picked) == 0 {
		return ""
	}
	data, err := json.Marshal(picked)
	if err != nil {
		return ""
	}
	return string(data)
}
