package memory

import (
	"fmt"
	"sort"
	"strings"

	"ai-mentor-be/pkg/store"
)

// FormatContext renders the compacted memory for prompt assembly. The order
// is fixed: running summary, recent messages, last facts, then weekly
// summaries in ascending period order. If the character budget is exceeded,
// the oldest weekly summaries are dropped first, then the oldest facts.
// Recent messages and the running summary are always kept.
func (e *Engine) FormatContext(session *store.Session) string {
	pc := session.PromptContext

	var head strings.Builder
	if pc.RunningSummary != "" {
		head.WriteString("Conversation so far:\n")
		head.WriteString(pc.RunningSummary)
		head.WriteString("\n\n")
	}

	if len(pc.RecentMessages) > 0 {
		head.WriteString("Recent messages:\n")
		for _, msg := range pc.RecentMessages {
			head.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Content))
		}
		head.WriteString("\n")
	}

	facts := pc.ImportantFacts
	if len(facts) > FactDisplayLimit {
		facts = facts[len(facts)-FactDisplayLimit:]
	}

	periods := make([]int, 0, len(pc.WeeklySummaries))
	for period := range pc.WeeklySummaries {
		periods = append(periods, period)
	}
	sort.Ints(periods)

	budget := e.maxContextChars - head.Len()

	factBlock := renderFacts(facts)
	weeklyBlock := renderWeeklies(periods, pc.WeeklySummaries)

	// Oldest weeklies go first, then oldest facts.
	for len(factBlock)+len(weeklyBlock) > budget && len(periods) > 0 {
		periods = periods[1:]
		weeklyBlock = renderWeeklies(periods, pc.WeeklySummaries)
	}
	for len(factBlock)+len(weeklyBlock) > budget && len(facts) > 0 {
		facts = facts[1:]
		factBlock = renderFacts(facts)
	}

	head.WriteString(factBlock)
	head.WriteString(weeklyBlock)

	return strings.TrimRight(head.String(), "\n")
}

func renderFacts(facts []store.Fact) string {
	if len(facts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Known facts about the student:\n")
	for _, f := range facts {
		b.WriteString("- ")
		b.WriteString(f.Fact)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func renderWeeklies(periods []int, summaries map[int]store.PeriodSummary) string {
	if len(periods) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Previous weeks:\n")
	for _, period := range periods {
		b.WriteString(fmt.Sprintf("Week %d: %s\n", period, summaries[period].Summary))
	}
	b.WriteString("\n")
	return b.String()
}
