package memory

import (
	"context"
	"fmt"
	"strings"

	"ai-mentor-be/pkg/llm"
	"ai-mentor-be/pkg/store"
)

const (
	runningSummaryPrompt = `Summarize the following mentoring conversation in 3-5 sentences. ` +
		`Keep the student's stated goals, decisions made, and any commitments. ` +
		`Write in the third person, no preamble.

Conversation:
%s`

	periodSummaryPrompt = `The student has just finished week %d of their mentoring program. ` +
		`Summarize the week in 3-5 sentences: what was worked on, what was achieved, ` +
		`and what remains open. Write in the third person, no preamble.

Conversation:
%s

Key facts noted this week:
%s`

	// summarizer input is capped so a long history cannot blow the
	// provider's context window.
	maxSummaryInputChars = 12000
)

func (e *Engine) summarizeHistory(ctx context.Context, history []store.Message) (string, error) {
	transcript := renderTranscript(history, maxSummaryInputChars)
	if transcript == "" {
		return "", fmt.Errorf("empty history")
	}

	prompt := fmt.Sprintf(runningSummaryPrompt, transcript)
	summary, err := e.provider.Generate(ctx, prompt, llm.WithTemperature(0.3))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(summary), nil
}

func (e *Engine) summarizePeriod(ctx context.Context, history []store.Message, facts []store.Fact, period int) (string, error) {
	transcript := renderTranscript(history, maxSummaryInputChars)
	if transcript == "" {
		transcript = "(no messages recorded this week)"
	}

	factLines := make([]string, 0, len(facts))
	for _, f := range facts {
		factLines = append(factLines, "- "+f.Fact)
	}
	factBlock := strings.Join(factLines, "\n")
	if factBlock == "" {
		factBlock = "(none)"
	}

	prompt := fmt.Sprintf(periodSummaryPrompt, period, transcript, factBlock)
	summary, err := e.provider.Generate(ctx, prompt, llm.WithTemperature(0.3))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(summary), nil
}

// renderTranscript flattens messages to "role: content" lines, keeping the
// most recent tail when the budget is exceeded.
func renderTranscript(history []store.Message, budget int) string {
	lines := make([]string, len(history))
	for i, msg := range history {
		lines[i] = fmt.Sprintf("%s: %s", msg.Role, msg.Content)
	}
	transcript := strings.Join(lines, "\n")
	if len(transcript) > budget {
		transcript = transcript[len(transcript)-budget:]
		if idx := strings.IndexByte(transcript, '\n'); idx >= 0 {
			transcript = transcript[idx+1:]
		}
	}
	return transcript
}
