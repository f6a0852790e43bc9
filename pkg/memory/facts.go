package memory

import (
	"strings"
	"time"

	"ai-mentor-be/pkg/store"
)

// Salience classes for fact extraction. A user message that opens with one
// of these markers is recorded as an important fact with the class's score.
// Scoring is a deterministic keyword heuristic: messages about goals and
// commitments matter more to a mentor than passing preferences.
var salienceClasses = []struct {
	score   float64
	markers []string
}{
	{0.9, []string{"my goal", "i want to", "i decided", "i commit", "my dream"}},
	{0.7, []string{"i will", "i plan", "next week i", "i promise"}},
	{0.5, []string{"i work", "i study", "i am a", "i'm a", "my job", "my background"}},
	{0.3, []string{"i like", "i love", "i enjoy", "i prefer", "i hate"}},
}

const minFactLength = 12

// ExtractFacts scans one user message for fact-bearing sentences and tags
// them with the current period. Sentences without a salience marker are
// ignored; the heuristic favours precision over recall since facts are
// surfaced verbatim in later prompts.
func ExtractFacts(message string, period int) []store.Fact {
	now := time.Now().UTC()

	var facts []store.Fact
	for _, sentence := range splitSentences(message) {
		trimmed := strings.TrimSpace(sentence)
		if len(trimmed) < minFactLength {
			continue
		}

		score := salienceScore(trimmed)
		if score == 0 {
			continue
		}

		facts = append(facts, store.Fact{
			Fact:            trimmed,
			Period:          period,
			ImportanceScore: score,
			Timestamp:       now,
		})
	}
	return facts
}

func salienceScore(sentence string) float64 {
	lower := strings.ToLower(sentence)
	for _, class := range salienceClasses {
		for _, marker := range class.markers {
			if strings.Contains(lower, marker) {
				return class.score
			}
		}
	}
	return 0
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
}
