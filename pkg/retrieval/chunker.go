package retrieval

import (
	"regexp"
	"strings"
)

// ChunkSpan is one slice of a normalized document, positioned by its rune
// offset in the normalized text. Offsets are stable across runs, which is
// what makes chunk ids deterministic.
type ChunkSpan struct {
	Text   string
	Offset int
}

// Chunker splits normalized document text into overlapping chunks of at most
// maxChars runes. Breaks prefer sentence boundaries near the limit so a
// snippet rarely starts or ends mid-sentence.
type Chunker struct {
	maxChars int
	overlap  int
}

func NewChunker(maxChars int, overlap int) *Chunker {
	if maxChars <= 0 {
		maxChars = 1000
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = maxChars / 5
	}
	return &Chunker{maxChars: maxChars, overlap: overlap}
}

func (c *Chunker) Split(text string) []ChunkSpan {
	runes := []rune(text)
	total := len(runes)
	if total == 0 {
		return nil
	}
	if total <= c.maxChars {
		return []ChunkSpan{{Text: text, Offset: 0}}
	}

	var spans []ChunkSpan
	start := 0
	for start < total {
		end := start + c.maxChars
		if end >= total {
			end = total
		} else {
			end = breakNear(runes, start, end)
		}

		spans = append(spans, ChunkSpan{
			Text:   string(runes[start:end]),
			Offset: start,
		})

		if end == total {
			break
		}

		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return spans
}

// breakNear walks back from the hard limit looking for a sentence end, then
// a space, within the last fifth of the chunk. Falls back to the hard cut.
func breakNear(runes []rune, start, end int) int {
	window := (end - start) / 5
	if window < 1 {
		return end
	}

	for i := end - 1; i > end-window; i-- {
		switch runes[i] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}
	for i := end - 1; i > end-window; i-- {
		if runes[i] == ' ' {
			return i + 1
		}
	}
	return end
}

var (
	hyphenBreakRe = regexp.MustCompile(`(\p{L})-\n(\p{L})`)
	multiSpaceRe  = regexp.MustCompile(`[ \t]+`)
	multiBlankRe  = regexp.MustCompile(`\n{3,}`)
)

// NormalizeText collapses extraction noise: hyphenated line breaks are
// rejoined, runs of spaces collapse to one, and blank-line runs to a single
// blank line. Chunk offsets are computed over the normalized text.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = hyphenBreakRe.ReplaceAllString(text, "$1$2")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = multiBlankRe.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// StripRepeatedLines removes lines that repeat verbatim across many pages,
// which is the footprint of running headers, footers, and page numbers.
// A short line seen at least minRepeats times is dropped everywhere.
func StripRepeatedLines(text string, minRepeats int) string {
	if minRepeats < 2 {
		minRepeats = 3
	}

	lines := strings.Split(text, "\n")
	counts := make(map[string]int)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || len(trimmed) > 80 {
			continue
		}
		counts[trimmed]++
	}

	out := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && counts[trimmed] >= minRepeats {
			continue
		}
		if pageNumberRe.MatchString(trimmed) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

var pageNumberRe = regexp.MustCompile(`^(?:[0-9]{1,4}|[Pp]age\s+[0-9]{1,4}(?:\s+of\s+[0-9]{1,4})?)$`)
