package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortTextIsSingleChunk(t *testing.T) {
	c := NewChunker(100, 20)
	spans := c.Split("short text")

	require.Len(t, spans, 1)
	assert.Equal(t, "short text", spans[0].Text)
	assert.Zero(t, spans[0].Offset)
}

func TestSplitEmptyText(t *testing.T) {
	c := NewChunker(100, 20)
	assert.Nil(t, c.Split(""))
}

func TestSplitOverlapsAndCoversWholeText(t *testing.T) {
	c := NewChunker(100, 20)
	text := strings.Repeat("Progress needs honest reflection. ", 20)
	spans := c.Split(text)

	require.Greater(t, len(spans), 1)
	assert.Zero(t, spans[0].Offset)

	runes := []rune(text)
	for i, span := range spans {
		assert.LessOrEqual(t, len([]rune(span.Text)), 100)
		// Every span's text matches the source at its offset.
		assert.Equal(t, span.Text, string(runes[span.Offset:span.Offset+len([]rune(span.Text))]), "span %d", i)
		if i > 0 {
			prevEnd := spans[i-1].Offset + len([]rune(spans[i-1].Text))
			assert.Less(t, span.Offset, prevEnd, "span %d must overlap its predecessor", i)
		}
	}

	last := spans[len(spans)-1]
	assert.Equal(t, len(runes), last.Offset+len([]rune(last.Text)))
}

func TestSplitPrefersSentenceBoundaries(t *testing.T) {
	c := NewChunker(60, 10)
	text := "First sentence here. Second sentence follows right after. Third one closes the paragraph nicely."
	spans := c.Split(text)

	require.Greater(t, len(spans), 1)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(spans[0].Text), "."),
		"first chunk should end at a sentence boundary, got %q", spans[0].Text)
}

func TestSplitIsDeterministic(t *testing.T) {
	c := NewChunker(80, 16)
	text := strings.Repeat("Consistency beats intensity over a twelve week program. ", 15)

	first := c.Split(text)
	second := c.Split(text)
	assert.Equal(t, first, second)
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "windows line endings",
			in:   "line one\r\nline two",
			want: "line one\nline two",
		},
		{
			name: "hyphenated line break",
			in:   "self-\nimprovement takes time",
			want: "selfimprovement takes time",
		},
		{
			name: "space runs collapse",
			in:   "too    many\tspaces",
			want: "too many spaces",
		},
		{
			name: "blank line runs collapse",
			in:   "para one\n\n\n\n\npara two",
			want: "para one\n\npara two",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "  \n centered \n  ",
			want: "centered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestStripRepeatedLines(t *testing.T) {
	text := strings.Join([]string{
		"Career Handbook",
		"Chapter content one.",
		"12",
		"Career Handbook",
		"Chapter content two.",
		"Page 13",
		"Career Handbook",
		"Chapter content three.",
	}, "\n")

	out := StripRepeatedLines(text, 3)

	assert.NotContains(t, out, "Career Handbook")
	assert.NotContains(t, out, "12")
	assert.NotContains(t, out, "Page 13")
	assert.Contains(t, out, "Chapter content one.")
	assert.Contains(t, out, "Chapter content three.")
}

func TestStripRepeatedLinesKeepsInfrequentLines(t *testing.T) {
	text := "A heading\nbody text\nA heading\nmore body"
	out := StripRepeatedLines(text, 3)

	// Two occurrences stay below the repeat threshold.
	assert.Contains(t, out, "A heading")
}
