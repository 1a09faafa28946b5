package analyze

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQABlocks(t *testing.T) {
	output := `{"question": "What vessel is ligated first?", "answer": "The ileocolic artery.", "context": "vascular control", "concepts": ["ileocolic artery"], "confidence": 0.9}

{"question": "Why mobilize the splenic flexure?", "answer": "To achieve a tension-free anastomosis.", "confidence": 0.8}`

	pairs := parseQABlocks(output, 0.7, slog.Default())
	require.Len(t, pairs, 2)
	assert.Equal(t, "What vessel is ligated first?", pairs[0].Question)
	assert.Equal(t, []string{"ileocolic artery"}, pairs[0].Concepts)
	assert.Equal(t, 0.8, pairs[1].Confidence)
}

func TestParseQABlocks_SkipsMalformedBlock(t *testing.T) {
	output := `{"question": "Q1", "answer": "A1", "confidence": 0.9}

this block is not JSON at all

{"question": "Q2", "answer": "A2", "confidence": 0.85}`

	pairs := parseQABlocks(output, 0.7, slog.Default())
	require.Len(t, pairs, 2)
	assert.Equal(t, "Q1", pairs[0].Question)
	assert.Equal(t, "Q2", pairs[1].Question)
}

// Models sometimes wrap a block in prose or fences; brace matching recovers
// the object.
func TestParseQABlocks_RecoversWrappedJSON(t *testing.T) {
	output := "Here is the question:\n" +
		`{"question": "Q1", "answer": "A1 with \"quotes\" and a } inside", "confidence": 0.9} trailing text`

	pairs := parseQABlocks(output, 0.7, slog.Default())
	require.Len(t, pairs, 1)
	assert.Equal(t, `A1 with "quotes" and a } inside`, pairs[0].Answer)
}

// The threshold is inclusive: 0.70 stays, 0.69 goes.
func TestParseQABlocks_ConfidenceBoundary(t *testing.T) {
	output := `{"question": "kept", "answer": "A", "confidence": 0.70}

{"question": "dropped", "answer": "A", "confidence": 0.69}`

	pairs := parseQABlocks(output, 0.7, slog.Default())
	require.Len(t, pairs, 1)
	assert.Equal(t, "kept", pairs[0].Question)
}

func TestParseQABlocks_Empty(t *testing.T) {
	assert.Empty(t, parseQABlocks("", 0.7, slog.Default()))
	assert.Empty(t, parseQABlocks("\n\n\n", 0.7, slog.Default()))
}

func TestParseLines(t *testing.T) {
	output := "- total mesorectal excision\n* splenic flexure\n• anastomotic leak\n\n  ileocolic artery  \n"

	items := parseLines(output)
	assert.Equal(t, []string{
		"total mesorectal excision",
		"splenic flexure",
		"anastomotic leak",
		"ileocolic artery",
	}, items)
}

func TestParseLines_Empty(t *testing.T) {
	assert.Empty(t, parseLines(""))
	assert.Empty(t, parseLines("\n- \n"))
}

func TestExtractJSONObject(t *testing.T) {
	got, ok := extractJSONObject("```json\n{\"a\": 1}\n```")
	require.True(t, ok)
	assert.Equal(t, `{"a": 1}`, got)

	_, ok = extractJSONObject("no braces here")
	assert.False(t, ok)

	_, ok = extractJSONObject(`{"unterminated": "value`)
	assert.False(t, ok)
}
