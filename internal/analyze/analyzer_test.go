package analyze

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specializedmd/lecture-pipeline/internal/enrich"
	"github.com/specializedmd/lecture-pipeline/internal/transcript"
)

// taskCompleter routes completions by recognizing which system prompt was
// sent, mimicking one model serving all four tasks.
type taskCompleter struct {
	failTask string
}

func (c *taskCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	switch {
	case strings.Contains(system, "question-answer pairs"):
		if c.failTask == "qa" {
			return "", errors.New("qa task failed")
		}
		return `{"question": "What is the first step?", "answer": "Vascular control.", "confidence": 0.9}` +
			"\n\n" +
			`{"question": "Low confidence?", "answer": "Dropped.", "confidence": 0.5}`, nil
	case strings.Contains(system, "key medical concepts"):
		return "- ileocolic artery\n- mesentery", nil
	case strings.Contains(system, "clinical pearls"):
		return "Always verify perfusion before the anastomosis.", nil
	case strings.Contains(system, "medical literature"):
		return "Heald RJ. The 'Holy Plane' of rectal surgery. 1988.", nil
	}
	return "", errors.New("unrecognized system prompt")
}

func testSegment() enrich.Segment {
	return enrich.Segment{
		Segment: transcript.Segment{
			Text:      "We begin with vascular control at the ileocolic pedicle.",
			StartTime: 30,
			EndTime:   60,
		},
		LectureTime: 0,
	}
}

func TestAnalyzeSegment(t *testing.T) {
	analyzer := NewAnalyzer(&taskCompleter{}, slog.Default())

	analyzed, err := analyzer.AnalyzeSegment(context.Background(), testSegment(), 0.7)
	require.NoError(t, err)

	require.Len(t, analyzed.QAPairs, 1)
	assert.Equal(t, "What is the first step?", analyzed.QAPairs[0].Question)

	assert.Equal(t, []string{"ileocolic artery", "mesentery"}, analyzed.KeyConcepts)
	assert.Equal(t, []string{"Always verify perfusion before the anastomosis."}, analyzed.ClinicalPearls)
	assert.Equal(t, []string{"Heald RJ. The 'Holy Plane' of rectal surgery. 1988."}, analyzed.References)

	// The source segment rides along unchanged.
	assert.Equal(t, testSegment().Text, analyzed.Text)
}

func TestAnalyzeSegment_ZeroConfidenceUsesDefault(t *testing.T) {
	analyzer := NewAnalyzer(&taskCompleter{}, slog.Default())

	analyzed, err := analyzer.AnalyzeSegment(context.Background(), testSegment(), 0)
	require.NoError(t, err)
	// The 0.5-confidence pair is below the 0.7 default.
	assert.Len(t, analyzed.QAPairs, 1)
}

func TestAnalyzeSegment_TaskFailureFailsSegment(t *testing.T) {
	analyzer := NewAnalyzer(&taskCompleter{failTask: "qa"}, slog.Default())

	_, err := analyzer.AnalyzeSegment(context.Background(), testSegment(), 0.7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate_qa")
}
