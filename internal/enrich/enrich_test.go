package enrich

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specializedmd/lecture-pipeline/internal/terms"
	"github.com/specializedmd/lecture-pipeline/internal/transcript"
	"github.com/specializedmd/lecture-pipeline/internal/vocab"
)

func testEnricher(t *testing.T) *Enricher {
	t.Helper()
	detector := terms.NewDetector(terms.NewLookup(nil, slog.Default()), slog.Default())
	search := func(ctx context.Context, term string) ([]vocab.Concept, error) {
		return []vocab.Concept{{ConceptID: "C-" + term, CanonicalName: term}}, nil
	}
	return NewEnricher(detector, vocab.NewMemoryStore(), search, slog.Default())
}

func TestEnrichSegment(t *testing.T) {
	enricher := testEnricher(t)

	seg := transcript.Segment{
		Text:      "The colon was mobilized. We completed the anastomosis with the stapler.",
		StartTime: 120.5,
		EndTime:   150.0,
	}
	enriched := enricher.EnrichSegment(context.Background(), seg)

	assert.Equal(t, seg.Text, enriched.Text)
	assert.Equal(t, 120.5, enriched.VideoTime)
	require.NotEmpty(t, enriched.MedicalTerms)
	require.NotEmpty(t, enriched.Concepts)

	// Every resolved concept traces back to a detected term.
	assert.Len(t, enriched.Concepts, len(enriched.MedicalTerms))
}

func TestEnrichSegment_ConceptFailureKeepsTerms(t *testing.T) {
	detector := terms.NewDetector(terms.NewLookup(nil, slog.Default()), slog.Default())
	search := func(ctx context.Context, term string) ([]vocab.Concept, error) {
		return nil, context.DeadlineExceeded
	}
	enricher := NewEnricher(detector, vocab.NewMemoryStore(), search, slog.Default())

	enriched := enricher.EnrichSegment(context.Background(), transcript.Segment{
		Text: "The colon was mobilized.",
	})
	assert.NotEmpty(t, enriched.MedicalTerms)
	assert.Empty(t, enriched.Concepts)
}

func TestEnrichTranscript_OrderAndAlignment(t *testing.T) {
	enricher := testEnricher(t)

	segs := []transcript.Segment{
		{Text: "The colon was exposed.", StartTime: 95.0, EndTime: 110.0},
		{Text: "We selected the forceps.", StartTime: 110.0, EndTime: 125.0},
		{Text: "The anastomosis was completed.", StartTime: 125.0, EndTime: 140.0},
	}

	enriched, err := enricher.EnrichTranscript(context.Background(), segs, 2)
	require.NoError(t, err)
	require.Len(t, enriched, 3)

	// Input order survives parallel execution.
	for i := range segs {
		assert.Equal(t, segs[i].Text, enriched[i].Text)
		assert.Equal(t, segs[i].StartTime, enriched[i].VideoTime)
	}

	// Lecture timeline starts at zero at the first segment.
	assert.Equal(t, 0.0, enriched[0].LectureTime)
	assert.Equal(t, 15.0, enriched[1].LectureTime)
	assert.Equal(t, 30.0, enriched[2].LectureTime)
}

func TestEnrichTranscript_EmptyInput(t *testing.T) {
	enricher := testEnricher(t)

	enriched, err := enricher.EnrichTranscript(context.Background(), nil, 5)
	require.NoError(t, err)
	assert.Empty(t, enriched)
}

func TestEnrichTranscript_SharedCacheAcrossSegments(t *testing.T) {
	detector := terms.NewDetector(terms.NewLookup(nil, slog.Default()), slog.Default())
	calls := make(map[string]int)
	store := vocab.NewMemoryStore()
	search := func(ctx context.Context, term string) ([]vocab.Concept, error) {
		calls[term]++
		return []vocab.Concept{{ConceptID: "C1"}}, nil
	}
	enricher := NewEnricher(detector, store, search, slog.Default())

	segs := []transcript.Segment{
		{Text: "The colon was exposed.", StartTime: 0},
		{Text: "The colon was inspected again.", StartTime: 10},
	}
	// Serial execution so the map needs no locking.
	_, err := enricher.EnrichTranscript(context.Background(), segs, 1)
	require.NoError(t, err)

	for term, n := range calls {
		assert.Equal(t, 1, n, "term %q fetched more than once", term)
	}
}
