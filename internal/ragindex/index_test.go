package ragindex

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specializedmd/lecture-pipeline/internal/analyze"
	"github.com/specializedmd/lecture-pipeline/internal/batch"
	"github.com/specializedmd/lecture-pipeline/internal/enrich"
	"github.com/specializedmd/lecture-pipeline/internal/transcript"
)

func writeAnalysis(t *testing.T, root, lectureID string, segments []analyze.AnalyzedSegment) {
	t.Helper()
	dir := filepath.Join(root, lectureID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	analysis := batch.LectureAnalysis{LectureID: lectureID, Segments: segments}
	require.NoError(t, batch.WriteJSON(filepath.Join(dir, lectureID+"_enhanced.json"), &analysis))
}

func segment(text string, start, end float64, concepts, pearls, refs []string, qa []analyze.QAPair) analyze.AnalyzedSegment {
	return analyze.AnalyzedSegment{
		Segment: enrich.Segment{
			Segment: transcript.Segment{Text: text, StartTime: start, EndTime: end},
		},
		QAPairs:        qa,
		KeyConcepts:    concepts,
		ClinicalPearls: pearls,
		References:     refs,
	}
}

func TestBuild_ConsolidatesAcrossLectures(t *testing.T) {
	root := t.TempDir()

	writeAnalysis(t, root, "lecture_a", []analyze.AnalyzedSegment{
		segment("The mesentery is divided here.", 0, 30,
			[]string{"mesentery"},
			[]string{"Divide close to the bowel wall."},
			[]string{"Ref B", "Ref A"},
			[]analyze.QAPair{{Question: "Q1", Answer: "A1", Confidence: 0.9}},
		),
	})
	writeAnalysis(t, root, "lecture_b", []analyze.AnalyzedSegment{
		segment("Note the mesentery again in this view.", 100, 130,
			[]string{"mesentery", "peritoneum"},
			nil,
			[]string{"Ref A"},
			[]analyze.QAPair{{Question: "Q2", Answer: "A2", Confidence: 0.8}},
		),
	})

	index, err := NewBuilder(slog.Default()).Build(root)
	require.NoError(t, err)

	// A concept discussed in two lectures collects both occurrences.
	require.Len(t, index.Concepts["mesentery"], 2)
	lectures := []string{
		index.Concepts["mesentery"][0].LectureID,
		index.Concepts["mesentery"][1].LectureID,
	}
	sort.Strings(lectures)
	assert.Equal(t, []string{"lecture_a", "lecture_b"}, lectures)

	assert.Len(t, index.QAPairs, 2)
	assert.Len(t, index.ClinicalPearls, 1)

	// References deduplicated and sorted.
	assert.Equal(t, []string{"Ref A", "Ref B"}, index.References)

	// Occurrences carry their segment's timestamps and a context preview.
	occ := index.Concepts["peritoneum"][0]
	assert.Equal(t, "lecture_b", occ.LectureID)
	assert.Equal(t, 100.0, occ.Timestamp.Start)
	assert.Contains(t, occ.Context, "mesentery again")
}

func TestBuild_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeAnalysis(t, root, "lecture_a", []analyze.AnalyzedSegment{
		segment("Text", 0, 10, []string{"colon"}, nil, []string{"Z", "A", "Z"}, nil),
	})

	builder := NewBuilder(slog.Default())
	first, err := builder.Build(root)
	require.NoError(t, err)
	second, err := builder.Build(root)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"A", "Z"}, first.References)
}

func TestBuild_SkipsUnanalyzedDirectories(t *testing.T) {
	root := t.TempDir()
	writeAnalysis(t, root, "lecture_done", []analyze.AnalyzedSegment{
		segment("Text", 0, 10, []string{"colon"}, nil, nil, nil),
	})
	// A lecture directory without an enhanced file (failed run) is skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lecture_failed"), 0o755))
	// Stray files at the root are ignored too.
	require.NoError(t, os.WriteFile(filepath.Join(root, "batch_processing_summary.json"), []byte("{}"), 0o644))

	index, err := NewBuilder(slog.Default()).Build(root)
	require.NoError(t, err)
	require.Len(t, index.Concepts["colon"], 1)
	assert.Equal(t, "lecture_done", index.Concepts["colon"][0].LectureID)
}

func TestBuild_LongContextTruncated(t *testing.T) {
	root := t.TempDir()
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	writeAnalysis(t, root, "lecture_a", []analyze.AnalyzedSegment{
		segment(string(long), 0, 10, []string{"colon"}, nil, nil, nil),
	})

	index, err := NewBuilder(slog.Default()).Build(root)
	require.NoError(t, err)
	ctx := index.Concepts["colon"][0].Context
	assert.Len(t, ctx, contextPreviewLen+3)
	assert.True(t, len(ctx) < 500)
}

func TestBuild_ShortContextKeepsEllipsis(t *testing.T) {
	root := t.TempDir()
	writeAnalysis(t, root, "lecture_a", []analyze.AnalyzedSegment{
		segment("Short segment text.", 0, 10, []string{"colon"}, nil, nil, nil),
	})

	index, err := NewBuilder(slog.Default()).Build(root)
	require.NoError(t, err)
	assert.Equal(t, "Short segment text....", index.Concepts["colon"][0].Context)
}

func TestWriteAndLoad(t *testing.T) {
	root := t.TempDir()
	writeAnalysis(t, root, "lecture_a", []analyze.AnalyzedSegment{
		segment("Text", 5, 10, []string{"colon"}, []string{"Pearl"}, []string{"Ref"},
			[]analyze.QAPair{{Question: "Q", Answer: "A", Confidence: 0.8}}),
	})

	builder := NewBuilder(slog.Default())
	index, err := builder.Build(root)
	require.NoError(t, err)
	require.NoError(t, builder.Write(root, index))

	loaded, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, index, loaded)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.True(t, os.IsNotExist(err))
}
