// Package batch orchestrates directory-level transcript processing:
// discovery, per-lecture enrichment and analysis, output files, and run
// statistics.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/specializedmd/lecture-pipeline/internal/analyze"
	"github.com/specializedmd/lecture-pipeline/internal/enrich"
	"github.com/specializedmd/lecture-pipeline/internal/parallel"
	"github.com/specializedmd/lecture-pipeline/internal/transcript"
)

// DefaultMaxWorkers bounds per-lecture parallelism.
const DefaultMaxWorkers = 4

// Processor runs the enrichment+analysis pipeline over a directory of
// transcripts.
type Processor struct {
	enricher      *enrich.Enricher
	analyzer      *analyze.Analyzer
	batchSize     int
	minConfidence float64
	modelName     string
	logger        *slog.Logger
}

// NewProcessor creates a batch processor. batchSize and minConfidence fall
// back to the enrichment and analysis defaults when zero.
func NewProcessor(enricher *enrich.Enricher, analyzer *analyze.Analyzer, batchSize int, minConfidence float64, modelName string, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		enricher:      enricher,
		analyzer:      analyzer,
		batchSize:     batchSize,
		minConfidence: minConfidence,
		modelName:     modelName,
		logger:        logger,
	}
}

// ProcessDirectory discovers transcript files in inputDir and processes
// each concurrently with at most maxWorkers lectures in flight. One
// lecture's failure is recorded and never stops its siblings. It returns an
// error only when no work is possible at all: no transcripts found, or the
// output directory cannot be created.
func (p *Processor) ProcessDirectory(ctx context.Context, inputDir, outputDir string, maxWorkers int) (*Summary, error) {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}

	files, err := filepath.Glob(filepath.Join(inputDir, "*"+transcript.FileSuffix))
	if err != nil {
		return nil, fmt.Errorf("scan input directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no transcript files (*%s) found in %s", transcript.FileSuffix, inputDir)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	p.logger.Info("starting batch run", "lectures", len(files), "workers", maxWorkers)

	summaries, _ := parallel.Map(ctx, files, maxWorkers, func(ctx context.Context, _ int, file string) (LectureSummary, error) {
		return p.processLecture(ctx, file, outputDir), nil
	})

	summary := &Summary{
		RunID:            uuid.New().String(),
		ProcessedAt:      time.Now().UTC(),
		TotalLectures:    len(files),
		LectureSummaries: summaries,
	}
	for _, s := range summaries {
		if s.Error != "" {
			summary.FailedProcesses++
			continue
		}
		summary.SuccessfulProcesses++
		summary.TotalQAPairs += s.QAPairsGenerated
		summary.TotalUniqueConcepts += s.UniqueConcepts
	}

	if err := WriteJSON(filepath.Join(outputDir, "batch_processing_summary.json"), summary); err != nil {
		return nil, fmt.Errorf("write batch summary: %w", err)
	}

	p.logger.Info("batch run complete",
		"successful", summary.SuccessfulProcesses,
		"failed", summary.FailedProcesses,
		"qa_pairs", summary.TotalQAPairs,
	)
	return summary, nil
}

// processLecture handles one transcript end to end. Failures are captured
// in the returned summary rather than propagated.
func (p *Processor) processLecture(ctx context.Context, file, outputDir string) LectureSummary {
	lectureID := transcript.LectureID(file)
	p.logger.Info("processing lecture", "lecture", lectureID)

	analysis, err := p.analyzeLecture(ctx, file, lectureID, outputDir)
	if err != nil {
		p.logger.Warn("lecture failed", "lecture", lectureID, "error", err)
		return LectureSummary{
			LectureID:   lectureID,
			ProcessedAt: time.Now().UTC(),
			Error:       err.Error(),
		}
	}

	summary := LectureSummary{
		LectureID:        lectureID,
		ProcessedAt:      time.Now().UTC(),
		SegmentsAnalyzed: len(analysis.Segments),
	}
	var concepts []string
	for _, seg := range analysis.Segments {
		summary.QAPairsGenerated += len(seg.QAPairs)
		summary.ClinicalPearls += len(seg.ClinicalPearls)
		concepts = append(concepts, seg.KeyConcepts...)
	}
	summary.UniqueConcepts = len(lo.Uniq(concepts))

	if err := WriteJSON(filepath.Join(outputDir, lectureID, "processing_summary.json"), summary); err != nil {
		p.logger.Warn("write lecture summary failed", "lecture", lectureID, "error", err)
	}
	return summary
}

func (p *Processor) analyzeLecture(ctx context.Context, file, lectureID, outputDir string) (*LectureAnalysis, error) {
	t, err := transcript.Load(file)
	if err != nil {
		return nil, err
	}

	lectureDir := filepath.Join(outputDir, lectureID)
	if err := os.MkdirAll(lectureDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lecture directory: %w", err)
	}

	enriched, err := p.enricher.EnrichTranscript(ctx, t.Segments, p.batchSize)
	if err != nil {
		return nil, err
	}

	analyzed, err := parallel.Map(ctx, enriched, 0, func(ctx context.Context, _ int, seg enrich.Segment) (analyze.AnalyzedSegment, error) {
		return p.analyzer.AnalyzeSegment(ctx, seg, p.minConfidence)
	})
	if err != nil {
		return nil, err
	}

	modelName := p.modelName
	if modelName == "" {
		modelName = t.Metadata.Model
	}

	analysis := &LectureAnalysis{
		LectureID: lectureID,
		Segments:  analyzed,
		Metadata: AnalysisMetadata{
			SourceFile:   filepath.Base(file),
			AnalyzedAt:   time.Now().UTC(),
			SegmentCount: len(analyzed),
			TotalQAPairs: countQAPairs(analyzed),
			ModelName:    modelName,
		},
	}

	if err := WriteJSON(filepath.Join(lectureDir, lectureID+"_enhanced.json"), analysis); err != nil {
		return nil, fmt.Errorf("write lecture analysis: %w", err)
	}
	return analysis, nil
}

func countQAPairs(segs []analyze.AnalyzedSegment) int {
	total := 0
	for _, s := range segs {
		total += len(s.QAPairs)
	}
	return total
}

// WriteJSON writes v as UTF-8 JSON with 2-space indentation, the format
// shared by every persisted artifact.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
