// Package enrich attaches detected medical terminology and vocabulary
// concepts to transcript segments.
package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/specializedmd/lecture-pipeline/internal/parallel"
	"github.com/specializedmd/lecture-pipeline/internal/terms"
	"github.com/specializedmd/lecture-pipeline/internal/transcript"
	"github.com/specializedmd/lecture-pipeline/internal/vocab"
)

// DefaultBatchSize controls submission granularity for transcript
// enrichment. It bounds concurrency as well; batches are never processed
// serially.
const DefaultBatchSize = 5

// Segment is a transcript segment with enrichment results attached and its
// timestamp re-based onto the lecture timeline.
type Segment struct {
	transcript.Segment
	// VideoTime preserves the absolute recording timestamp.
	VideoTime float64 `json:"video_time"`
	// LectureTime is seconds since the first segment of the lecture.
	LectureTime  float64             `json:"lecture_time"`
	MedicalTerms []terms.MedicalTerm `json:"medical_terms"`
	Concepts     []vocab.Concept     `json:"umls_concepts"`
}

// Enricher runs term detection and concept resolution for segments.
type Enricher struct {
	detector *terms.Detector
	store    vocab.ConceptStore
	search   vocab.FetchFunc
	logger   *slog.Logger
}

// NewEnricher creates an enricher. search resolves cache misses; it is
// typically (*vocab.Client).Search.
func NewEnricher(detector *terms.Detector, store vocab.ConceptStore, search vocab.FetchFunc, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		detector: detector,
		store:    store,
		search:   search,
		logger:   logger,
	}
}

// EnrichSegment enriches a single segment. Detection failures on one
// sentence are contained by the detector; a segment never fails outright,
// it just carries fewer terms.
func (e *Enricher) EnrichSegment(ctx context.Context, seg transcript.Segment) Segment {
	enriched := Segment{Segment: seg, VideoTime: seg.StartTime}

	detected, err := e.detector.DetectTerms(ctx, seg.Text)
	if err != nil {
		e.logger.Warn("term detection failed", "error", err)
		return enriched
	}
	enriched.MedicalTerms = detected

	for _, term := range detected {
		concepts, err := e.store.GetOrFetch(ctx, term.Term, e.search)
		if err != nil {
			e.logger.Warn("concept resolution failed", "term", term.Term, "error", err)
			continue
		}
		enriched.Concepts = append(enriched.Concepts, concepts...)
	}
	return enriched
}

// EnrichTranscript enriches all segments with bounded parallelism,
// preserving input order, then re-bases timestamps onto the lecture
// timeline (first segment at zero). batchSize controls submission
// granularity and the concurrency bound; it defaults to DefaultBatchSize.
// Empty input yields empty output.
func (e *Enricher) EnrichTranscript(ctx context.Context, segs []transcript.Segment, batchSize int) ([]Segment, error) {
	if len(segs) == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	enriched, err := parallel.Map(ctx, segs, batchSize, func(ctx context.Context, _ int, seg transcript.Segment) (Segment, error) {
		return e.EnrichSegment(ctx, seg), nil
	})
	if err != nil {
		return nil, fmt.Errorf("enrich transcript: %w", err)
	}

	alignTimestamps(enriched)
	return enriched, nil
}

// alignTimestamps rewrites each segment's LectureTime relative to the first
// segment's start so the timeline begins at zero.
func alignTimestamps(segs []Segment) {
	if len(segs) == 0 {
		return
	}
	base := segs[0].StartTime
	for i := range segs {
		segs[i].LectureTime = segs[i].StartTime - base
	}
}
