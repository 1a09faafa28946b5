// Package analyze turns enriched transcript segments into structured
// analysis records via the language-model service.
package analyze

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/specializedmd/lecture-pipeline/internal/enrich"
	"github.com/specializedmd/lecture-pipeline/internal/llm"
)

// DefaultMinConfidence is the QA-pair confidence threshold applied when the
// caller passes zero.
const DefaultMinConfidence = 0.7

// Analyzer issues the four analysis tasks per segment and assembles the
// results.
type Analyzer struct {
	completer llm.Completer
	logger    *slog.Logger
}

// NewAnalyzer creates an analyzer backed by the given completer.
func NewAnalyzer(completer llm.Completer, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{completer: completer, logger: logger}
}

// AnalyzeSegment runs Q&A generation, concept extraction, pearl extraction,
// and reference finding concurrently against one segment. The four tasks
// have no data dependency. A transport failure on any task fails this
// segment only; sibling segments keep processing.
func (a *Analyzer) AnalyzeSegment(ctx context.Context, seg enrich.Segment, minConfidence float64) (AnalyzedSegment, error) {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}

	var qaOut, conceptsOut, pearlsOut, refsOut string
	g, gctx := errgroup.WithContext(ctx)

	run := func(task llm.Task, out *string) func() error {
		return func() error {
			system, err := llm.SystemPrompt(task)
			if err != nil {
				return err
			}
			result, err := a.completer.Complete(gctx, system, seg.Text)
			if err != nil {
				return fmt.Errorf("task %s: %w", task, err)
			}
			*out = result
			return nil
		}
	}

	g.Go(run(llm.TaskGenerateQA, &qaOut))
	g.Go(run(llm.TaskExtractConcepts, &conceptsOut))
	g.Go(run(llm.TaskExtractPearls, &pearlsOut))
	g.Go(run(llm.TaskFindReferences, &refsOut))

	if err := g.Wait(); err != nil {
		return AnalyzedSegment{}, err
	}

	return AnalyzedSegment{
		Segment:        seg,
		QAPairs:        parseQABlocks(qaOut, minConfidence, a.logger),
		KeyConcepts:    parseLines(conceptsOut),
		ClinicalPearls: parseLines(pearlsOut),
		References:     parseLines(refsOut),
	}, nil
}
