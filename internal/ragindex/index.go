// Package ragindex consolidates per-lecture analysis files into one
// cross-lecture retrieval index. The index is a derived, disposable
// artifact: it is rebuilt from scratch on every run and is never the source
// of truth.
package ragindex

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/specializedmd/lecture-pipeline/internal/analyze"
	"github.com/specializedmd/lecture-pipeline/internal/batch"
)

// IndexFileName is the consolidated index artifact written at the processed
// root.
const IndexFileName = "consolidated_rag_index.json"

// contextPreviewLen bounds the concept occurrence context preview.
const contextPreviewLen = 200

// TimeRange is a start/end pair on the lecture timeline.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// IndexedQAPair is a QA pair tagged with its owning lecture and timestamps.
type IndexedQAPair struct {
	analyze.QAPair
	LectureID string    `json:"lecture_id"`
	Timestamp TimeRange `json:"timestamp"`
}

// ConceptOccurrence records one place a concept is discussed.
type ConceptOccurrence struct {
	LectureID string    `json:"lecture_id"`
	Timestamp TimeRange `json:"timestamp"`
	Context   string    `json:"context"`
}

// IndexedPearl is a clinical pearl tagged with its source location.
type IndexedPearl struct {
	Pearl     string    `json:"pearl"`
	LectureID string    `json:"lecture_id"`
	Timestamp TimeRange `json:"timestamp"`
}

// Index is the consolidated cross-lecture retrieval structure.
type Index struct {
	QAPairs        []IndexedQAPair                `json:"qa_pairs"`
	Concepts       map[string][]ConceptOccurrence `json:"concepts"`
	ClinicalPearls []IndexedPearl                 `json:"clinical_pearls"`
	// References is deduplicated and sorted so repeated builds over
	// unchanged inputs produce identical files.
	References []string `json:"references"`
}

// Builder walks processed lecture output and builds the index.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates an index builder.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

// Build consolidates every lecture subdirectory of processedRoot that
// contains an _enhanced.json file. Directories without one were not
// successfully analyzed and are skipped silently.
func (b *Builder) Build(processedRoot string) (*Index, error) {
	entries, err := os.ReadDir(processedRoot)
	if err != nil {
		return nil, fmt.Errorf("read processed root: %w", err)
	}

	index := &Index{Concepts: make(map[string][]ConceptOccurrence)}
	refs := make(map[string]struct{})

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		lectureID := entry.Name()
		enhanced := filepath.Join(processedRoot, lectureID, lectureID+"_enhanced.json")

		analysis, err := loadAnalysis(enhanced)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			b.logger.Warn("skipping unreadable lecture", "lecture", lectureID, "error", err)
			continue
		}

		for _, seg := range analysis.Segments {
			ts := TimeRange{Start: seg.StartTime, End: seg.EndTime}

			for _, qa := range seg.QAPairs {
				index.QAPairs = append(index.QAPairs, IndexedQAPair{
					QAPair:    qa,
					LectureID: lectureID,
					Timestamp: ts,
				})
			}

			for _, concept := range seg.KeyConcepts {
				index.Concepts[concept] = append(index.Concepts[concept], ConceptOccurrence{
					LectureID: lectureID,
					Timestamp: ts,
					Context:   preview(seg.Text),
				})
			}

			for _, pearl := range seg.ClinicalPearls {
				index.ClinicalPearls = append(index.ClinicalPearls, IndexedPearl{
					Pearl:     pearl,
					LectureID: lectureID,
					Timestamp: ts,
				})
			}

			for _, ref := range seg.References {
				refs[ref] = struct{}{}
			}
		}
	}

	index.References = make([]string, 0, len(refs))
	for ref := range refs {
		index.References = append(index.References, ref)
	}
	sort.Strings(index.References)

	b.logger.Info("index built",
		"qa_pairs", len(index.QAPairs),
		"concepts", len(index.Concepts),
		"pearls", len(index.ClinicalPearls),
		"references", len(index.References),
	)
	return index, nil
}

// Write saves the index at the processed root.
func (b *Builder) Write(processedRoot string, index *Index) error {
	return batch.WriteJSON(filepath.Join(processedRoot, IndexFileName), index)
}

// Load reads a previously written index.
func Load(processedRoot string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(processedRoot, IndexFileName))
	if err != nil {
		return nil, err
	}
	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return &index, nil
}

func loadAnalysis(path string) (*batch.LectureAnalysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var analysis batch.LectureAnalysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return &analysis, nil
}

// preview bounds a segment's text for the occurrence context. The ellipsis
// marks every context as an excerpt, whether or not it was shortened.
func preview(text string) string {
	if len(text) > contextPreviewLen {
		text = text[:contextPreviewLen]
	}
	return text + "..."
}
