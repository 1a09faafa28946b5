package batch

import (
	"time"

	"github.com/specializedmd/lecture-pipeline/internal/analyze"
)

// AnalysisMetadata describes one lecture's analysis run.
type AnalysisMetadata struct {
	SourceFile   string    `json:"source_file"`
	AnalyzedAt   time.Time `json:"analyzed_at"`
	SegmentCount int       `json:"segment_count"`
	TotalQAPairs int       `json:"total_qa_pairs"`
	ModelName    string    `json:"model_name"`
}

// LectureAnalysis is the full per-lecture output, written once as
// {lecture_id}_enhanced.json. Re-runs overwrite it.
type LectureAnalysis struct {
	LectureID string                    `json:"lecture_id"`
	Segments  []analyze.AnalyzedSegment `json:"segments"`
	Metadata  AnalysisMetadata          `json:"metadata"`
}

// LectureSummary is the per-lecture stats record. A failed lecture carries
// a non-empty Error and zeroed counts.
type LectureSummary struct {
	LectureID        string    `json:"lecture_id"`
	ProcessedAt      time.Time `json:"processed_at"`
	SegmentsAnalyzed int       `json:"segments_analyzed,omitempty"`
	QAPairsGenerated int       `json:"qa_pairs_generated,omitempty"`
	UniqueConcepts   int       `json:"unique_concepts,omitempty"`
	ClinicalPearls   int       `json:"clinical_pearls,omitempty"`
	Error            string    `json:"error,omitempty"`
}

// Summary aggregates a whole batch run, written as
// batch_processing_summary.json.
type Summary struct {
	RunID               string           `json:"run_id"`
	ProcessedAt         time.Time        `json:"processed_at"`
	TotalLectures       int              `json:"total_lectures"`
	SuccessfulProcesses int              `json:"successful_processes"`
	FailedProcesses     int              `json:"failed_processes"`
	TotalQAPairs        int              `json:"total_qa_pairs"`
	TotalUniqueConcepts int              `json:"total_unique_concepts"`
	LectureSummaries    []LectureSummary `json:"lecture_summaries"`
}
