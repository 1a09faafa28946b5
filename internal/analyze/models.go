package analyze

import "github.com/specializedmd/lecture-pipeline/internal/enrich"

// QAPair is one generated question-answer pair. Pairs below the configured
// confidence threshold are discarded at parse time, never stored.
type QAPair struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Context    string   `json:"context"`
	Concepts   []string `json:"concepts"`
	Confidence float64  `json:"confidence"`
}

// AnalyzedSegment is an enriched segment plus the four analysis outputs.
// Segment order within a lecture always matches the source transcript.
type AnalyzedSegment struct {
	enrich.Segment
	QAPairs        []QAPair `json:"qa_pairs"`
	KeyConcepts    []string `json:"key_concepts"`
	ClinicalPearls []string `json:"clinical_pearls"`
	References     []string `json:"references"`
}
