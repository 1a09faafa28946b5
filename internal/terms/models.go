package terms

// Category classifies a medical term into one of the fixed vocabularies.
type Category string

const (
	CategoryAnatomy     Category = "anatomy"
	CategoryProcedures  Category = "procedures"
	CategoryInstruments Category = "instruments"
	CategoryPathology   Category = "pathology"
	CategoryTechniques  Category = "techniques"
	CategoryUnknown     Category = "unknown"
)

// Position locates a detected term within its source segment.
type Position struct {
	SentenceIndex int `json:"sentence_index"`
	CharStart     int `json:"char_start"`
	CharEnd       int `json:"char_end"`
}

// TermInfo is the result of classifying a candidate term.
type TermInfo struct {
	Category   Category `json:"category"`
	Definition string   `json:"definition"`
	Confidence float64  `json:"confidence"`
}

// MedicalTerm is a classified term detected in transcript text, with its
// sentence context and location.
type MedicalTerm struct {
	Term       string   `json:"term"`
	Category   Category `json:"category"`
	Definition string   `json:"definition"`
	Context    string   `json:"context"`
	Position   Position `json:"position"`
	Confidence float64  `json:"confidence"`
}
