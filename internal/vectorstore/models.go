package vectorstore

// Record is one retrievable unit published into the vector store: a QA pair
// or a clinical pearl, tagged with its source lecture and timeline span.
type Record struct {
	ID        string    // UUID
	Kind      string    // "qa" or "pearl"
	LectureID string
	Start     float64 // Lecture-timeline seconds
	End       float64
	Question  string   // QA records only
	Answer    string   // QA records only
	Pearl     string   // Pearl records only
	Context   string
	Concepts  []string
	Embedding []float32
}

// ScoredRecord is a search hit with its similarity score.
type ScoredRecord struct {
	Record
	Score float64
}

// Text returns the string that was (or should be) embedded for the record.
func (r *Record) Text() string {
	if r.Kind == KindPearl {
		return r.Pearl
	}
	return r.Question + "\n" + r.Answer
}

// Record kinds.
const (
	KindQA    = "qa"
	KindPearl = "pearl"
)

// CollectionName is the single Qdrant collection for lecture analysis
// records.
const CollectionName = "lecture_qa"

// VectorDimension matches embedding.Dimension (text-embedding-3-small).
const VectorDimension = 1536
