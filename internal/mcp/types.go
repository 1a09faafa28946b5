// Package mcp exposes processed lecture analyses to MCP clients.
package mcp

// SearchLecturesInput defines the input parameters for the search_lectures tool.
type SearchLecturesInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"required,description=The semantic search query for finding relevant lecture content"`
	// MaxResults is the maximum number of records to return.
	MaxResults int `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=20,default=5,description=Maximum number of records to return"`
	// MinScore is the minimum relevance threshold (0-1).
	MinScore float64 `json:"min_score,omitempty" jsonschema:"minimum=0,maximum=1,default=0.4,description=Minimum relevance score threshold (0-1)"`
	// LectureID restricts the search to one lecture.
	LectureID string `json:"lecture_id,omitempty" jsonschema:"description=Restrict results to a single lecture"`
}

// LectureHit is a single QA pair or clinical pearl matched by semantic search.
type LectureHit struct {
	// Kind is "qa" or "pearl".
	Kind string `json:"kind"`
	// LectureID identifies the source lecture.
	LectureID string `json:"lecture_id"`
	// Score is the similarity score (0-1).
	Score float64 `json:"score"`
	// Start and End locate the segment on the lecture timeline, in seconds.
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	// Question and Answer are set for QA records.
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
	// Pearl is set for pearl records.
	Pearl string `json:"pearl,omitempty"`
	// Concepts are the medical concepts tagged on the record.
	Concepts []string `json:"concepts"`
}

// SearchLecturesOutput contains the search results.
type SearchLecturesOutput struct {
	Results []LectureHit `json:"results"`
	// Message provides informational context when there are no results.
	Message string `json:"message,omitempty"`
}

// GetLectureAnalysisInput defines the input for the get_lecture_analysis tool.
type GetLectureAnalysisInput struct {
	// LectureID is the lecture identifier, e.g. "lecture_042".
	LectureID string `json:"lecture_id" jsonschema:"required,description=The lecture identifier whose full analysis to retrieve"`
}

// GetLectureAnalysisOutput contains one lecture's full analysis.
type GetLectureAnalysisOutput struct {
	LectureID string `json:"lecture_id"`
	// Analysis is the full enhanced analysis JSON for the lecture.
	Analysis any `json:"analysis,omitempty"`
	// Found indicates whether the lecture has been processed.
	Found bool `json:"found"`
}

// ListConceptsInput defines the input for the list_concepts tool.
// Takes no parameters.
type ListConceptsInput struct{}

// ConceptEntry summarizes one concept across the corpus.
type ConceptEntry struct {
	Concept     string   `json:"concept"`
	Occurrences int      `json:"occurrences"`
	Lectures    []string `json:"lectures"`
}

// ListConceptsOutput contains every concept in the consolidated index.
type ListConceptsOutput struct {
	Concepts []ConceptEntry `json:"concepts"`
	Count    int            `json:"count"`
}

// SearchGuidelinesInput defines the input for the search_guidelines tool.
type SearchGuidelinesInput struct {
	// Query is matched against guideline section headers and content.
	Query string `json:"query" jsonschema:"required,description=Text to match against guideline section headers and content"`
	// MaxResults is the maximum number of sections to return.
	MaxResults int `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=20,default=5,description=Maximum number of sections to return"`
}

// GuidelineHit is one matching guideline section.
type GuidelineHit struct {
	GuidelinePath string `json:"guideline_path"`
	URL           string `json:"url"`
	HeaderPath    string `json:"header_path"`
	Content       string `json:"content"`
}

// SearchGuidelinesOutput contains guideline search results.
type SearchGuidelinesOutput struct {
	Results []GuidelineHit `json:"results"`
	Message string         `json:"message,omitempty"`
}
