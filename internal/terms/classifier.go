package terms

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Completer is the completion surface the classifier needs from the
// language-model service.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// LLMClassifier classifies terms the local table does not know by asking
// the language-model service for a JSON classification.
type LLMClassifier struct {
	completer Completer
}

// NewLLMClassifier creates a classifier backed by the given completer.
func NewLLMClassifier(completer Completer) *LLMClassifier {
	return &LLMClassifier{completer: completer}
}

const classifySystemPrompt = "You classify medical terminology for colorectal surgery education. " +
	"Respond with a single JSON object: " +
	`{"category": "anatomy|procedures|instruments|pathology|techniques|unknown", ` +
	`"definition": "concise medical definition", "confidence": 0.0}`

type classification struct {
	Category   string  `json:"category"`
	Definition string  `json:"definition"`
	Confidence float64 `json:"confidence"`
}

// Classify asks the language model to classify and define a term. A response
// that cannot be parsed is an error; the caller drops the term.
func (c *LLMClassifier) Classify(ctx context.Context, term string) (*TermInfo, error) {
	prompt := fmt.Sprintf("Classify the medical term %q and provide its definition in the context of colorectal surgery.", term)

	out, err := c.completer.Complete(ctx, classifySystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("classify %q: %w", term, err)
	}

	var parsed classification
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &parsed); err != nil {
		return nil, fmt.Errorf("parse classification for %q: %w", term, err)
	}
	if parsed.Category == "" || parsed.Category == string(CategoryUnknown) {
		return nil, nil
	}
	return &TermInfo{
		Category:   Category(parsed.Category),
		Definition: parsed.Definition,
		Confidence: parsed.Confidence,
	}, nil
}
