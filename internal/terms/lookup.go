package terms

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Classifier resolves terms the local category table does not cover.
// Implementations are expected to call an external text-classification
// service.
type Classifier interface {
	Classify(ctx context.Context, term string) (*TermInfo, error)
}

// Lookup classifies candidate terms against the local category table,
// delegating unknown terms to an optional external classifier.
type Lookup struct {
	classifier Classifier
	timeout    time.Duration
	logger     *slog.Logger
}

// NewLookup creates a term lookup. classifier may be nil, in which case
// terms outside the local table are dropped.
func NewLookup(classifier Classifier, logger *slog.Logger) *Lookup {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lookup{
		classifier: classifier,
		timeout:    10 * time.Second,
		logger:     logger,
	}
}

// Lookup classifies a single candidate term. It returns (nil, nil) when the
// term is not recognized as medical; the caller drops it. External
// classification failures are logged and treated the same way, since
// retries belong to the caller, not here.
func (l *Lookup) Lookup(ctx context.Context, term string) (*TermInfo, error) {
	lower := strings.ToLower(strings.TrimSpace(term))
	if lower == "" {
		return nil, nil
	}

	for _, category := range categoryOrder {
		refs := referenceTerms[category]
		for _, ref := range refs {
			if !strings.Contains(lower, ref) {
				continue
			}
			confidence := 0.7
			if exactMember(lower, refs) {
				confidence = 1.0
			}
			return &TermInfo{
				Category:   category,
				Definition: definitionFor(lower),
				Confidence: confidence,
			}, nil
		}
	}

	if l.classifier == nil {
		return nil, nil
	}

	cctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	info, err := l.classifier.Classify(cctx, term)
	if err != nil {
		l.logger.Warn("external term classification failed", "term", term, "error", err)
		return nil, nil
	}
	return info, nil
}

func exactMember(term string, refs []string) bool {
	for _, ref := range refs {
		if term == ref {
			return true
		}
	}
	return false
}

func definitionFor(term string) string {
	if def, ok := definitions[term]; ok {
		return def
	}
	return "Definition not available"
}
