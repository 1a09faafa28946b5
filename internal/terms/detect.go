package terms

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jdkato/prose/v2"
)

// Detector finds candidate noun phrases in text and classifies them with a
// Lookup. It is the term-detection half of segment enrichment.
type Detector struct {
	lookup *Lookup
	logger *slog.Logger
}

// NewDetector creates a detector backed by the given lookup.
func NewDetector(lookup *Lookup, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{lookup: lookup, logger: logger}
}

// DetectTerms splits text into sentences, extracts noun-phrase candidates,
// and classifies each against the lookup. A sentence that fails tagging
// contributes zero terms; it never fails the whole text.
func (d *Detector) DetectTerms(ctx context.Context, text string) ([]MedicalTerm, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	sentences, err := splitSentences(text)
	if err != nil {
		return nil, err
	}

	var detected []MedicalTerm
	for i, sentence := range sentences {
		candidates, err := extractCandidates(sentence)
		if err != nil {
			d.logger.Warn("candidate extraction failed", "sentence", i, "error", err)
			continue
		}

		for _, candidate := range candidates {
			info, err := d.lookup.Lookup(ctx, candidate)
			if err != nil || info == nil {
				continue
			}
			// Token joining normalizes whitespace, so the candidate may
			// not appear verbatim in the sentence. A zero span means no
			// character position is known.
			start := strings.Index(sentence, candidate)
			end := start + len(candidate)
			if start < 0 {
				start, end = 0, 0
			}
			detected = append(detected, MedicalTerm{
				Term:       candidate,
				Category:   info.Category,
				Definition: info.Definition,
				Context:    sentence,
				Position: Position{
					SentenceIndex: i,
					CharStart:     start,
					CharEnd:       end,
				},
				Confidence: info.Confidence,
			})
		}
	}
	return detected, nil
}

func splitSentences(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithTagging(false),
	)
	if err != nil {
		return nil, err
	}
	var sentences []string
	for _, s := range doc.Sentences() {
		sentences = append(sentences, strings.TrimSpace(s.Text))
	}
	return sentences, nil
}

// extractCandidates pulls noun-phrase-like spans out of one sentence using
// POS tags: adjective(s) followed by noun(s), or noun-preposition-noun.
func extractCandidates(sentence string) ([]string, error) {
	doc, err := prose.NewDocument(sentence,
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return nil, err
	}
	tokens := doc.Tokens()

	var candidates []string
	for i := 0; i < len(tokens); i++ {
		// Adjective(s) + Noun(s)
		j := i
		for j < len(tokens) && isAdjective(tokens[j].Tag) {
			j++
		}
		nounStart := j
		for j < len(tokens) && isNoun(tokens[j].Tag) {
			j++
		}
		if j > nounStart {
			candidates = append(candidates, joinWords(tokens[i:j]))

			// Noun + Preposition + Noun
			if j+1 < len(tokens) && isPreposition(tokens[j].Tag) && isNoun(tokens[j+1].Tag) {
				candidates = append(candidates, joinWords(tokens[nounStart:j+2]))
			}

			i = j - 1
			continue
		}
		i = j
	}
	return candidates, nil
}

func isAdjective(tag string) bool   { return strings.HasPrefix(tag, "JJ") }
func isNoun(tag string) bool        { return strings.HasPrefix(tag, "NN") }
func isPreposition(tag string) bool { return tag == "IN" }

func joinWords(tokens []prose.Token) string {
	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.Text
	}
	return strings.Join(words, " ")
}
