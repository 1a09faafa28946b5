package analyze

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// parseQABlocks parses completion output as blank-line-delimited JSON
// objects. A block that fails to parse is skipped after one recovery
// attempt (extracting the first balanced brace region); parse failures
// degrade the output, they never fail the segment.
func parseQABlocks(output string, minConfidence float64, logger *slog.Logger) []QAPair {
	var pairs []QAPair
	for _, block := range strings.Split(output, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		var pair QAPair
		if err := json.Unmarshal([]byte(block), &pair); err != nil {
			recovered, ok := extractJSONObject(block)
			if !ok || json.Unmarshal([]byte(recovered), &pair) != nil {
				logger.Warn("skipping unparseable QA block", "error", err)
				continue
			}
		}

		if pair.Confidence >= minConfidence {
			pairs = append(pairs, pair)
		}
	}
	return pairs
}

// extractJSONObject returns the first balanced {...} region in s. Models
// sometimes wrap JSON in prose or code fences; brace matching recovers the
// object without caring about the wrapping.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// parseLines splits completion output into a newline-delimited string list,
// dropping blank lines and leading list markers.
func parseLines(output string) []string {
	var items []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		if line == "" {
			continue
		}
		items = append(items, line)
	}
	return items
}
