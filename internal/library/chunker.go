package library

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// Section is one retrievable unit of a guideline document, split at header
// boundaries with its header hierarchy preserved.
type Section struct {
	Index      int    `json:"index"`
	HeaderPath string `json:"header_path"` // "# Colorectal Resection > ## Anastomosis"
	Content    string `json:"content"`     // Section text with header path prepended
	RawContent string `json:"-"`           // Section text without the prefix
}

// Chunker splits guideline markdown at H1/H2 boundaries.
type Chunker struct {
	parser goldmark.Markdown
}

// NewChunker creates a markdown chunker.
func NewChunker() *Chunker {
	return &Chunker{
		parser: goldmark.New(
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Split chunks a markdown document at H1 and H2 headers. Each section
// carries its full header path so retrieval hits keep their context. A
// document with no headers comes back as a single section.
func (c *Chunker) Split(source []byte) ([]Section, error) {
	reader := text.NewReader(source)
	doc := c.parser.Parser().Parse(reader)

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect headers: %w", err)
	}

	if len(tree.Items) == 0 {
		return []Section{{
			Index:      0,
			Content:    string(source),
			RawContent: string(source),
		}}, nil
	}

	var sections []Section
	c.walkItems(doc, source, tree.Items, nil, &sections)
	return sections, nil
}

func (c *Chunker) walkItems(doc ast.Node, source []byte, items toc.Items, ancestors []string, sections *[]Section) {
	for i, item := range items {
		headerTitles := append(ancestors, string(item.Title))
		headerPath := formatHeaderPath(headerTitles)

		headerNode := findHeaderByID(doc, string(item.ID))
		if headerNode == nil {
			continue
		}

		startLine := headerNode.Lines().At(0)
		var endLine text.Segment
		if i+1 < len(items) {
			if next := findHeaderByID(doc, string(items[i+1].ID)); next != nil {
				endLine = next.Lines().At(0)
			}
		} else {
			endLine = nextBoundary(doc, headerNode, headerNode.(*ast.Heading).Level)
		}

		content := sliceContent(source, startLine, endLine)

		*sections = append(*sections, Section{
			Index:      len(*sections),
			HeaderPath: headerPath,
			RawContent: content,
			Content:    fmt.Sprintf("%s\n\n%s", headerPath, content),
		})

		if len(item.Items) > 0 {
			c.walkItems(doc, source, item.Items, headerTitles, sections)
		}
	}
}

// formatHeaderPath renders ["Resection", "Anastomosis"] as
// "# Resection > ## Anastomosis".
func formatHeaderPath(titles []string) string {
	parts := make([]string, len(titles))
	for i, title := range titles {
		parts[i] = fmt.Sprintf("%s %s", strings.Repeat("#", i+1), title)
	}
	return strings.Join(parts, " > ")
}

func findHeaderByID(node ast.Node, id string) ast.Node {
	var found ast.Node
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			headingID, ok := n.AttributeString("id")
			if ok && string(headingID.([]byte)) == id {
				found = n
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}

// nextBoundary finds the next header at the same or a higher level after
// current. A zero segment means the section runs to end of document.
func nextBoundary(root ast.Node, current ast.Node, currentLevel int) text.Segment {
	var next ast.Node
	foundCurrent := false

	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if n.Kind() != ast.KindHeading {
			return ast.WalkContinue, nil
		}
		if !foundCurrent {
			if n == current {
				foundCurrent = true
			}
			return ast.WalkContinue, nil
		}
		if n.(*ast.Heading).Level <= currentLevel {
			next = n
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	if next != nil {
		return next.Lines().At(0)
	}
	return text.Segment{}
}

func sliceContent(source []byte, start, end text.Segment) string {
	if end.Start == 0 && end.Stop == 0 {
		return strings.TrimSpace(string(source[start.Start:]))
	}
	return strings.TrimSpace(string(source[start.Start:end.Start]))
}
