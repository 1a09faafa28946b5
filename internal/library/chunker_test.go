package library

import (
	"strings"
	"testing"
)

func TestSplit_BasicHeaders(t *testing.T) {
	input := `# Anastomotic Technique

General principles here.

## Hand-Sewn

Hand-sewn details here.

## Stapled

Stapled details here.
`

	chunker := NewChunker()
	sections, err := chunker.Split([]byte(input))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(sections) != 3 {
		t.Fatalf("Expected 3 sections, got %d", len(sections))
	}

	if sections[0].HeaderPath != "# Anastomotic Technique" {
		t.Errorf("Section 0 HeaderPath: got %q", sections[0].HeaderPath)
	}
	if !strings.Contains(sections[0].RawContent, "General principles here") {
		t.Errorf("Section 0 missing expected content")
	}

	expected := "# Anastomotic Technique > ## Hand-Sewn"
	if sections[1].HeaderPath != expected {
		t.Errorf("Section 1 HeaderPath: expected %q, got %q", expected, sections[1].HeaderPath)
	}
	if !strings.Contains(sections[1].RawContent, "Hand-sewn details here") {
		t.Errorf("Section 1 missing expected content")
	}

	expected = "# Anastomotic Technique > ## Stapled"
	if sections[2].HeaderPath != expected {
		t.Errorf("Section 2 HeaderPath: expected %q, got %q", expected, sections[2].HeaderPath)
	}
	for i, sec := range sections {
		if sec.Index != i {
			t.Errorf("Section %d Index: got %d", i, sec.Index)
		}
		if !strings.HasPrefix(sec.Content, sec.HeaderPath) {
			t.Errorf("Section %d Content missing header path prefix", i)
		}
	}
}

func TestSplit_NoHeaders(t *testing.T) {
	input := "Just a plain paragraph without any headers.\n"

	sections, err := NewChunker().Split([]byte(input))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("Expected 1 section, got %d", len(sections))
	}
	if sections[0].HeaderPath != "" {
		t.Errorf("Expected empty HeaderPath, got %q", sections[0].HeaderPath)
	}
	if sections[0].Content != input {
		t.Errorf("Expected full content passthrough")
	}
}

func TestSplit_DeepHeadersStayWithParent(t *testing.T) {
	input := `# Guide

## Section

Intro.

### Subsection

Sub detail stays inside the H2 section.
`

	sections, err := NewChunker().Split([]byte(input))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	// H3 is below the split depth, so only H1 and H2 sections exist.
	if len(sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d", len(sections))
	}
	if !strings.Contains(sections[1].RawContent, "Sub detail stays inside") {
		t.Errorf("H3 content should stay within its H2 section")
	}
}

func TestSplit_CodeBlocksPreserved(t *testing.T) {
	input := "# Protocol\n\n```\ndose: 2g cefazolin\n```\n"

	sections, err := NewChunker().Split([]byte(input))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("Expected 1 section, got %d", len(sections))
	}
	if !strings.Contains(sections[0].RawContent, "dose: 2g cefazolin") {
		t.Errorf("Code block content missing")
	}
}
