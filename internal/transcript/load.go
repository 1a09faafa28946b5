package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// rawFile mirrors the two on-disk layouts we accept: the current format
// nests the transcription under a "transcription" object, the legacy format
// keeps segments at the top level with the text under "transcription".
type rawFile struct {
	Transcription json.RawMessage `json:"transcription"`
	Segments      []rawSegment    `json:"segments"`
	Metadata      Metadata        `json:"metadata"`
}

type rawTranscription struct {
	Text     string       `json:"text"`
	Segments []rawSegment `json:"segments"`
}

// rawSegment accepts both whisper-style ("start"/"end") and our own
// ("start_time"/"end_time") timestamp keys.
type rawSegment struct {
	Text      string   `json:"text"`
	Start     *float64 `json:"start"`
	End       *float64 `json:"end"`
	StartTime *float64 `json:"start_time"`
	EndTime   *float64 `json:"end_time"`
}

func (r rawSegment) toSegment() Segment {
	seg := Segment{Text: strings.TrimSpace(r.Text)}
	switch {
	case r.Start != nil:
		seg.StartTime = *r.Start
	case r.StartTime != nil:
		seg.StartTime = *r.StartTime
	}
	switch {
	case r.End != nil:
		seg.EndTime = *r.End
	case r.EndTime != nil:
		seg.EndTime = *r.EndTime
	}
	return seg
}

// Load reads a transcript file in either the current nested format or the
// legacy flat format.
func Load(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return Parse(data)
}

// Parse decodes transcript JSON, accepting both supported layouts.
func Parse(data []byte) (*Transcript, error) {
	var raw rawFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}

	t := &Transcript{Metadata: raw.Metadata}

	// Current format: "transcription" is an object with text and segments.
	if len(raw.Transcription) > 0 && raw.Transcription[0] == '{' {
		var nested rawTranscription
		if err := json.Unmarshal(raw.Transcription, &nested); err != nil {
			return nil, fmt.Errorf("decode nested transcription: %w", err)
		}
		t.Text = nested.Text
		for _, rs := range nested.Segments {
			t.Segments = append(t.Segments, rs.toSegment())
		}
		return t, nil
	}

	// Legacy format: segments at the top level, text as a plain string.
	if len(raw.Transcription) > 0 {
		var text string
		if err := json.Unmarshal(raw.Transcription, &text); err != nil {
			return nil, fmt.Errorf("decode transcription text: %w", err)
		}
		t.Text = text
	}
	for _, rs := range raw.Segments {
		t.Segments = append(t.Segments, rs.toSegment())
	}
	return t, nil
}

// LectureID derives the lecture identifier from a transcript file path by
// stripping the directory and the transcript suffix.
func LectureID(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, FileSuffix)
}
