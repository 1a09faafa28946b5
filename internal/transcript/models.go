package transcript

import "time"

// Segment is a contiguous time-bounded span of transcript text as produced
// by the transcription service. Times are seconds from the start of the
// recording.
type Segment struct {
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// Metadata describes how and when a transcript was produced.
type Metadata struct {
	FileName      string    `json:"file_name,omitempty"`
	TranscribedAt time.Time `json:"transcribed_at,omitempty"`
	Language      string    `json:"language,omitempty"`
	Model         string    `json:"model,omitempty"`
}

// Transcript is the raw output of the transcription stage: full text plus
// timestamped segments.
type Transcript struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Metadata Metadata  `json:"metadata"`
}

// FileSuffix is the naming convention for raw transcript files written by
// the transcription service and discovered by the batch processor.
const FileSuffix = "_transcription.json"
