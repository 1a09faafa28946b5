package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_NestedFormat(t *testing.T) {
	data := []byte(`{
		"metadata": {"file_name": "lecture_001.mp3", "language": "en", "model": "whisper-large-v3"},
		"transcription": {
			"text": "Full text.",
			"segments": [
				{"text": " The colon was mobilized. ", "start_time": 12.0, "end_time": 20.5}
			]
		}
	}`)

	tr, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "Full text.", tr.Text)
	assert.Equal(t, "whisper-large-v3", tr.Metadata.Model)
	require.Len(t, tr.Segments, 1)
	assert.Equal(t, "The colon was mobilized.", tr.Segments[0].Text)
	assert.Equal(t, 12.0, tr.Segments[0].StartTime)
	assert.Equal(t, 20.5, tr.Segments[0].EndTime)
}

func TestParse_LegacyFlatFormat(t *testing.T) {
	data := []byte(`{
		"transcription": "Full text.",
		"segments": [
			{"text": "Seg one.", "start": 0.0, "end": 4.2},
			{"text": "Seg two.", "start": 4.2, "end": 9.9}
		]
	}`)

	tr, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "Full text.", tr.Text)
	require.Len(t, tr.Segments, 2)
	assert.Equal(t, 4.2, tr.Segments[1].StartTime)
	assert.Equal(t, 9.9, tr.Segments[1].EndTime)
}

func TestParse_WhisperKeysInNestedFormat(t *testing.T) {
	data := []byte(`{
		"transcription": {
			"segments": [{"text": "Seg.", "start": 3.5, "end": 7.0}]
		}
	}`)

	tr, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, tr.Segments, 1)
	assert.Equal(t, 3.5, tr.Segments[0].StartTime)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("{not json"))
	assert.Error(t, err)
}

func TestLectureID(t *testing.T) {
	assert.Equal(t, "lecture_042", LectureID("/data/raw/lecture_042_transcription.json"))
	assert.Equal(t, "lecture_042.json", LectureID("lecture_042.json"))
}
