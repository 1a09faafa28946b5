// Package transcribe turns lecture audio into timestamped transcript files
// using a Whisper model behind an OpenAI-compatible API.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/specializedmd/lecture-pipeline/internal/batch"
	"github.com/specializedmd/lecture-pipeline/internal/transcript"
)

const (
	// Model is the Whisper variant used for lecture audio.
	Model = "whisper-large-v3"

	// DefaultBaseURL points at Groq's OpenAI-compatible endpoint, which
	// hosts Model.
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	// DefaultLanguage is an ISO-639-1 language code.
	DefaultLanguage = "en"
)

// supportedFormats lists the audio container formats the API accepts.
var supportedFormats = map[string]bool{
	"flac": true, "mp3": true, "mp4": true, "mpeg": true, "mpga": true,
	"m4a": true, "ogg": true, "wav": true, "webm": true,
}

// Service transcribes audio files and writes transcript JSON in the format
// the processing pipeline consumes.
type Service struct {
	client openai.Client
	logger *slog.Logger
}

// NewService creates a transcription service. An empty baseURL selects
// DefaultBaseURL.
func NewService(apiKey, baseURL string, logger *slog.Logger) (*Service, error) {
	if apiKey == "" {
		return nil, errors.New("transcription API key not set: configure GROQ_API_KEY")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client: openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(baseURL)),
		logger: logger,
	}, nil
}

// verboseTranscription mirrors the verbose_json response shape. The typed
// SDK response drops segment timestamps, so the body is decoded directly.
type verboseTranscription struct {
	Text     string `json:"text"`
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"segments"`
}

// TranscribeFile transcribes one audio file and writes
// {stem}_transcription.json into outputDir. Returns the output path.
func (s *Service) TranscribeFile(ctx context.Context, path, outputDir, language string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !supportedFormats[ext] {
		return "", fmt.Errorf("unsupported audio format %q", ext)
	}
	if language == "" {
		language = DefaultLanguage
	}

	audio, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer audio.Close()

	var verbose verboseTranscription
	_, err = s.client.Audio.Transcriptions.New(ctx,
		openai.AudioTranscriptionNewParams{
			File:                   audio,
			Model:                  Model,
			Language:               openai.String(language),
			Temperature:            openai.Float(0),
			ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
			TimestampGranularities: []string{"segment"},
		},
		option.WithResponseBodyInto(&verbose),
	)
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", filepath.Base(path), err)
	}

	t := &transcript.Transcript{
		Text: verbose.Text,
		Metadata: transcript.Metadata{
			FileName:      filepath.Base(path),
			TranscribedAt: time.Now().UTC(),
			Language:      language,
			Model:         Model,
		},
	}
	for _, seg := range verbose.Segments {
		t.Segments = append(t.Segments, transcript.Segment{
			Text:      strings.TrimSpace(seg.Text),
			StartTime: seg.Start,
			EndTime:   seg.End,
		})
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(outputDir, stem+transcript.FileSuffix)
	if err := batch.WriteJSON(outPath, fileOutput{
		Metadata:      t.Metadata,
		Transcription: transcriptBody{Text: t.Text, Segments: t.Segments},
	}); err != nil {
		return "", err
	}

	s.logger.Info("transcription written", "file", filepath.Base(path), "segments", len(t.Segments))
	return outPath, nil
}

// fileOutput is the on-disk transcript layout consumed by transcript.Load.
type fileOutput struct {
	Metadata      transcript.Metadata `json:"metadata"`
	Transcription transcriptBody      `json:"transcription"`
}

type transcriptBody struct {
	Text     string               `json:"text"`
	Segments []transcript.Segment `json:"segments"`
}

// DirectoryResult summarizes a directory transcription run.
type DirectoryResult struct {
	Transcribed []string          `json:"transcribed"`
	Failed      map[string]string `json:"failed,omitempty"`
}

// TranscribeDirectory transcribes every supported audio file in inputDir.
// Individual file failures are recorded and do not abort the run.
func (s *Service) TranscribeDirectory(ctx context.Context, inputDir, outputDir, language string) (*DirectoryResult, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	if outputDir == "" {
		outputDir = filepath.Join(inputDir, "transcriptions")
	}

	result := &DirectoryResult{Failed: make(map[string]string)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(entry.Name())), ".")
		if !supportedFormats[ext] {
			continue
		}

		path := filepath.Join(inputDir, entry.Name())
		s.logger.Info("transcribing", "file", entry.Name())
		if _, err := s.TranscribeFile(ctx, path, outputDir, language); err != nil {
			s.logger.Error("transcription failed", "file", entry.Name(), "error", err)
			result.Failed[entry.Name()] = err.Error()
			continue
		}
		result.Transcribed = append(result.Transcribed, entry.Name())
	}
	return result, nil
}
