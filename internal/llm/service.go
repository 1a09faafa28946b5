// Package llm wraps the chat-completion service used for transcript
// analysis. The rest of the pipeline depends only on the Completer
// interface; streaming and transport details stay here.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultBaseURL targets the DeepSeek OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.deepseek.com"

	// DefaultModel is the chat model used for all analysis tasks.
	DefaultModel = "deepseek-chat"

	// DefaultMaxInFlight caps concurrent completion requests across all
	// workers. Lecture- and segment-level parallelism multiply quickly;
	// this is the single knob that protects the provider rate limit.
	DefaultMaxInFlight = 8

	defaultTemperature = 0.3
	defaultMaxTokens   = 2000
)

// Config holds explicit service configuration. Credentials are passed in,
// never read from hidden global state.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxInFlight int64
}

// Completer is the request/response completion contract consumed by the
// analysis stages.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Service implements Completer on top of the OpenAI-compatible API with
// rate-limit-aware retries and a global in-flight cap.
type Service struct {
	client   openai.Client
	model    string
	inFlight *semaphore.Weighted
}

// NewService creates a completion service. A missing API key is a
// configuration error surfaced immediately, not at first use.
func NewService(cfg Config) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("language-model API key not set: configure DEEPSEEK_API_KEY or store it with `lectures settings set DEEPSEEK_API_KEY`")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = DefaultMaxInFlight
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
	)
	return &Service{
		client:   client,
		model:    cfg.Model,
		inFlight: semaphore.NewWeighted(cfg.MaxInFlight),
	}, nil
}

// Complete sends one system+user exchange and returns the final text.
// Rate-limit responses are retried with exponential backoff; other API
// errors fail immediately.
func (s *Service) Complete(ctx context.Context, system, user string) (string, error) {
	if err := s.inFlight.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.inFlight.Release(1)

	var content string
	operation := func() error {
		resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(system),
				openai.UserMessage(user),
			},
			Model:       openai.ChatModel(s.model),
			Temperature: openai.Float(defaultTemperature),
			MaxTokens:   openai.Int(defaultMaxTokens),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("completion returned no choices"))
		}
		content = resp.Choices[0].Message.Content
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}
	return content, nil
}

// isRateLimitError checks for an HTTP 429 from the API.
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
