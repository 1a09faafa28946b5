// Package embedding generates text embeddings for publishing analysis
// records into the vector store.
package embedding

import (
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client wraps the OpenAI client for embedding generation. Credentials are
// passed in explicitly so components stay testable with fakes.
type Client struct {
	client openai.Client
}

// NewClient creates an embedding client. A missing key is a configuration
// error reported immediately, not at first use.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("embedding API key not set: configure OPENAI_API_KEY")
	}
	return &Client{client: openai.NewClient(option.WithAPIKey(apiKey))}, nil
}
