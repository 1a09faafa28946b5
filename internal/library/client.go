// Package library maintains a local reference library of clinical guideline
// documents fetched from a GitHub repository, chunked at header boundaries
// for retrieval.
package library

import (
	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// Client wraps the GitHub API client with rate limit handling. Unauthenticated
// requests are limited to 60/hour, so a token is strongly recommended for
// repositories with more than a handful of guideline files.
type Client struct {
	*github.Client
}

// NewClient creates a GitHub client. An empty token yields an unauthenticated
// client. Primary and secondary rate limits are handled with automatic
// wait-and-retry.
func NewClient(token string) (*Client, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, err
	}

	ghClient := github.NewClient(rateLimiter)
	if token != "" {
		ghClient = ghClient.WithAuthToken(token)
	}
	return &Client{Client: ghClient}, nil
}
