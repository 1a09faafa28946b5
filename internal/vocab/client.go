// Package vocab resolves medical terms to external vocabulary concepts and
// caches the results for the lifetime of a run.
package vocab

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Concept is one entry returned by the vocabulary service for a term.
type Concept struct {
	ConceptID     string `json:"concept_id"`
	CanonicalName string `json:"canonical_name"`
	SemanticType  string `json:"semantic_type"`
}

// DefaultBaseURL points at the UMLS Metathesaurus search endpoint.
const DefaultBaseURL = "https://uts-ws.nlm.nih.gov/rest/search/current"

// Client queries a UMLS-style vocabulary search API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// NewClient creates a vocabulary client. apiKey is required by the hosted
// service; an empty key is allowed so tests can point baseURL at a fake.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     logger,
	}
}

type searchResponse struct {
	Result struct {
		Results []struct {
			UI            string   `json:"ui"`
			Name          string   `json:"name"`
			SemanticTypes []string `json:"semanticTypes"`
		} `json:"results"`
	} `json:"result"`
}

// Search looks a term up in the vocabulary service. Network failures are
// retried with bounded exponential backoff and, if still failing, reported
// as "no concepts found" rather than as an error: a missing concept must
// never fail enrichment.
func (c *Client) Search(ctx context.Context, term string) ([]Concept, error) {
	var concepts []Concept

	operation := func() error {
		found, err := c.searchOnce(ctx, term)
		if err != nil {
			return err
		}
		concepts = found
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 20 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		c.logger.Warn("vocabulary search failed", "term", term, "error", err)
		return nil, nil
	}
	return concepts, nil
}

func (c *Client) searchOnce(ctx context.Context, term string) ([]Concept, error) {
	q := url.Values{}
	q.Set("string", term)
	q.Set("searchType", "exact")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("vocabulary service returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("vocabulary service returned %d", resp.StatusCode))
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode vocabulary response: %w", err))
	}

	concepts := make([]Concept, 0, len(decoded.Result.Results))
	for _, r := range decoded.Result.Results {
		concept := Concept{ConceptID: r.UI, CanonicalName: r.Name}
		if len(r.SemanticTypes) > 0 {
			concept.SemanticType = r.SemanticTypes[0]
		}
		concepts = append(concepts, concept)
	}
	return concepts, nil
}
