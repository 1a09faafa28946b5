// Package literature harvests recent publication metadata from PubMed into
// a local reference mapping.
package literature

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultBaseURL is the NCBI E-utilities endpoint.
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// DefaultQuery targets the corpus's specialty with high-evidence publication
// types.
const DefaultQuery = `colorectal surgery AND (randomized controlled trial[pt] OR systematic review[pt])`

// Publication is the metadata harvested for one PubMed record.
type Publication struct {
	PMID            string   `json:"pmid"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Journal         string   `json:"journal"`
	PublicationDate string   `json:"publication_date"`
	DOI             string   `json:"doi,omitempty"`
}

// Client calls the E-utilities esearch and esummary endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a PubMed client. An NCBI API key raises the rate limit
// from 3 to 10 requests per second and may be empty.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Search returns PMIDs matching the query, restricted to publication dates
// within the last daysBack days.
func (c *Client) Search(ctx context.Context, query string, daysBack, maxResults int) ([]string, error) {
	params := url.Values{
		"db":       {"pubmed"},
		"term":     {query},
		"retmode":  {"json"},
		"retmax":   {strconv.Itoa(maxResults)},
		"datetype": {"pdat"},
		"reldate":  {strconv.Itoa(daysBack)},
	}

	var result esearchResponse
	if err := c.get(ctx, "/esearch.fcgi", params, &result); err != nil {
		return nil, fmt.Errorf("pubmed search: %w", err)
	}
	return result.ESearchResult.IDList, nil
}

type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type esummaryDoc struct {
	UID     string `json:"uid"`
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	FullJournalName string `json:"fulljournalname"`
	PubDate         string `json:"pubdate"`
	ArticleIDs      []struct {
		IDType string `json:"idtype"`
		Value  string `json:"value"`
	} `json:"articleids"`
}

// Summaries fetches publication metadata for the given PMIDs. Order follows
// the input; PMIDs absent from the response are dropped.
func (c *Client) Summaries(ctx context.Context, pmids []string) ([]Publication, error) {
	if len(pmids) == 0 {
		return nil, nil
	}

	params := url.Values{
		"db":      {"pubmed"},
		"retmode": {"json"},
		"id":      {strings.Join(pmids, ",")},
	}

	var result esummaryResponse
	if err := c.get(ctx, "/esummary.fcgi", params, &result); err != nil {
		return nil, fmt.Errorf("pubmed summaries: %w", err)
	}

	pubs := make([]Publication, 0, len(pmids))
	for _, pmid := range pmids {
		raw, ok := result.Result[pmid]
		if !ok {
			continue
		}
		var doc esummaryDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}

		pub := Publication{
			PMID:            pmid,
			Title:           doc.Title,
			Journal:         doc.FullJournalName,
			PublicationDate: doc.PubDate,
		}
		for _, a := range doc.Authors {
			pub.Authors = append(pub.Authors, a.Name)
		}
		for _, id := range doc.ArticleIDs {
			if id.IDType == "doi" {
				pub.DOI = id.Value
			}
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

// get issues a GET with exponential backoff on transient failures. NCBI
// returns 429 when the per-second rate limit is exceeded.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	requestURL := c.baseURL + path + "?" + params.Encode()

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}
