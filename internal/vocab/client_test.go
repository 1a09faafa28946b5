package vocab

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "colon", r.URL.Query().Get("string"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{
			"result": {
				"results": [
					{"ui": "C0009368", "name": "Colon structure", "semanticTypes": ["Body Part, Organ, or Organ Component"]},
					{"ui": "C1281570", "name": "Entire colon", "semanticTypes": []}
				]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", slog.Default())
	concepts, err := client.Search(context.Background(), "colon")
	require.NoError(t, err)
	require.Len(t, concepts, 2)
	assert.Equal(t, "C0009368", concepts[0].ConceptID)
	assert.Equal(t, "Colon structure", concepts[0].CanonicalName)
	assert.Equal(t, "Body Part, Organ, or Organ Component", concepts[0].SemanticType)
	assert.Empty(t, concepts[1].SemanticType)
}

func TestClient_SearchNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": {"results": []}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", slog.Default())
	concepts, err := client.Search(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, concepts)
}

// Non-retryable failures surface as "no concepts found", never as an error.
func TestClient_SearchFailureIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-key", slog.Default())
	concepts, err := client.Search(context.Background(), "colon")
	assert.NoError(t, err)
	assert.Nil(t, concepts)
}

// A transient failure followed by success resolves on retry.
func TestClient_SearchRetriesTransientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"result": {"results": [{"ui": "C1", "name": "Rectum", "semanticTypes": []}]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", slog.Default())
	concepts, err := client.Search(context.Background(), "rectum")
	require.NoError(t, err)
	require.Len(t, concepts, 1)
	assert.Equal(t, 2, attempts)
}
