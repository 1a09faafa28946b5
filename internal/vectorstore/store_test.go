//go:build integration
// +build integration

package vectorstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore connects to a local Qdrant and ensures the collection
// exists. Skips the test if Qdrant is not running.
func setupTestStore(t *testing.T) *Store {
	store, err := NewStore("localhost", 6334)
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}

	err = store.EnsureCollection(context.Background())
	require.NoError(t, err, "Failed to ensure collection")

	return store
}

func uniformEmbedding(value float32) []float32 {
	embedding := make([]float32, VectorDimension)
	for i := range embedding {
		embedding[i] = value
	}
	return embedding
}

func TestRecordSearchRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	// Unique lecture ID to avoid conflicts with other tests.
	lectureID := "lecture-roundtrip-" + uuid.New().String()
	embedding := uniformEmbedding(0.1)

	record := &Record{
		ID:        uuid.New().String(),
		Kind:      KindQA,
		LectureID: lectureID,
		Start:     120,
		End:       180,
		Question:  "What determines anastomotic viability?",
		Answer:    "Tension-free apposition and adequate perfusion.",
		Context:   "The anastomosis segment of the lecture.",
		Concepts:  []string{"anastomosis", "perfusion"},
		Embedding: embedding,
	}

	err := store.UpsertRecords(ctx, []*Record{record})
	require.NoError(t, err, "Failed to upsert record")

	results, err := store.Search(ctx, embedding, 10, lectureID)
	require.NoError(t, err, "Failed to search records")
	require.Len(t, results, 1, "Expected 1 search result")

	result := results[0]
	assert.Equal(t, record.ID, result.ID)
	assert.Equal(t, KindQA, result.Kind)
	assert.Equal(t, lectureID, result.LectureID)
	assert.Equal(t, record.Start, result.Start)
	assert.Equal(t, record.End, result.End)
	assert.Equal(t, record.Question, result.Question)
	assert.Equal(t, record.Answer, result.Answer)
	assert.ElementsMatch(t, record.Concepts, result.Concepts)
	assert.Greater(t, result.Score, 0.0, "Score should be greater than 0")
	assert.LessOrEqual(t, result.Score, 1.0, "Score should be at most 1.0")
}

func TestLectureFilterIsolatesLectures(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	lectureA := "lecture-filter-a-" + uuid.New().String()
	lectureB := "lecture-filter-b-" + uuid.New().String()
	embedding := uniformEmbedding(0.2)

	records := []*Record{
		{
			ID:        uuid.New().String(),
			Kind:      KindPearl,
			LectureID: lectureA,
			Pearl:     "Always check the proximal margin first.",
			Embedding: embedding,
		},
		{
			ID:        uuid.New().String(),
			Kind:      KindPearl,
			LectureID: lectureB,
			Pearl:     "Leak tests are cheap relative to reoperation.",
			Embedding: embedding,
		},
	}
	err := store.UpsertRecords(ctx, records)
	require.NoError(t, err)

	results, err := store.Search(ctx, embedding, 10, lectureA)
	require.NoError(t, err)
	require.Len(t, results, 1, "Filter should exclude the other lecture")
	assert.Equal(t, lectureA, results[0].LectureID)
}

func TestBatchUpsert(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	// More than one batch of 100.
	lectureID := "lecture-batch-" + uuid.New().String()
	embedding := uniformEmbedding(0.5)

	records := make([]*Record, 250)
	for i := range records {
		records[i] = &Record{
			ID:        uuid.New().String(),
			Kind:      KindQA,
			LectureID: lectureID,
			Question:  "Question",
			Answer:    "Answer",
			Embedding: embedding,
		}
	}

	err := store.UpsertRecords(ctx, records)
	require.NoError(t, err, "Failed to upsert batch of records")

	results, err := store.Search(ctx, embedding, 300, lectureID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(results), 250, "Expected at least 250 records in search results")
}

func TestDimensionValidation(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	wrongRecord := &Record{
		ID:        uuid.New().String(),
		Kind:      KindQA,
		LectureID: "lecture-dim",
		Question:  "Q",
		Answer:    "A",
		Embedding: make([]float32, 512), // Wrong dimension
	}

	err := store.UpsertRecords(ctx, []*Record{wrongRecord})
	assert.ErrorIs(t, err, ErrDimensionMismatch, "Should reject wrong embedding dimension")

	_, err = store.Search(ctx, make([]float32, 512), 10, "")
	assert.ErrorIs(t, err, ErrDimensionMismatch, "Should reject wrong query dimension")
}

func TestCount(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	before, err := store.Count(ctx)
	require.NoError(t, err)

	record := &Record{
		ID:        uuid.New().String(),
		Kind:      KindPearl,
		LectureID: "lecture-count-" + uuid.New().String(),
		Pearl:     "Counted pearl.",
		Embedding: uniformEmbedding(0.3),
	}
	require.NoError(t, store.UpsertRecords(ctx, []*Record{record}))

	after, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Greater(t, after, before, "Point count should grow after upsert")
}
