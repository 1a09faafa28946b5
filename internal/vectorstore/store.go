// Package vectorstore publishes analysis records into Qdrant for semantic
// retrieval. The JSON index remains the source of record; this collection
// is a derived serving layer and can always be rebuilt.
package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// Store wraps the Qdrant client with connection management and health
// checks.
type Store struct {
	client *qdrant.Client
}

// NewStore creates a Qdrant-backed store and fails fast if the server is
// unreachable after a bounded health-check retry.
func NewStore(host string, port int) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	s := &Store{client: client}
	if err := s.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return s, nil
}

func (s *Store) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error { return s.Health(ctx) }, b)
}

// Health performs a single health check.
func (s *Store) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the records collection and its payload indexes
// if they do not exist. Idempotent.
func (s *Store) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == CollectionName {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: CollectionName,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			"content": {
				Size:     VectorDimension,
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	// Payload indexes for the filterable fields; filtering without them
	// degrades badly as the corpus grows.
	for _, field := range []string{"kind", "lecture_id", "concepts"} {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: CollectionName,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("create index for field %s: %w", field, err)
		}
	}
	return nil
}

// ClearCollection drops and recreates the collection for full republishes.
func (s *Store) ClearCollection(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, CollectionName); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return s.EnsureCollection(ctx)
}

// Close closes the underlying client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// UpsertRecords stores records in batches of 100 with retry on transient
// failures.
func (s *Store) UpsertRecords(ctx context.Context, records []*Record) error {
	if len(records) == 0 {
		return nil
	}
	for i, r := range records {
		if len(r.Embedding) != VectorDimension {
			return fmt.Errorf("%w: record %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(r.Embedding), VectorDimension)
		}
	}

	batchSize := 100
	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))
		batch := records[i:end]

		points := make([]*qdrant.PointStruct, len(batch))
		for j, r := range batch {
			points[j] = &qdrant.PointStruct{
				Id: qdrant.NewIDUUID(r.ID),
				Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
					"content": qdrant.NewVector(r.Embedding...),
				}),
				Payload: qdrant.NewValueMap(recordPayload(r)),
			}
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

func recordPayload(r *Record) map[string]any {
	concepts := make([]any, len(r.Concepts))
	for i, c := range r.Concepts {
		concepts[i] = c
	}
	return map[string]any{
		"kind":       r.Kind,
		"lecture_id": r.LectureID,
		"start":      r.Start,
		"end":        r.End,
		"question":   r.Question,
		"answer":     r.Answer,
		"pearl":      r.Pearl,
		"context":    r.Context,
		"concepts":   concepts,
	}
}

func (s *Store) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: CollectionName,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// Search performs vector similarity search, optionally filtered to one
// lecture, returning records ordered by score descending.
func (s *Store) Search(ctx context.Context, embedding []float32, limit int, lectureID string) ([]*ScoredRecord, error) {
	if len(embedding) != VectorDimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), VectorDimension)
	}

	var filter *qdrant.Filter
	if lectureID != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("lecture_id", lectureID)},
		}
	}

	vectorName := "content"
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: CollectionName,
		Query:          qdrant.NewQuery(embedding...),
		Using:          &vectorName,
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}

	records := make([]*ScoredRecord, 0, len(results))
	for _, result := range results {
		payload := result.Payload

		var concepts []string
		if v, ok := payload["concepts"]; ok && v.GetListValue() != nil {
			for _, val := range v.GetListValue().Values {
				concepts = append(concepts, val.GetStringValue())
			}
		}

		records = append(records, &ScoredRecord{
			Record: Record{
				ID:        result.Id.GetUuid(),
				Kind:      payload["kind"].GetStringValue(),
				LectureID: payload["lecture_id"].GetStringValue(),
				Start:     payload["start"].GetDoubleValue(),
				End:       payload["end"].GetDoubleValue(),
				Question:  payload["question"].GetStringValue(),
				Answer:    payload["answer"].GetStringValue(),
				Pearl:     payload["pearl"].GetStringValue(),
				Context:   payload["context"].GetStringValue(),
				Concepts:  concepts,
			},
			Score: float64(result.Score),
		})
	}
	return records, nil
}

// Count reports the number of stored points.
func (s *Store) Count(ctx context.Context) (uint64, error) {
	collection, err := s.client.GetCollectionInfo(ctx, CollectionName)
	if err != nil {
		return 0, fmt.Errorf("get collection: %w", err)
	}
	return collection.GetPointsCount(), nil
}
