package vectorstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/specializedmd/lecture-pipeline/internal/embedding"
	"github.com/specializedmd/lecture-pipeline/internal/ragindex"
)

// Publisher embeds consolidated index content and upserts it into the
// vector store.
type Publisher struct {
	store    *Store
	embedder *embedding.Embedder
	logger   *slog.Logger
}

// NewPublisher creates a Publisher.
func NewPublisher(store *Store, embedder *embedding.Embedder, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{store: store, embedder: embedder, logger: logger}
}

// PublishIndex embeds every QA pair and clinical pearl in the index and
// upserts the records. When replace is true the collection is cleared
// first, so the store ends up mirroring the index exactly.
func (p *Publisher) PublishIndex(ctx context.Context, index *ragindex.Index, replace bool) (int, error) {
	if replace {
		if err := p.store.ClearCollection(ctx); err != nil {
			return 0, fmt.Errorf("clear collection: %w", err)
		}
	} else if err := p.store.EnsureCollection(ctx); err != nil {
		return 0, fmt.Errorf("ensure collection: %w", err)
	}

	records := buildRecords(index)
	if len(records) == 0 {
		p.logger.Info("nothing to publish")
		return 0, nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text()
	}

	p.logger.Info("embedding records", "count", len(records))
	embeddings, err := p.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("generate embeddings: %w", err)
	}
	if len(embeddings) != len(records) {
		return 0, fmt.Errorf("embedding count mismatch: got %d for %d records", len(embeddings), len(records))
	}
	for i := range records {
		records[i].Embedding = embeddings[i]
	}

	if err := p.store.UpsertRecords(ctx, records); err != nil {
		return 0, fmt.Errorf("upsert records: %w", err)
	}

	p.logger.Info("index published", "records", len(records))
	return len(records), nil
}

func buildRecords(index *ragindex.Index) []*Record {
	records := make([]*Record, 0, len(index.QAPairs)+len(index.ClinicalPearls))

	for _, qa := range index.QAPairs {
		records = append(records, &Record{
			ID:        uuid.New().String(),
			Kind:      KindQA,
			LectureID: qa.LectureID,
			Start:     qa.Timestamp.Start,
			End:       qa.Timestamp.End,
			Question:  qa.Question,
			Answer:    qa.Answer,
			Context:   qa.Context,
			Concepts:  qa.Concepts,
		})
	}

	for _, pearl := range index.ClinicalPearls {
		records = append(records, &Record{
			ID:        uuid.New().String(),
			Kind:      KindPearl,
			LectureID: pearl.LectureID,
			Start:     pearl.Timestamp.Start,
			End:       pearl.Timestamp.End,
			Pearl:     pearl.Pearl,
		})
	}

	return records
}
