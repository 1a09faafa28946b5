package library

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// FailedGuideline records one document that could not be synced.
type FailedGuideline struct {
	Path  string
	Error string
}

// SyncResult summarizes one sync run. Individual document failures do not
// abort the run; they are collected here.
type SyncResult struct {
	TotalDocs int
	Synced    int
	Skipped   int
	Failed    []FailedGuideline
}

// Syncer pulls guideline documents from GitHub into the local library,
// skipping documents whose blob SHA has not changed.
type Syncer struct {
	fetcher *Fetcher
	chunker *Chunker
	store   *Store
	logger  *slog.Logger
}

// NewSyncer creates a Syncer.
func NewSyncer(fetcher *Fetcher, store *Store, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		fetcher: fetcher,
		chunker: NewChunker(),
		store:   store,
		logger:  logger,
	}
}

// Sync updates the local library to match the remote guidelines directory.
// Listing failures are fatal; per-document fetch or chunk failures are
// recorded in the result and the rest of the run continues.
func (s *Syncer) Sync(ctx context.Context) (*SyncResult, error) {
	lib, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	paths, err := s.fetcher.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list guidelines: %w", err)
	}

	result := &SyncResult{TotalDocs: len(paths)}
	seen := make(map[string]bool, len(paths))

	for _, path := range paths {
		seen[path] = true
		if err := s.syncOne(ctx, lib, path, result); err != nil {
			s.logger.Warn("guideline sync failed", "path", path, "error", err)
			result.Failed = append(result.Failed, FailedGuideline{Path: path, Error: err.Error()})
		}
	}

	// Drop documents deleted upstream.
	for path := range lib.Guidelines {
		if !seen[path] {
			delete(lib.Guidelines, path)
		}
	}

	if sha, err := s.fetcher.LatestCommitSHA(ctx); err != nil {
		s.logger.Warn("could not record commit SHA", "error", err)
	} else {
		lib.CommitSHA = sha
	}
	lib.SyncedAt = time.Now().UTC()

	if err := s.store.Save(lib); err != nil {
		return nil, err
	}

	s.logger.Info("library synced",
		"total", result.TotalDocs,
		"synced", result.Synced,
		"skipped", result.Skipped,
		"failed", len(result.Failed),
	)
	return result, nil
}

func (s *Syncer) syncOne(ctx context.Context, lib *Library, path string, result *SyncResult) error {
	doc, err := s.fetcher.Fetch(ctx, path)
	if err != nil {
		return err
	}

	if existing, ok := lib.Guidelines[path]; ok && existing.SHA == doc.SHA {
		result.Skipped++
		return nil
	}

	sections, err := s.chunker.Split([]byte(doc.Content))
	if err != nil {
		return fmt.Errorf("chunk %s: %w", path, err)
	}

	lib.Guidelines[path] = Guideline{
		Path:      doc.Path,
		SHA:       doc.SHA,
		URL:       doc.URL,
		FetchedAt: time.Now().UTC(),
		Sections:  sections,
	}
	result.Synced++
	return nil
}
