package vocab

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FetchFunc resolves a term to its concepts when the store has no entry.
type FetchFunc func(ctx context.Context, term string) ([]Concept, error)

// ConceptStore memoizes term-to-concept lookups. Implementations must be
// safe for concurrent use, and GetOrFetch must coalesce concurrent misses
// for the same term into a single fetch.
type ConceptStore interface {
	Get(term string) ([]Concept, bool)
	Put(term string, concepts []Concept)
	GetOrFetch(ctx context.Context, term string, fetch FetchFunc) ([]Concept, error)
}

// MemoryStore is the in-process ConceptStore. Entries live for the process
// lifetime; the vocabulary is finite and small in practice, so there is no
// eviction.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]Concept
	group   singleflight.Group
}

// NewMemoryStore creates an empty in-memory concept store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]Concept)}
}

func cacheKey(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// Get returns the cached concepts for a term, if present.
func (s *MemoryStore) Get(term string) ([]Concept, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	concepts, ok := s.entries[cacheKey(term)]
	return concepts, ok
}

// Put stores concepts for a term, replacing any existing entry.
func (s *MemoryStore) Put(term string, concepts []Concept) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[cacheKey(term)] = concepts
}

// GetOrFetch returns cached concepts or resolves them with fetch. Concurrent
// misses on the same term share one fetch call and all receive its result.
func (s *MemoryStore) GetOrFetch(ctx context.Context, term string, fetch FetchFunc) ([]Concept, error) {
	key := cacheKey(term)
	if concepts, ok := s.Get(key); ok {
		return concepts, nil
	}

	result, err, _ := s.group.Do(key, func() (any, error) {
		// A racing caller may have filled the entry before we got the
		// singleflight slot.
		if concepts, ok := s.Get(key); ok {
			return concepts, nil
		}
		concepts, err := fetch(ctx, term)
		if err != nil {
			return nil, err
		}
		s.Put(key, concepts)
		return concepts, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Concept), nil
}

// Len reports the number of cached terms.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Export writes the cache contents to a JSON checkpoint file.
func (s *MemoryStore) Export(path string) error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.entries, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadFrom seeds the cache from a previously exported checkpoint. A missing
// file is not an error; the cache simply starts empty.
func (s *MemoryStore) LoadFrom(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	entries := make(map[string][]Concept)
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range entries {
		s.entries[k] = v
	}
	return nil
}
