package library

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// FileName is the reference library artifact.
const FileName = "guideline_library.json"

// Guideline is one synced document with its chunked sections.
type Guideline struct {
	Path      string    `json:"path"`
	SHA       string    `json:"sha"`
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetched_at"`
	Sections  []Section `json:"sections"`
}

// Library is the full local reference library.
type Library struct {
	CommitSHA  string               `json:"commit_sha"`
	SyncedAt   time.Time            `json:"synced_at"`
	Guidelines map[string]Guideline `json:"guidelines"` // keyed by path
}

// Hit is one section matching a library search.
type Hit struct {
	GuidelinePath string `json:"guideline_path"`
	URL           string `json:"url"`
	HeaderPath    string `json:"header_path"`
	Content       string `json:"content"`
}

// Store persists the library as a single JSON file.
type Store struct {
	path string
}

// NewStore creates a store at the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the library. A missing file yields an empty library, not an
// error, so first sync and repeat sync share one code path.
func (s *Store) Load() (*Library, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Library{Guidelines: make(map[string]Guideline)}, nil
		}
		return nil, fmt.Errorf("read library: %w", err)
	}

	var lib Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("decode library: %w", err)
	}
	if lib.Guidelines == nil {
		lib.Guidelines = make(map[string]Guideline)
	}
	return &lib, nil
}

// Save writes the library atomically via a temp file rename.
func (s *Store) Save(lib *Library) error {
	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return fmt.Errorf("encode library: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write library: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace library: %w", err)
	}
	return nil
}

// Search returns sections whose header path or content contains the query,
// case-insensitive, up to limit hits. limit <= 0 means unlimited.
func (lib *Library) Search(query string, limit int) []Hit {
	needle := strings.ToLower(query)
	var hits []Hit

	for _, g := range lib.Guidelines {
		for _, sec := range g.Sections {
			if !strings.Contains(strings.ToLower(sec.HeaderPath), needle) &&
				!strings.Contains(strings.ToLower(sec.Content), needle) {
				continue
			}
			hits = append(hits, Hit{
				GuidelinePath: g.Path,
				URL:           g.URL,
				HeaderPath:    sec.HeaderPath,
				Content:       sec.Content,
			})
			if limit > 0 && len(hits) >= limit {
				return hits
			}
		}
	}
	return hits
}
