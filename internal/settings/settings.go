// Package settings persists API credentials and pipeline configuration in a
// JSON file under the user's home directory, with automatic backups and
// quarantine of corrupted files.
package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

// DefaultDirName is the settings directory under the user's home.
const DefaultDirName = ".specializedmd"

const settingsFileName = "settings.json"

// RequiredKeys maps every recognized credential key to its description.
// Set rejects keys outside this registry.
var RequiredKeys = map[string]string{
	"PUBMED_EMAIL":     "Email address for PubMed/NCBI API access",
	"PUBMED_API_KEY":   "NCBI/PubMed API key for accessing medical literature",
	"GROQ_API_KEY":     "Groq API key for audio transcription",
	"DEEPSEEK_API_KEY": "DeepSeek API key for segment analysis",
	"OPENAI_API_KEY":   "OpenAI API key for embedding generation",
	"UMLS_API_KEY":     "UMLS API key for medical terminology access",
	"GITHUB_TOKEN":     "GitHub token for guideline library sync",
}

// keyPatterns holds format validation for keys with a known shape.
var keyPatterns = map[string]*regexp.Regexp{
	"PUBMED_EMAIL": regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`),
}

// Store manages the settings file.
type Store struct {
	dir    string
	values map[string]string
	logger *slog.Logger
}

// Open loads or initializes the settings store in dir. An empty dir selects
// DefaultDirName under the user's home. A corrupted settings file is moved
// aside and replaced with a fresh one rather than failing.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, DefaultDirName)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}

	s := &Store{dir: dir, values: make(map[string]string), logger: logger}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) path() string {
	return filepath.Join(s.dir, settingsFileName)
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read settings: %w", err)
	}

	if err := json.Unmarshal(data, &s.values); err != nil {
		s.quarantine()
		s.values = make(map[string]string)
		return nil
	}
	return nil
}

// quarantine moves a corrupted settings file aside so the content stays
// available for manual recovery.
func (s *Store) quarantine() {
	stamp := time.Now().Format("20060102_150405")
	aside := filepath.Join(s.dir, fmt.Sprintf("settings_corrupted_%s.json", stamp))
	if err := os.Rename(s.path(), aside); err != nil {
		s.logger.Error("could not quarantine corrupted settings", "error", err)
		return
	}
	s.logger.Warn("corrupted settings file moved aside", "backup", aside)
}

// Get returns the value for a registered key, or "" when unset.
func (s *Store) Get(key string) string {
	return s.values[key]
}

// Set validates and stores a value, backing up the current file first.
func (s *Store) Set(key, value string) error {
	if _, ok := RequiredKeys[key]; !ok {
		return fmt.Errorf("unknown settings key %q", key)
	}
	if pattern, ok := keyPatterns[key]; ok && value != "" && !pattern.MatchString(value) {
		return fmt.Errorf("value for %s has invalid format", key)
	}

	s.values[key] = value
	return s.save()
}

// Delete removes a key's value, backing up the current file first.
func (s *Store) Delete(key string) error {
	if _, ok := RequiredKeys[key]; !ok {
		return fmt.Errorf("unknown settings key %q", key)
	}
	delete(s.values, key)
	return s.save()
}

// Status reports, for every registered key, whether a value is set.
func (s *Store) Status() map[string]bool {
	status := make(map[string]bool, len(RequiredKeys))
	for key := range RequiredKeys {
		status[key] = s.values[key] != ""
	}
	return status
}

// save writes settings after creating a timestamped backup of the existing
// file.
func (s *Store) save() error {
	if _, err := os.Stat(s.path()); err == nil {
		if err := s.backup(); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(s.path(), append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func (s *Store) backup() error {
	data, err := os.ReadFile(s.path())
	if err != nil {
		return fmt.Errorf("read settings for backup: %w", err)
	}
	stamp := time.Now().Format("20060102_150405")
	name := filepath.Join(s.dir, fmt.Sprintf("settings_backup_%s.json", stamp))
	if err := os.WriteFile(name, data, 0o600); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// Backups lists backup files, newest first.
func (s *Store) Backups() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "settings_backup_*.json"))
	if err != nil {
		return nil, err
	}
	// Timestamped names sort chronologically.
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches, nil
}

// Restore replaces current settings with a backup's content. The current
// state is backed up first.
func (s *Store) Restore(backupPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	var restored map[string]string
	if err := json.Unmarshal(data, &restored); err != nil {
		return fmt.Errorf("backup file is corrupted: %w", err)
	}

	s.values = restored
	return s.save()
}
