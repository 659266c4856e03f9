package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// storeVersion is written to every settings file.
const storeVersion = "1"

// Store persists settings sections.
type Store interface {
	// Load reads the settings from their backing medium
	Load() error

	// Save writes the settings to their backing medium
	Save() error

	// GetSection returns a copy of one section's data (empty if absent)
	GetSection(sectionID string) (map[string]interface{}, error)

	// SetSection replaces one section's data
	SetSection(sectionID string, data map[string]interface{}) error
}

// FileStore implements Store with a JSON file.
type FileStore struct {
	path     string
	mu       sync.RWMutex
	sections map[string]map[string]interface{}
	modified bool
}

type fileContents struct {
	Version  string                            `json:"version"`
	Sections map[string]map[string]interface{} `json:"sections"`
}

// DefaultSettingsPath returns ~/.pagefetch/settings.json.
func DefaultSettingsPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".pagefetch", "settings.json"), nil
}

// NewFileStore opens the settings file at path, or the default location
// when path is empty. A missing file is not an error.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		var err error
		if path, err = DefaultSettingsPath(); err != nil {
			return nil, err
		}
	}

	s := &FileStore{
		path:     path,
		sections: make(map[string]map[string]interface{}),
	}
	if err := s.Load(); err != nil {
		return nil, fmt.Errorf("failed to load settings from %s: %w", path, err)
	}
	return s, nil
}

// Load reads the settings file. A missing file yields empty settings.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.sections = make(map[string]map[string]interface{})
		s.modified = false
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	var contents fileContents
	if err := json.Unmarshal(data, &contents); err != nil {
		return fmt.Errorf("failed to decode settings file: %w", err)
	}

	s.sections = contents.Sections
	if s.sections == nil {
		s.sections = make(map[string]map[string]interface{})
	}
	s.modified = false
	return nil
}

// Save writes the settings file atomically through a temp file and rename.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(fileContents{Version: storeVersion, Sections: s.sections}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	// Credentials may be stored here, keep the file private
	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp settings file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp settings file: %w", err)
	}

	s.modified = false
	return nil
}

// GetSection returns a copy of a section's data.
func (s *FileStore) GetSection(sectionID string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyData(s.sections[sectionID]), nil
}

// SetSection stores a copy of a section's data.
func (s *FileStore) SetSection(sectionID string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[sectionID] = copyData(data)
	s.modified = true
	return nil
}

// IsModified reports whether there are unsaved changes.
func (s *FileStore) IsModified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

// Path returns the settings file path.
func (s *FileStore) Path() string {
	return s.path
}

func copyData(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
