package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings is the process-wide configuration surface. ParallelProcessing
// and AutoDeskew are persisted and exposed but drive no behavior today;
// they are reserved flags.
type Settings struct {
	APIKey             string `yaml:"api_key" json:"api_key"`
	AutoSave           bool   `yaml:"auto_save" json:"auto_save"`
	ParallelProcessing bool   `yaml:"parallel_processing" json:"parallel_processing"`
	AutoDeskew         bool   `yaml:"auto_deskew" json:"auto_deskew"`
}

// Default returns the settings used before the user saves anything.
func Default() Settings {
	return Settings{
		AutoSave:           true,
		ParallelProcessing: true,
		AutoDeskew:         true,
	}
}

// DefaultPath returns the settings file location under the user config
// directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "settings.yaml"
	}
	return filepath.Join(dir, "ocr-dataset-builder", "settings.yaml")
}

// Load reads settings from path, falling back to defaults when the file
// does not exist yet.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings file: %w", err)
	}
	return s, nil
}

// Save writes settings to path, creating parent directories as needed.
// The file holds the API key, so it is not group or world readable.
func Save(path string, s Settings) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// Store holds the in-memory settings and persists every change. The
// pipeline reads only the in-memory value and never touches the file
// directly.
type Store struct {
	mu   sync.RWMutex
	path string
	cur  Settings
}

// NewStore loads settings from path (defaults when absent) and returns a
// store that writes back on every update.
func NewStore(path string) (*Store, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, cur: s}, nil
}

// Get returns the current settings.
func (st *Store) Get() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.cur
}

// Update replaces the settings and persists them.
func (st *Store) Update(next Settings) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := Save(st.path, next); err != nil {
		return err
	}
	st.cur = next
	return nil
}

// APIKey returns the configured vision service credential, preferring
// the saved settings and falling back to the GEMINI_API_KEY environment
// variable. The value is a secret and must never appear in logs.
func (st *Store) APIKey() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.cur.APIKey != "" {
		return st.cur.APIKey
	}
	return os.Getenv("GEMINI_API_KEY")
}
