// Package store persists session state as small per-key JSON files.
// Each logical field lives in its own file so a torn write or a corrupt
// value damages only that field; readers fall back to defaults rather
// than failing.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/hashstructure/v2"
)

// Logical keys for the persisted session fields.
const (
	KeyRecentlyPlayed = "recently-played"
	KeyQueue          = "queue"
	KeyVolume         = "volume"
	KeyShuffle        = "shuffle"
	KeyRepeat         = "repeat"
	KeyLibraryIndex   = "library-index"
)

// Store is a string-keyed persistence adapter over a directory of JSON
// files. It is safe for concurrent use.
type Store struct {
	dir string

	mu     sync.Mutex
	hashes map[string]uint64
}

// DefaultDir returns the default state directory
// (~/.config/strum/state).
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "strum", "state"), nil
}

// New creates a store rooted at dir. If dir is empty, the default
// location is used. The directory is created lazily on first write.
func New(dir string) (*Store, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}

	return &Store{
		dir:    dir,
		hashes: make(map[string]uint64),
	}, nil
}

// Dir returns the directory holding the state files.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file backing the given key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// GetItem reads the raw value stored under key. A missing key is not
// an error: it returns ("", false, nil).
func (s *Store) GetItem(key string) (string, bool, error) {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil // nothing stored yet
		}
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), true, nil
}

// SetItem writes the raw value under key. Writes are skipped when the
// value is unchanged since the last successful write in this process.
func (s *Store) SetItem(key, value string) error {
	return s.write(key, []byte(value), hashOf(value))
}

// RemoveItem deletes the value stored under key, if any.
func (s *Store) RemoveItem(key string) error {
	s.mu.Lock()
	delete(s.hashes, key)
	s.mu.Unlock()

	err := os.Remove(s.Path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// SetJSON marshals v and stores it under key.
func (s *Store) SetJSON(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.write(key, data, hashOf(v))
}

// GetJSON reads the value under key into out. It returns false when the
// key is absent or the stored value cannot be parsed; out is untouched
// in that case, so callers pre-fill it with their default.
func (s *Store) GetJSON(key string, out any) bool {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false // corrupt value, treat as absent
	}
	return true
}

// GetInt reads an integer field, falling back on absence or damage.
func (s *Store) GetInt(key string, fallback int) int {
	v := fallback
	if !s.GetJSON(key, &v) {
		return fallback
	}
	return v
}

// SetInt stores an integer field.
func (s *Store) SetInt(key string, v int) error {
	return s.SetJSON(key, v)
}

// GetBool reads a boolean field, falling back on absence or damage.
func (s *Store) GetBool(key string, fallback bool) bool {
	v := fallback
	if !s.GetJSON(key, &v) {
		return fallback
	}
	return v
}

// SetBool stores a boolean field.
func (s *Store) SetBool(key string, v bool) error {
	return s.SetJSON(key, v)
}

// GetString reads a string field, falling back on absence or damage.
func (s *Store) GetString(key, fallback string) string {
	v := fallback
	if !s.GetJSON(key, &v) {
		return fallback
	}
	return v
}

// SetString stores a string field.
func (s *Store) SetString(key, v string) error {
	return s.SetJSON(key, v)
}

func (s *Store) write(key string, data []byte, hash uint64) error {
	s.mu.Lock()
	if hash != 0 && s.hashes[key] == hash {
		s.mu.Unlock()
		return nil // unchanged since last write
	}
	s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	if err := os.WriteFile(s.Path(key), data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	if hash != 0 {
		s.mu.Lock()
		s.hashes[key] = hash
		s.mu.Unlock()
	}
	return nil
}

// hashOf returns a structural hash of v, or 0 when v is unhashable.
// A zero hash disables the unchanged-write skip for that value.
func hashOf(v any) uint64 {
	h, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}
	return h
}
