package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store is an in-memory JSON document persisted to a single file.
// It is not safe for concurrent use.
type Store struct {
	// dir is the directory that holds the canonical file and its temporaries.
	dir string

	// path is the canonical file path.
	path string

	// data is the whole document.
	data map[string]map[string]json.RawMessage

	// rename replaces the canonical file with a fully written temporary file.
	rename func(oldpath, newpath string) error
}

// Open loads the document stored at dir/name. A missing file yields an
// empty document; the directory is created when needed.
func Open(dir, name string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	s := &Store{
		dir:    dir,
		path:   filepath.Join(dir, name),
		data:   make(map[string]map[string]json.RawMessage),
		rename: os.Rename,
	}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("failed to parse history %s: %w", s.path, err)
	}
	for name, category := range s.data {
		if category == nil {
			s.data[name] = make(map[string]json.RawMessage)
		}
	}
	return s, nil
}

// Path returns the canonical file path of the document.
func (s *Store) Path() string {
	return s.path
}

// Category returns the sub-document called name, creating an empty one
// if it does not exist yet.
func (s *Store) Category(name string) map[string]json.RawMessage {
	category, ok := s.data[name]
	if !ok {
		category = make(map[string]json.RawMessage)
		s.data[name] = category
	}
	return category
}

// SetCategory replaces the sub-document called name.
func (s *Store) SetCategory(name string, category map[string]json.RawMessage) {
	if category == nil {
		category = make(map[string]json.RawMessage)
	}
	s.data[name] = category
}

// SetItem stores v under category/key, replacing any previous value.
func (s *Store) SetItem(category, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", category, key, err)
	}
	s.Category(category)[key] = raw
	return nil
}

// HasItem reports whether category/key holds a value.
func (s *Store) HasItem(category, key string) bool {
	_, ok := s.data[category][key]
	return ok
}

// GetItem decodes the value stored under category/key. When there is no
// value, def is stored there and returned.
func GetItem[T any](s *Store, category, key string, def T) (T, error) {
	raw, ok := s.Category(category)[key]
	if !ok {
		if err := s.SetItem(category, key, def); err != nil {
			return def, err
		}
		return def, nil
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return def, fmt.Errorf("failed to decode %s/%s: %w", category, key, err)
	}
	return v, nil
}

// Save writes the whole document to a fresh temporary file next to the
// canonical file and renames it into place. Any error means the new state
// was not persisted and must be treated as fatal by the caller.
func (s *Store) Save() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "tmp_*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary history file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary history file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temporary history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary history file: %w", err)
	}

	if err := s.rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace history %s: %w", s.path, err)
	}
	return nil
}
