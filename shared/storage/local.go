package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// LocalStore is a persistent key-value store backed by a single JSON file.
// It stands in for extension storage: small, always available, and shaped as
// named keys holding JSON values.
type LocalStore struct {
	filePath string
	mu       sync.RWMutex
	values   map[string]json.RawMessage
}

// NewLocalStore opens (or creates) the store file at path.
func NewLocalStore(path string) (*LocalStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	store := &LocalStore{
		filePath: path,
		values:   make(map[string]json.RawMessage),
	}
	if err := store.load(); err != nil {
		return nil, fmt.Errorf("failed to load local store: %w", err)
	}
	return store, nil
}

// Get unmarshals the value under key into v. The second return reports
// whether the key existed.
func (s *LocalStore) Get(key string, v any) (bool, error) {
	s.mu.RLock()
	raw, exists := s.values[key]
	s.mu.RUnlock()

	if !exists {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("failed to decode key %s: %w", key, err)
	}
	return true, nil
}

// Set stores v under key and persists the file.
func (s *LocalStore) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode key %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = raw
	return s.save()
}

// Delete removes key and persists the file.
func (s *LocalStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return s.save()
}

func (s *LocalStore) load() error {
	file, err := os.Open(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist yet, start empty
			return nil
		}
		return fmt.Errorf("failed to open store file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&s.values); err != nil {
		return fmt.Errorf("failed to decode store data: %w", err)
	}
	return nil
}

func (s *LocalStore) save() error {
	file, err := os.Create(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to create store file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s.values)
}
