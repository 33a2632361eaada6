package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// JsonFileStore stores the whole key space as one JSON object on disk,
// mapping each key to the raw text of its value.
//
// Layout:
//
//	data_dir/
//	  db.json   # {"key": "<raw value>", ...}
type JsonFileStore struct {
	mu   sync.RWMutex
	path string
}

func NewJsonFileStore(path string) (*JsonFileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &JsonFileStore{path: path}, nil
}

func (s *JsonFileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	var result map[string]string
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if result == nil {
		result = map[string]string{}
	}
	return result, nil
}

func (s *JsonFileStore) save(entries map[string]string) error {
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *JsonFileStore) Keys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *JsonFileStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, err := s.load()
	if err != nil {
		return nil, false, err
	}
	v, ok := entries[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

func (s *JsonFileStore) Set(entries map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.load()
	if err != nil {
		return err
	}
	for k, v := range entries {
		current[k] = string(v)
	}
	return s.save(current)
}

func (s *JsonFileStore) Delete(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.load()
	if err != nil {
		return false, err
	}
	if _, ok := current[key]; !ok {
		return false, nil
	}
	delete(current, key)
	return true, s.save(current)
}

func (s *JsonFileStore) Close() error {
	return nil
}
