package file

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store persists client state as a single JSON object on disk, rewritten on
// every mutation. A corrupt state file is discarded and replaced with an
// empty map rather than surfaced to the caller.
type Store struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

func NewStore(path string) (*Store, error) {
	s := &Store{path: path, values: make(map[string]string)}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.values); err != nil {
		log.Printf("discarding malformed state file %s: %v", path, err)
		s.values = make(map[string]string)
	}
	return s, nil
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flush()
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return s.flush()
}

func (s *Store) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.values))
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
	return s.flush()
}

// flush writes the full map to a temp file and renames it into place so a
// crash mid-write never leaves a truncated state file. Callers hold s.mu.
func (s *Store) flush() error {
	raw, err := json.Marshal(s.values)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
