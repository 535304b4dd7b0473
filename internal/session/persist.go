// ABOUTME: Persistence for the session token/role pair
// ABOUTME: File-backed store for the CLI and an in-memory store for tests

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Persister saves and restores the session between runs
type Persister interface {
	Load() (*Session, error)
	Save(sess Session) error
	Clear() error
}

// FileStore keeps the session in a JSON file readable only by the owner
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the session file location
func (s *FileStore) Path() string {
	return s.path
}

// Load returns nil when no session has been saved
func (s *FileStore) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	if sess.Token == "" {
		return nil, nil
	}
	return &sess, nil
}

func (s *FileStore) Save(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("mkdir session dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// MemoryStore holds the session in memory only
type MemoryStore struct {
	mu   sync.Mutex
	sess *Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return nil, nil
	}
	cp := *m.sess
	return &cp, nil
}

func (m *MemoryStore) Save(sess Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = &sess
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	return nil
}
