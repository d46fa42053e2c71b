package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	hgerrors "github.com/pyview/hiergraph/pkg/errors"
)

// FileStore persists session states as JSON files in a directory so that
// view state survives server restarts.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based state store.
// If baseDir is empty, defaults to <user config dir>/hiergraph/sessions.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		cfg, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("get config dir: %w", err)
		}
		baseDir = filepath.Join(cfg, "hiergraph", "sessions")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) statePath(id string) (string, error) {
	if err := hgerrors.ValidateNodeID(id); err != nil {
		return "", err
	}
	if filepath.Base(id) != id || id == "." || id == ".." {
		return "", hgerrors.New(hgerrors.ErrCodeInvalidInput, "invalid session id %q", id)
	}
	return filepath.Join(s.baseDir, id+".json"), nil
}

// Get loads a state. It returns ErrNotFound if the state does not exist or
// has expired.
func (s *FileStore) Get(id string) (State, error) {
	path, err := s.statePath(id)
	if err != nil {
		return State{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return State{}, ErrNotFound
		}
		return State{}, fmt.Errorf("read session file: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("parse session: %w", err)
	}
	if !st.ExpiresAt.IsZero() && time.Now().After(st.ExpiresAt) {
		os.Remove(path)
		return State{}, ErrNotFound
	}
	return st, nil
}

// Set stores a state under its id.
func (s *FileStore) Set(st State) error {
	path, err := s.statePath(st.ID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Delete removes a state.
func (s *FileStore) Delete(id string) error {
	path, err := s.statePath(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// Cleanup removes expired and unreadable states.
func (s *FileStore) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("read session dir: %w", err)
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.baseDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var st State
		if err := json.Unmarshal(data, &st); err != nil || (!st.ExpiresAt.IsZero() && now.After(st.ExpiresAt)) {
			os.Remove(path)
		}
	}
	return nil
}

// Path returns the base directory for state files.
func (s *FileStore) Path() string {
	return s.baseDir
}

// Save persists the state of sess with the store's expiry.
func (s *FileStore) Save(st *Store, sess *Session) error {
	state := sess.State()
	state.ExpiresAt = st.ExpiresAt(sess)
	return s.Set(state)
}
