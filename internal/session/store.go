package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// RetentionDays is how long sessions are kept before cleanup.
const RetentionDays = 30

// Store manages session files in a single directory.
type Store struct {
	mu      sync.RWMutex
	baseDir string
}

// NewStore creates a store rooted at ~/.codo/sessions and runs cleanup
// in the background.
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	baseDir := filepath.Join(home, ".codo", "sessions")
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	s := &Store{baseDir: baseDir}
	go s.Cleanup()
	return s, nil
}

// NewStoreAt creates a store at an explicit directory, for tests.
func NewStoreAt(dir string) *Store {
	return &Store{baseDir: dir}
}

// Save writes a session to disk, assigning an ID and title if missing
// and refreshing UpdatedAt.
func (s *Store) Save(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.Metadata.ID == "" {
		sess.Metadata.ID = newSessionID()
	}
	if sess.Metadata.CreatedAt.IsZero() {
		sess.Metadata.CreatedAt = time.Now()
	}
	if sess.Metadata.Title == "" {
		sess.Metadata.Title = GenerateTitle(sess.Messages)
	}
	sess.Metadata.UpdatedAt = time.Now()
	sess.Metadata.MessageCount = len(sess.Messages)

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	path := filepath.Join(s.baseDir, sess.Metadata.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load reads a session by ID.
func (s *Store) Load(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadLocked(id)
}

func (s *Store) loadLocked(id string) (*Session, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	return &sess, nil
}

// List returns metadata for all sessions, newest first. Invalid files
// are skipped.
func (s *Store) List() ([]Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var metas []Metadata
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		sess, err := s.loadLocked(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		metas = append(metas, sess.Metadata)
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Latest returns the most recently updated session.
func (s *Store) Latest() (*Session, error) {
	metas, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(metas) == 0 {
		return nil, fmt.Errorf("no sessions found")
	}
	return s.Load(metas[0].ID)
}

// LatestByCwd returns the most recent session started in dir.
func (s *Store) LatestByCwd(dir string) (*Session, error) {
	metas, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, m := range metas {
		if m.Cwd == dir {
			return s.Load(m.ID)
		}
	}
	return nil, fmt.Errorf("no sessions found for %s", dir)
}

// Delete removes a session file. Missing files are not an error.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.baseDir, id+".json")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Cleanup deletes sessions not updated within RetentionDays.
func (s *Store) Cleanup() error {
	metas, err := s.List()
	if err != nil {
		return err
	}
	cutoff := time.Now().AddDate(0, 0, -RetentionDays)
	for _, m := range metas {
		if m.UpdatedAt.Before(cutoff) {
			if err := s.Delete(m.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
