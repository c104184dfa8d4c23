package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// fileRecord is the on-disk representation of one session.
type fileRecord struct {
	Values    map[string]json.RawMessage `json:"values"`
	ExpiresAt time.Time                  `json:"expires_at"`
}

// FileStore keeps one JSON file per session in a directory.
// A store-wide mutex serializes read-modify-write cycles within the process.
type FileStore struct {
	mu  sync.Mutex
	dir string
	ttl time.Duration
}

var (
	_ Store   = (*FileStore)(nil)
	_ Cleaner = (*FileStore)(nil)
)

// NewFileStore creates a file-backed store rooted at dir, creating it if needed.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	return &FileStore{dir: dir, ttl: cfg.TTL}, nil
}

// Get returns the value stored under key for the session.
func (s *FileStore) Get(_ context.Context, sessionID, key string) (any, error) {
	if !ValidID(sessionID) {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	rec, err := s.read(sessionID)
	s.mu.Unlock()
	if err != nil || rec == nil {
		return nil, err
	}

	raw, ok := rec.Values[key]
	if !ok {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errors.Join(ErrDecodeValue, err)
	}
	return v, nil
}

// Set stores value under key, or deletes key when value is nil.
func (s *FileStore) Set(_ context.Context, sessionID, key string, value any) error {
	if !ValidID(sessionID) {
		return ErrInvalidID
	}

	var raw json.RawMessage
	if value != nil {
		b, err := json.Marshal(value)
		if err != nil {
			return errors.Join(ErrEncodeValue, err)
		}
		raw = b
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read(sessionID)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &fileRecord{Values: make(map[string]json.RawMessage)}
	}

	if raw == nil {
		delete(rec.Values, key)
	} else {
		rec.Values[key] = raw
	}

	if len(rec.Values) == 0 {
		if err := os.Remove(s.path(sessionID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Join(ErrSaveSession, err)
		}
		return nil
	}
	if s.ttl > 0 {
		rec.ExpiresAt = time.Now().Add(s.ttl)
	}
	return s.write(sessionID, rec)
}

// DeleteExpired removes expired session files.
func (s *FileStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	var n int64
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := entry.Name()[:len(entry.Name())-len(".json")]
		rec, err := s.read(id)
		if err == nil && rec == nil {
			n++
		}
	}
	return n, nil
}

func (s *FileStore) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

// read loads a session record; expired records are removed and reported as nil.
func (s *FileStore) read(sessionID string) (*fileRecord, error) {
	b, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var rec fileRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, errors.Join(ErrDecodeValue, err)
	}
	if !rec.ExpiresAt.IsZero() && time.Now().After(rec.ExpiresAt) {
		_ = os.Remove(s.path(sessionID))
		return nil, nil
	}
	if rec.Values == nil {
		rec.Values = make(map[string]json.RawMessage)
	}
	return &rec, nil
}

// write replaces the session file atomically via rename.
func (s *FileStore) write(sessionID string, rec *fileRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return errors.Join(ErrEncodeValue, err)
	}

	tmp, err := os.CreateTemp(s.dir, sessionID+".*.tmp")
	if err != nil {
		return errors.Join(ErrSaveSession, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return errors.Join(ErrSaveSession, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Join(ErrSaveSession, err)
	}
	if err := os.Rename(tmp.Name(), s.path(sessionID)); err != nil {
		return errors.Join(ErrSaveSession, err)
	}
	return nil
}
