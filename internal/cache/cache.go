// Package cache keeps shell completion candidates on disk between runs.
package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is the stored form of one key. Expiry is decided when reading, so a
// changed cache.ttl applies to entries written before the change.
type Entry struct {
	Key      string    `json:"key"`
	Values   []string  `json:"values"`
	StoredAt time.Time `json:"stored_at"`
}

// Manager reads and writes entries under one directory, one file per key.
type Manager struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewManager opens (and creates) the cache directory. An empty dir means
// ~/.saple/cache.
func NewManager(dir string, ttl time.Duration) (*Manager, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".saple", "cache")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Manager{dir: dir, ttl: ttl, now: time.Now}, nil
}

var keyReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_", "..", "_")

func (m *Manager) file(key string) string {
	return filepath.Join(m.dir, keyReplacer.Replace(key)+".json")
}

// Get returns the values stored for key unless they are older than the TTL.
// Unreadable entries count as misses.
func (m *Manager) Get(key string) ([]string, bool) {
	raw, err := os.ReadFile(m.file(key))
	if err != nil {
		return nil, false
	}
	var e Entry
	if json.Unmarshal(raw, &e) != nil || e.StoredAt.IsZero() {
		return nil, false
	}
	if m.now().Sub(e.StoredAt) > m.ttl {
		return nil, false
	}
	return e.Values, true
}

// Set replaces the entry for key. The file is renamed into place so a
// concurrent completion never reads half an entry.
func (m *Manager) Set(key string, values []string) error {
	raw, err := json.Marshal(Entry{Key: key, Values: values, StoredAt: m.now()})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(m.dir, ".entry-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), m.file(key))
}

// Fetch is Get with a fallback: on a miss it calls load and stores what it
// returns. Failing to store is not an error.
func (m *Manager) Fetch(key string, load func() ([]string, error)) ([]string, error) {
	if values, ok := m.Get(key); ok {
		return values, nil
	}
	values, err := load()
	if err != nil {
		return nil, err
	}
	_ = m.Set(key, values)
	return values, nil
}

// Clear drops the entry for key if there is one.
func (m *Manager) Clear(key string) error {
	err := os.Remove(m.file(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ClearAll drops every entry.
func (m *Manager) ClearAll() error {
	files, err := filepath.Glob(filepath.Join(m.dir, "*.json"))
	if err != nil {
		return err
	}
	var errs []error
	for _, f := range files {
		if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
