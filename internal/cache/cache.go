package cache

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

// Content is the documentation payload stored for one fingerprint.
type Content struct {
	Text   string `json:"text"`
	Tokens int    `json:"tokens"`
}

// Entry is one cached documentation fetch, persisted as a JSON file named
// after its fingerprint.
type Entry struct {
	Fingerprint    string    `json:"fingerprint"`
	LibraryID      string    `json:"library_id"`
	LibraryName    string    `json:"library_name"`
	LibraryVersion string    `json:"library_version"`
	QueryIntent    string    `json:"query_intent"`
	Content        Content   `json:"content"`
	Citations      []string  `json:"citations,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Manager provides fast fingerprint lookups backed by a directory of entry
// files. All entries are kept in memory; the directory is the durable copy.
type Manager struct {
	dir        string
	maxEntries int

	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewManager opens (or creates) a cache directory and loads existing entries.
// maxEntries bounds the cache; 0 means unbounded.
func NewManager(dir string, maxEntries int) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	m := &Manager{
		dir:        dir,
		maxEntries: maxEntries,
		entries:    make(map[string]*Entry),
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) entryPath(fingerprint string) string {
	return filepath.Join(m.dir, fingerprint+".json")
}

func (m *Manager) load() error {
	files, err := os.ReadDir(m.dir)
	if err != nil {
		return err
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(m.dir, f.Name()))
		if err != nil {
			continue
		}

		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			// Corrupted entry, skip it
			continue
		}
		if e.Fingerprint == "" {
			continue
		}

		m.entries[e.Fingerprint] = &e
	}

	return nil
}

// Set stores a documentation payload under a fingerprint. An existing entry
// with the same fingerprint is overwritten; last write wins.
func (m *Manager) Set(fingerprint, libraryID, libraryName, libraryVersion, queryIntent string, content Content, citations []string) error {
	entry := &Entry{
		Fingerprint:    fingerprint,
		LibraryID:      libraryID,
		LibraryName:    libraryName,
		LibraryVersion: libraryVersion,
		QueryIntent:    queryIntent,
		Content:        content,
		Citations:      citations,
		CreatedAt:      time.Now(),
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(m.entryPath(fingerprint), data, 0644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	m.mu.Lock()
	m.entries[fingerprint] = entry
	m.mu.Unlock()

	m.enforceLimit()
	return nil
}

// Get returns the entry for a fingerprint, or nil if not cached.
func (m *Manager) Get(fingerprint string) *Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[fingerprint]
}

// List returns all entries sorted by creation time, newest first.
func (m *Manager) List() []*Entry {
	m.mu.RLock()
	entries := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].Fingerprint < entries[j].Fingerprint
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	return entries
}

// Delete removes an entry from memory and disk.
func (m *Manager) Delete(fingerprint string) error {
	m.mu.Lock()
	delete(m.entries, fingerprint)
	m.mu.Unlock()

	err := os.Remove(m.entryPath(fingerprint))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Prune removes entries older than the given duration and returns how many
// were deleted.
func (m *Manager) Prune(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	deleted := 0
	for _, e := range m.List() {
		if e.CreatedAt.Before(cutoff) {
			if err := m.Delete(e.Fingerprint); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}

// Clear removes every entry.
func (m *Manager) Clear() (int, error) {
	entries := m.List()
	for _, e := range entries {
		if err := m.Delete(e.Fingerprint); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

// Len returns the number of cached entries.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// DiskUsage returns the total size of all entry files.
func (m *Manager) DiskUsage() (int64, error) {
	var size int64
	err := filepath.Walk(m.dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// enforceLimit drops the oldest entries once the configured bound is exceeded.
func (m *Manager) enforceLimit() {
	if m.maxEntries <= 0 {
		return
	}

	entries := m.List()
	for len(entries) > m.maxEntries {
		oldest := entries[len(entries)-1]
		if err := m.Delete(oldest.Fingerprint); err != nil {
			return
		}
		entries = entries[:len(entries)-1]
	}
}
