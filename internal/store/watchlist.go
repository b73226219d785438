// Package store persists the user's watch-list as a flat JSON file.
//
// The canonical on-disk schema is a JSON array of {code, name} records.
// The legacy bare string-array form ("["161725", ...]") is still accepted
// on load and import, since both forms exist in the wild and silently
// varying between them has caused data loss before.
package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fundwatch/fundwatch-backend/internal/apperrors"
	"github.com/fundwatch/fundwatch-backend/internal/model"
)

// FileStore is a durable ordered set of watch-list entries, unique by fund
// code. Single writer assumed; writes are whole-file, atomic
// (write-temp-then-rename) so a crash never leaves a truncated file.
type FileStore struct {
	path string

	mu      sync.Mutex
	corrupt bool
}

// NewFileStore creates a store backed by the file at path. The file is not
// created until the first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted watch-list. A missing file yields an empty
// list. A corrupt file also yields an empty list — never an error — but is
// logged and remembered so Corrupt reports it.
func (s *FileStore) Load() []model.WatchlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *FileStore) loadLocked() []model.WatchlistEntry {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []model.WatchlistEntry{}
	}
	if err != nil {
		log.Printf("watch-list unreadable, treating as empty: %v", err)
		s.corrupt = true
		return []model.WatchlistEntry{}
	}

	entries, err := ParseEntries(data)
	if err != nil {
		log.Printf("watch-list corrupt, treating as empty: %v", err)
		s.corrupt = true
		return []model.WatchlistEntry{}
	}

	s.corrupt = false
	return entries
}

// Corrupt reports whether the last load found the file unreadable or
// unparsable, meaning data may have been lost.
func (s *FileStore) Corrupt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.corrupt
}

// Add appends an entry and persists immediately. Adding a code that is
// already present is a no-op; the stored entry keeps its cached name.
func (s *FileStore) Add(entry model.WatchlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.loadLocked()
	for _, existing := range entries {
		if existing.Code == entry.Code {
			return nil
		}
	}

	return s.writeLocked(append(entries, entry))
}

// Remove deletes the entry with the given code and persists immediately.
// Removing an absent code is a no-op.
func (s *FileStore) Remove(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.loadLocked()
	kept := entries[:0]
	for _, entry := range entries {
		if entry.Code != code {
			kept = append(kept, entry)
		}
	}

	return s.writeLocked(kept)
}

// ImportAll merges the given entries into the store, deduplicating by
// code. Existing entries keep their position; an imported duplicate wins
// the cached name (last-write-wins). Import never replaces the list
// outright — outright replacement is how earlier versions lost data.
func (s *FileStore) ImportAll(entries []model.WatchlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.loadLocked()
	merged := make([]model.WatchlistEntry, len(existing))
	index := make(map[string]int, len(existing))
	for i, entry := range existing {
		merged[i] = entry
		index[entry.Code] = i
	}

	for _, entry := range entries {
		if i, ok := index[entry.Code]; ok {
			merged[i].Name = entry.Name
			continue
		}
		index[entry.Code] = len(merged)
		merged = append(merged, entry)
	}

	return s.writeLocked(merged)
}

// ExportAll produces the canonical persisted representation. The bytes
// round-trip exactly through ImportAll on an empty store.
func (s *FileStore) ExportAll() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return marshalEntries(s.loadLocked())
}

// ParseEntries decodes watch-list bytes in either the canonical record
// form or the legacy string-array form.
func ParseEntries(data []byte) ([]model.WatchlistEntry, error) {
	var entries []model.WatchlistEntry
	if err := json.Unmarshal(data, &entries); err == nil {
		return entries, nil
	}

	var codes []string
	if err := json.Unmarshal(data, &codes); err == nil {
		entries = make([]model.WatchlistEntry, len(codes))
		for i, code := range codes {
			entries[i] = model.WatchlistEntry{Code: code}
		}
		return entries, nil
	}

	return nil, apperrors.ErrInvalidImportPayload
}

func marshalEntries(entries []model.WatchlistEntry) ([]byte, error) {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode watch-list: %w", err)
	}
	return data, nil
}

// writeLocked atomically replaces the watch-list file: write to a temp
// file in the same directory, then rename over the target.
func (s *FileStore) writeLocked(entries []model.WatchlistEntry) error {
	data, err := marshalEntries(entries)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create watch-list directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".watchlist-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write watch-list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace watch-list file: %w", err)
	}

	s.corrupt = false
	return nil
}
