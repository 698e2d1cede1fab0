package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rshade/planfocus/internal/record"
)

// FileStoreVersion is the schema version of the store file.
const FileStoreVersion = 1

// fileData is the serialized form of a FileStore.
type fileData struct {
	Version     int                                 `json:"version"`
	Collections map[string]map[string]record.Record `json:"collections"`
}

// FileStore is a MemoryStore persisted to a JSON file.
//
// Every operation takes a cross-process lockfile and reloads the file, so several
// CLI processes can share one store. Writes are atomic via a temp file and rename.
type FileStore struct {
	mem      *MemoryStore
	filePath string
}

// NewFileStore creates a FileStore at filePath.
// If filePath is empty, it defaults to ~/.planfocus/store.json.
func NewFileStore(filePath string) (*FileStore, error) {
	if filePath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("determining home directory: %w", err)
		}
		filePath = filepath.Join(homeDir, ".planfocus", "store.json")
	}

	return &FileStore{
		mem:      NewMemoryStore(),
		filePath: filePath,
	}, nil
}

// WithCompositeIndex controls whether compound queries are served.
func (s *FileStore) WithCompositeIndex(enabled bool) *FileStore {
	s.mem.WithCompositeIndex(enabled)
	return s
}

// FilePath returns the path of the store file.
func (s *FileStore) FilePath() string {
	return s.filePath
}

// Capabilities implements Store.
func (s *FileStore) Capabilities() Capabilities {
	return s.mem.Capabilities()
}

// Create implements Store.
func (s *FileStore) Create(ctx context.Context, collection string, rec record.Record) (record.Record, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	var out record.Record
	err := s.mutate(func() error {
		var err error
		out, err = s.mem.createLocked(collection, rec)
		return err
	})
	return out, err
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, collection, id string) (record.Record, error) {
	if err := s.refresh(); err != nil {
		return nil, err
	}
	return s.mem.Get(ctx, collection, id)
}

// Update implements Store.
func (s *FileStore) Update(_ context.Context, collection, id string, patch record.Record) (record.Record, error) {
	var out record.Record
	err := s.mutate(func() error {
		var err error
		out, err = s.mem.updateLocked(collection, id, patch)
		return err
	})
	return out, err
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, collection, id string) error {
	return s.mutate(func() error {
		return s.mem.deleteLocked(collection, id)
	})
}

// Query implements Store.
func (s *FileStore) Query(ctx context.Context, q Query) (Result, error) {
	if err := s.refresh(); err != nil {
		return Result{}, err
	}
	return s.mem.Query(ctx, q)
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) lockPath() string {
	return s.filePath + ".lock"
}

// refresh reloads the file under the lockfile.
func (s *FileStore) refresh() error {
	unlock, err := acquireLock(s.lockPath())
	if err != nil {
		return fmt.Errorf("acquiring file lock: %w", err)
	}
	defer unlock()

	s.mem.mu.Lock()
	defer s.mem.mu.Unlock()
	return s.loadLocked()
}

// mutate reloads the file, applies fn, and saves, all under the lockfile.
// Nothing is written when fn fails.
func (s *FileStore) mutate(fn func() error) error {
	unlock, err := acquireLock(s.lockPath())
	if err != nil {
		return fmt.Errorf("acquiring file lock: %w", err)
	}
	defer unlock()

	s.mem.mu.Lock()
	defer s.mem.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return s.saveLocked()
}

func (s *FileStore) loadLocked() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.mem.collections = make(map[string]map[string]record.Record)
			return nil
		}
		return fmt.Errorf("reading store file: %w", err)
	}

	var stored fileData
	if err := json.Unmarshal(data, &stored); err != nil {
		// A corrupted file is never silently replaced.
		return fmt.Errorf("%w: %w", ErrStoreCorrupted, err)
	}
	if stored.Version != FileStoreVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)",
			ErrStoreCorrupted, stored.Version, FileStoreVersion)
	}
	if stored.Collections == nil {
		stored.Collections = make(map[string]map[string]record.Record)
	}
	s.mem.collections = stored.Collections
	return nil
}

func (s *FileStore) saveLocked() error {
	data, err := json.MarshalIndent(fileData{
		Version:     FileStoreVersion,
		Collections: s.mem.collections,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o750); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing store temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.filePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming store temp file: %w", err)
	}
	return nil
}
