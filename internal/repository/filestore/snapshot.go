package filestore

import (
	"fmt"
	"os"
	"path/filepath"

	"ciit-backend/internal/repository"
)

// Snapshots is the local durability tier for in-progress sessions: one JSON
// file per key under a cache directory. It stands in for the browser's
// localStorage in the original tool.
type Snapshots struct {
	dir string
}

var _ repository.SnapshotCache = (*Snapshots)(nil)

// NewSnapshots creates the cache, ensuring the directory exists.
func NewSnapshots(dir string) (*Snapshots, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Snapshots{dir: dir}, nil
}

// Load returns the cached bytes for a key, or (nil, nil) when absent.
func (c *Snapshots) Load(key string) ([]byte, error) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot '%s': %w", key, err)
	}
	return data, nil
}

// Store overwrites the cached bytes for a key atomically.
func (c *Snapshots) Store(key string, data []byte) error {
	if err := writeFileAtomic(c.path(key), data); err != nil {
		return fmt.Errorf("failed to write snapshot '%s': %w", key, err)
	}
	return nil
}

// Remove deletes the cached entry. Removing an absent key is not an error.
func (c *Snapshots) Remove(key string) error {
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove snapshot '%s': %w", key, err)
	}
	return nil
}

func (c *Snapshots) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}
