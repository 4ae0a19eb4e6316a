package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/fentz26/aitracker/internal/models"
)

// FileCache keeps the last known snapshot on the local filesystem, one file
// per user key.
type FileCache struct {
	fs   afero.Fs
	path string
}

// NewFileCache creates a cache at <dir>/progress_<key>.json on fs.
func NewFileCache(fs afero.Fs, dir, key string) *FileCache {
	if key == "" {
		key = "default"
	}
	return &FileCache{
		fs:   fs,
		path: filepath.Join(dir, "progress_"+key+".json"),
	}
}

// Path returns the cache file location.
func (c *FileCache) Path() string {
	return c.path
}

// Load reads the cached snapshot.
func (c *FileCache) Load(_ context.Context) (*models.Snapshot, error) {
	data, err := afero.ReadFile(c.fs, c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("read cache: %w", err)
	}
	snap, err := models.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("corrupt cache %s: %w", c.path, err)
	}
	return snap, nil
}

// Save writes the snapshot through a temp file so readers never see a
// partial document.
func (c *FileCache) Save(_ context.Context, snap *models.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := afero.WriteFile(c.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := c.fs.Rename(tmp, c.path); err != nil {
		_ = c.fs.Remove(tmp)
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}
