package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskCache persists tokenization entries across runs, so re-analyzing a
// case with unchanged documents skips pattern extraction entirely. One
// entry is one file; the window key is the file name.
type DiskCache struct {
	dir string
	ttl time.Duration
}

// NewDiskCache creates a disk cache rooted at dir. ttl is the default
// entry lifetime when Set is called with zero.
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{dir: dir, ttl: ttl}
}

type diskEntry struct {
	Payload []byte    `json:"payload"`
	Expires time.Time `json:"expires"`
}

// Get returns the entry for key. Expired entries are removed on read.
func (c *DiskCache) Get(key string) ([]byte, bool) {
	path := c.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// unreadable entry: treat as absent and reclaim the file
		_ = os.Remove(path)
		return nil, false
	}
	if time.Now().After(entry.Expires) {
		_ = os.Remove(path)
		return nil, false
	}
	return entry.Payload, true
}

// Set stores value under key. A zero ttl means the cache default.
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	data, err := json.Marshal(diskEntry{Payload: value, Expires: time.Now().Add(ttl)})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := os.WriteFile(c.path(key), data, 0644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Delete removes key.
func (c *DiskCache) Delete(key string) error {
	return os.Remove(c.path(key))
}

// Clear removes the whole cache directory.
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

func (c *DiskCache) path(key string) string {
	// keys carry a versioned prefix with colons; keep file names plain
	name := strings.ReplaceAll(key, ":", "-")
	return filepath.Join(c.dir, name+".cache")
}
