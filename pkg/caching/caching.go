package caching

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache is a file-based store of source text keyed by source name.
// Entries older than the TTL are ignored; a negative TTL never expires.
type Cache struct {
	path string
	ttl  time.Duration
}

// NewCache creates a Cache rooted at path, creating the directory if needed.
func NewCache(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{
		path: path,
		ttl:  ttl,
	}, nil
}

// key hashes the source name into a filename.
func (c *Cache) key(name string) string {
	hash := sha256.Sum256([]byte(name))
	return fmt.Sprintf("%x.txt", hash)
}

// Path returns the file that holds the entry for name.
func (c *Cache) Path(name string) string {
	return filepath.Join(c.path, c.key(name))
}

// Get returns the cached data for name if present and fresh.
func (c *Cache) Get(name string) ([]byte, bool) {
	filePath := c.Path(name)

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, false
	}

	if c.ttl >= 0 && time.Since(info.ModTime()) > c.ttl {
		return nil, false // expired
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, false
	}

	return data, true
}

// Set stores data for name. The entry appears atomically.
func (c *Cache) Set(name string, data []byte) error {
	tmp, err := os.CreateTemp(c.path, ".entry-*")
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.Path(name)); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}
