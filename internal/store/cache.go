package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RenderCache is a content-addressable cache of rendered pages.
//
// Objects live in a two-level layout keyed by SHA-256 of the inputs that
// produced them, so an unchanged (body, options) pair skips re-rendering:
//
//	.contentpress/
//	  objects/
//	    ab/
//	      cd1234... (first 2 chars = subdir, rest = filename)
type RenderCache struct {
	basePath string
	mu       sync.RWMutex
}

// NewRenderCache creates the cache directory structure if needed.
func NewRenderCache(basePath string) (*RenderCache, error) {
	if err := os.MkdirAll(filepath.Join(basePath, "objects"), 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &RenderCache{basePath: basePath}, nil
}

// Key computes the cache key for a set of input strings. Order matters.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0}) // Separator so ("ab","c") != ("a","bc")
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached object for a key, with ok false on a miss.
func (c *RenderCache) Get(key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.objectPath(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache object: %w", err)
	}
	return data, true, nil
}

// Put stores an object under a key. Existing objects are left untouched;
// content-addressed data never changes for a given key.
func (c *RenderCache) Put(key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.objectPath(key)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create object directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write cache object: %w", err)
	}
	return nil
}

func (c *RenderCache) objectPath(key string) string {
	if len(key) < 3 {
		return filepath.Join(c.basePath, "objects", "xx", key)
	}
	return filepath.Join(c.basePath, "objects", key[:2], key[2:])
}
