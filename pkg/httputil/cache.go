package httputil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ErrExpired is returned by [Cache.Get] when a cached entry exists but has
// exceeded its time-to-live (TTL).
//
// The entry is still on disk; callers should fetch fresh data and overwrite
// it with [Cache.Set].
var ErrExpired = errors.New("cache entry expired")

// Cache provides file-based caching of JSON-marshalable values.
//
// Each entry is a JSON file named by the SHA-256 of its key, so URLs make
// safe keys. Cache instances (even in different processes) may share a
// directory; writes go through a temp file and a rename.
//
// A TTL of 0 means entries never expire. [Cache.Namespace] returns a view
// that prefixes keys:
//
//	sizes := cache.Namespace("size:")
//	sizes.Set("https://example.com/a.png", Size{Width: 640, Height: 480})
type Cache struct {
	dir    string
	ttl    time.Duration
	prefix string
}

// DefaultDir returns the media subdirectory of the per-user cache
// directory, e.g. ~/.cache/tilegrid/media on Linux.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "tilegrid", "media"), nil
}

// NewCache creates a Cache that stores entries in dir with the given TTL.
// An empty dir uses [DefaultDir]. The directory is created if missing.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// TTL returns the time-to-live for entries.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get unmarshals the value stored under key into v.
//
//   - (true, nil): hit
//   - (false, nil): miss, v is unchanged
//   - (false, ErrExpired): the entry is older than the TTL
//   - (false, err): I/O or decode failure
func (c *Cache) Get(key string, v any) (bool, error) {
	path := c.keyPath(c.prefix + key)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return false, ErrExpired
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores v under key, resetting its TTL.
func (c *Cache) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	path := c.keyPath(c.prefix + key)
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Namespace returns a view of the cache that prefixes every key. Calls
// chain: c.Namespace("a:").Namespace("b:") uses "a:b:".
func (c *Cache) Namespace(prefix string) *Cache {
	return &Cache{
		dir:    c.dir,
		ttl:    c.ttl,
		prefix: c.prefix + prefix,
	}
}

func (c *Cache) keyPath(key string) string {
	h := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(h[:]))
}
