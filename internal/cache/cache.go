// Package cache implements the content-addressed ciphertext store.
// Entries are immutable: the URI of a blob is derived from the SHA256 of
// its bytes, so identical content always maps to the identical address.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"
)

// Scheme prefixes every URI issued by this store.
const Scheme = "local://"

// DefaultDir is the conventional cache location.
const DefaultDir = ".fhe_cache"

// MissError reports a URI whose content is absent from the store. During a
// state transition it indicates a missing or corrupted prior state.
type MissError struct {
	URI string
}

func (e *MissError) Error() string {
	return fmt.Sprintf("cache miss for URI: %s", e.URI)
}

// Cache is a directory of content-addressed blobs, one <hex>.bin file per
// entry. Safe for concurrent use.
type Cache struct {
	dir    string
	logger *log.Logger
	loads  singleflight.Group
}

// New creates a cache rooted at dir. The directory is created lazily here;
// failure is logged, not fatal — a later Store surfaces the real I/O error.
func New(dir string, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Printf("WARN cache: create directory %s: %v", dir, err)
	}
	return &Cache{dir: dir, logger: logger}
}

// Store writes data under its content address and returns the URI.
// Idempotent: storing identical bytes twice returns the same URI and
// leaves storage unchanged.
func (c *Cache) Store(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	hexDigest := hex.EncodeToString(sum[:])
	path := c.pathFor(hexDigest)

	if _, err := os.Stat(path); err == nil {
		return Scheme + hexDigest, nil
	}

	// Write to a temp file in the same directory, then rename, so a
	// crashed write never leaves a half-populated address behind.
	tmp, err := os.CreateTemp(c.dir, ".fhestate-tmp-*")
	if err != nil {
		return "", fmt.Errorf("cache: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return "", fmt.Errorf("cache: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("cache: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("cache: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("cache: rename into place: %w", err)
	}

	return Scheme + hexDigest, nil
}

// Load returns the content addressed by uri, or MissError if absent.
// Concurrent loads of the same URI are collapsed into one disk read.
func (c *Cache) Load(uri string) ([]byte, error) {
	v, err, _ := c.loads.Do(uri, func() (any, error) {
		path := c.pathFor(strings.TrimPrefix(uri, Scheme))
		if _, err := os.Stat(path); err != nil {
			return nil, &MissError{URI: uri}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cache: read %s: %w", uri, err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Exists reports whether uri is present.
func (c *Cache) Exists(uri string) bool {
	_, err := os.Stat(c.pathFor(strings.TrimPrefix(uri, Scheme)))
	return err == nil
}

// Delete removes one entry.
func (c *Cache) Delete(uri string) error {
	path := c.pathFor(strings.TrimPrefix(uri, Scheme))
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("cache: delete %s: %w", uri, err)
	}
	return nil
}

// Clear removes every entry and recreates the directory.
func (c *Cache) Clear() error {
	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("cache: clear: %w", err)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("cache: recreate directory: %w", err)
	}
	return nil
}

// SizeBytes returns the total size of all entries.
func (c *Cache) SizeBytes() (int64, error) {
	var total int64
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("cache: read directory: %w", err)
	}
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".bin") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}

// List returns every stored URI.
func (c *Cache) List() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("cache: read directory: %w", err)
	}
	uris := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".bin") {
			continue
		}
		uris = append(uris, Scheme+strings.TrimSuffix(name, ".bin"))
	}
	return uris, nil
}

// Dir returns the backing directory.
func (c *Cache) Dir() string { return c.dir }

func (c *Cache) pathFor(hexDigest string) string {
	return filepath.Join(c.dir, hexDigest+".bin")
}
