package osv

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/khanhnv2901/assess/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/assess/internal/shared/errors"
)

// Cache stores raw OSV responses on disk, one file per queried package.
// Entries expire by file modification time. Writers race benignly: the last
// rename wins and readers never observe a partial file.
type Cache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewCache returns a cache rooted at dir. A non-positive ttl falls back to
// the default of 24 hours.
func NewCache(dir string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = constants.OSVCacheTTL
	}
	return &Cache{dir: dir, ttl: ttl, now: time.Now}
}

// Key hashes the query identity into the cache file stem.
func Key(ecosystem, name, version string) string {
	sum := sha256.Sum256([]byte(ecosystem + ":" + name + ":" + version))
	return hex.EncodeToString(sum[:])
}

// Path returns the file that backs key.
func (c *Cache) Path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get returns the cached vulnerabilities for key. Missing, stale and
// undecodable entries all report ErrCacheMiss.
func (c *Cache) Get(key string) ([]Vulnerability, error) {
	path := c.Path(key)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrCacheMiss, err)
	}
	if c.now().Sub(info.ModTime()) >= c.ttl {
		return nil, fmt.Errorf("%w: entry older than %s", sharedErrors.ErrCacheMiss, c.ttl)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrCacheMiss, err)
	}
	var vulns []Vulnerability
	if err := json.Unmarshal(data, &vulns); err != nil {
		return nil, fmt.Errorf("%w: corrupt entry: %v", sharedErrors.ErrCacheMiss, err)
	}
	return vulns, nil
}

// Put stores raw, the JSON array of vulnerabilities, under key.
func (c *Cache) Put(key string, raw []byte) error {
	if err := os.MkdirAll(c.dir, constants.DefaultDirPerm); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Chmod(tmpName, constants.DefaultFilePerm); err != nil {
		return fmt.Errorf("chmod cache entry: %w", err)
	}
	return os.Rename(tmpName, c.Path(key))
}
