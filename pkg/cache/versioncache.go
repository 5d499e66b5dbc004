package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// versionCacheSchema is bumped whenever the on-disk entry shape
// changes; a mismatch invalidates the entry instead of failing to
// unmarshal it.
const versionCacheSchema = 1

// Mode controls how VersionCache.Get consults the cache versus the
// network.
type Mode int

const (
	// ModeNormal serves a fresh (within TTL) entry from cache, and
	// fetches otherwise.
	ModeNormal Mode = iota
	// ModeRefresh ignores any cached entry and always fetches, but
	// still writes the result back to cache.
	ModeRefresh
	// ModeOffline serves whatever is cached regardless of TTL, and
	// fails instead of fetching if nothing is cached.
	ModeOffline
	// ModeNoCache bypasses the cache entirely: always fetches, never
	// reads or writes an entry.
	ModeNoCache
)

// entry is the on-disk representation of one runtime's cached version
// list.
type entry struct {
	Schema    int       `json:"schema"`
	Runtime   string    `json:"runtime"`
	Versions  []string  `json:"versions"`
	FetchedAt time.Time `json:"fetched_at"`
}

// VersionCache is a per-runtime, file-based TTL cache of discovered
// version lists, keyed by runtime name under Dir.
type VersionCache struct {
	Dir string
	TTL time.Duration
}

// NewVersionCache returns a VersionCache rooted at dir with entries
// considered fresh for ttl.
func NewVersionCache(dir string, ttl time.Duration) *VersionCache {
	return &VersionCache{Dir: dir, TTL: ttl}
}

func (c *VersionCache) path(runtimeName string) string {
	return filepath.Join(c.Dir, runtimeName+".json")
}

// Get returns versions for runtimeName according to mode, calling
// fetch to populate the cache on a miss (or on ModeRefresh/ModeNoCache
// which always call fetch).
func (c *VersionCache) Get(runtimeName string, mode Mode, fetch func() ([]string, error)) ([]string, error) {
	if mode == ModeNoCache {
		return fetch()
	}

	cached, fresh, err := c.read(runtimeName)
	if err != nil {
		logrus.Debugf("version cache: ignoring unreadable entry for %s: %v", runtimeName, err)
	}

	switch mode {
	case ModeOffline:
		if cached == nil {
			return nil, fmt.Errorf("no cached versions for %q and offline mode is set", runtimeName)
		}
		return cached, nil
	case ModeNormal:
		if cached != nil && fresh {
			return cached, nil
		}
	case ModeRefresh:
		// always fetch
	}

	versions, err := fetch()
	if err != nil {
		if cached != nil {
			logrus.Warnf("version cache: fetch failed for %s, serving stale cache: %v", runtimeName, err)
			return cached, nil
		}
		return nil, err
	}

	if err := c.write(runtimeName, versions); err != nil {
		logrus.Warnf("version cache: failed to persist entry for %s: %v", runtimeName, err)
	}
	return versions, nil
}

func (c *VersionCache) read(runtimeName string) (versions []string, fresh bool, err error) {
	data, err := os.ReadFile(c.path(runtimeName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, err
	}
	if e.Schema != versionCacheSchema {
		return nil, false, nil
	}

	return e.Versions, time.Since(e.FetchedAt) < c.TTL, nil
}

func (c *VersionCache) write(runtimeName string, versions []string) error {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("create version cache dir: %w", err)
	}

	e := entry{
		Schema:    versionCacheSchema,
		Runtime:   runtimeName,
		Versions:  versions,
		FetchedAt: timeNow(),
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal version cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.Dir, "."+runtimeName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write version cache entry: %w", err)
	}
	tmp.Close()

	return os.Rename(tmpPath, c.path(runtimeName))
}

// Prune deletes cache entries older than maxAge, returning the number
// removed. Unreadable or corrupt entries (fetched_at unknown) are
// treated as expired and removed.
func (c *VersionCache) Prune(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read version cache dir: %w", err)
	}

	removed := 0
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		path := filepath.Join(c.Dir, de.Name())
		data, err := os.ReadFile(path)
		stale := err != nil
		if err == nil {
			var e entry
			if err := json.Unmarshal(data, &e); err != nil || e.Schema != versionCacheSchema {
				stale = true
			} else {
				stale = time.Since(e.FetchedAt) > maxAge
			}
		}
		if stale {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// timeNow is indirected so tests can pin the clock if needed later;
// today it's just time.Now.
var timeNow = time.Now
