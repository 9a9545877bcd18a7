package engine

import (
	"crypto/sha256"
	"encoding/hex"
)

// unitKey identifies one output unit: a (filament, spool, variant, suffix)
// combination. SpoolID is zero except in per-spool "all" mode.
type unitKey struct {
	FilamentID int
	SpoolID    int
	Variant    string
	Suffix     string
}

// cacheEntry remembers where a unit's file was written and the hash of
// its content, permitting unchanged renders to skip disk I/O entirely.
type cacheEntry struct {
	Path string
	Hash string
}

// stateCache is the engine's in-memory view of what it has written. It
// doubles as the tool-managed path manifest: a path is recognized as
// managed iff this engine produced it in this or a prior cycle of the
// same process. The cache is owned by exactly one Engine instance, so
// independent engines run with isolated state.
type stateCache struct {
	entries map[unitKey]cacheEntry
	managed map[string]unitKey
}

func newStateCache() *stateCache {
	return &stateCache{
		entries: make(map[unitKey]cacheEntry),
		managed: make(map[string]unitKey),
	}
}

func (c *stateCache) lookup(key unitKey) (cacheEntry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

func (c *stateCache) store(key unitKey, path, hash string) {
	c.entries[key] = cacheEntry{Path: path, Hash: hash}
	c.managed[path] = key
}

func (c *stateCache) forgetPath(path string) {
	if key, ok := c.managed[path]; ok {
		if e, ok := c.entries[key]; ok && e.Path == path {
			delete(c.entries, key)
		}
		delete(c.managed, path)
	}
}

// managedPaths returns a copy of the manifest.
func (c *stateCache) managedPaths() map[string]unitKey {
	out := make(map[string]unitKey, len(c.managed))
	for p, k := range c.managed {
		out[p] = k
	}
	return out
}

// contentHash returns the hex SHA-256 of rendered content. Hashing keeps
// cache entries small and makes the unchanged check constant-time per
// file.
func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
