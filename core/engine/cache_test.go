package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateCache_StoreLookupForget(t *testing.T) {
	c := newStateCache()
	key := unitKey{FilamentID: 1, Variant: "v", Suffix: "ini"}

	_, ok := c.lookup(key)
	assert.False(t, ok)

	c.store(key, "/out/a.ini", "hash1")
	entry, ok := c.lookup(key)
	assert.True(t, ok)
	assert.Equal(t, "/out/a.ini", entry.Path)
	assert.Equal(t, "hash1", entry.Hash)
	assert.Contains(t, c.managedPaths(), "/out/a.ini")

	c.forgetPath("/out/a.ini")
	_, ok = c.lookup(key)
	assert.False(t, ok)
	assert.NotContains(t, c.managedPaths(), "/out/a.ini")
}

func TestStateCache_ForgetOldPathKeepsNewEntry(t *testing.T) {
	c := newStateCache()
	key := unitKey{FilamentID: 1, Suffix: "ini"}

	c.store(key, "/out/old.ini", "hash1")
	c.store(key, "/out/new.ini", "hash2")

	// Forgetting the superseded path must not drop the current entry.
	c.forgetPath("/out/old.ini")
	entry, ok := c.lookup(key)
	assert.True(t, ok)
	assert.Equal(t, "/out/new.ini", entry.Path)
}

func TestContentHash_Deterministic(t *testing.T) {
	assert.Equal(t, contentHash("temp=200\n"), contentHash("temp=200\n"))
	assert.NotEqual(t, contentHash("temp=200\n"), contentHash("temp=201\n"))
}
