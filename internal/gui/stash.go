package gui

import "fmt"

// StashCache keeps the personal-inventory contents of viewers whose personal
// region is currently occupied by a layout. It can be shared by many Guis;
// each Gui holding a viewer in BOTTOM state owns one reference to that
// viewer's entry, and the snapshot is handed back when the last reference
// is released.
type StashCache struct {
	entries map[ViewerID]*stashEntry
}

type stashEntry struct {
	contents []*Stack
	refs     int
}

// NewStashCache creates an empty cache.
func NewStashCache() *StashCache {
	return &StashCache{entries: make(map[ViewerID]*stashEntry)}
}

// Save stores a snapshot for id with one reference. It refuses to
// overwrite a pending entry.
func (c *StashCache) Save(id ViewerID, contents []*Stack) error {
	if _, exists := c.entries[id]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyStashed, id)
	}
	snapshot := make([]*Stack, len(contents))
	for i, s := range contents {
		snapshot[i] = s.Clone()
	}
	c.entries[id] = &stashEntry{contents: snapshot, refs: 1}
	return nil
}

// Retain adds a reference to an existing entry. It reports false when id
// has nothing stashed.
func (c *StashCache) Retain(id ViewerID) bool {
	e, exists := c.entries[id]
	if !exists {
		return false
	}
	e.refs++
	return true
}

// Release drops one reference. When the last reference goes the entry is
// removed and its contents returned with restore == true.
func (c *StashCache) Release(id ViewerID) (contents []*Stack, restore bool) {
	e, exists := c.entries[id]
	if !exists {
		return nil, false
	}
	e.refs--
	if e.refs > 0 {
		return nil, false
	}
	delete(c.entries, id)
	return e.contents, true
}

// Has reports whether id has a pending entry.
func (c *StashCache) Has(id ViewerID) bool {
	_, exists := c.entries[id]
	return exists
}

// Refs returns the number of holders of id's entry.
func (c *StashCache) Refs(id ViewerID) int {
	if e, exists := c.entries[id]; exists {
		return e.refs
	}
	return 0
}

// Len returns the number of stashed viewers.
func (c *StashCache) Len() int { return len(c.entries) }

// Drain removes every entry and returns the snapshots, for hosts that must
// hand inventories back before shutting down.
func (c *StashCache) Drain() map[ViewerID][]*Stack {
	out := make(map[ViewerID][]*Stack, len(c.entries))
	for id, e := range c.entries {
		out[id] = e.contents
	}
	c.entries = make(map[ViewerID]*stashEntry)
	return out
}
