package resource

import (
	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"
)

// SlotCache remembers where a record identity was last seen in a store file.
// Entries are hints only: callers must read the slot back under the file
// lock and re-check it before trusting the position.
type SlotCache struct {
	cache *ristretto.Cache[uint64, int64]
}

// NewSlotCache returns a cache holding about capacity positions.
// A zero capacity disables caching; every method is then a no-op, as it is
// on a nil or closed cache.
func NewSlotCache(capacity int64) (*SlotCache, error) {
	if capacity <= 0 {
		return &SlotCache{}, nil
	}

	c, err := ristretto.NewCache(&ristretto.Config[uint64, int64]{
		NumCounters:        capacity * 10,
		MaxCost:            capacity,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &SlotCache{cache: c}, nil
}

/* Get */
func (c *SlotCache) Get(digest []byte) (int64, bool) {
	if c == nil || c.cache == nil {
		return 0, false
	}
	return c.cache.Get(xxhash.Sum64(digest))
}

// Put records off for digest. The write is flushed before returning so the
// next lookup observes it.
func (c *SlotCache) Put(digest []byte, off int64) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Set(xxhash.Sum64(digest), off, 1)
	c.cache.Wait()
}

func (c *SlotCache) Forget(digest []byte) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Del(xxhash.Sum64(digest))
}

// Clear drops every hint, used when the underlying file changes.
func (c *SlotCache) Clear() {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Clear()
}

func (c *SlotCache) Close() {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Close()
	c.cache = nil
}
