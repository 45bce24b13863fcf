// Package cache memoizes results of pure user functions.
package cache

import (
	"time"

	"datacode/internal/limits"
	"datacode/internal/value"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

type Key struct {
	Name string
	Hash value.HashKey
}

func NewKey(name string, args []value.Value) Key {
	return Key{Name: name, Hash: value.Hash(args)}
}

type Entry struct {
	Value       value.Value
	Created     time.Time
	LastAccess  time.Time
	AccessCount int
}

type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// Cache keeps entries in insertion order; at capacity the oldest insert goes first.
type Cache struct {
	maxSize    int
	ttl        time.Duration
	now        func() time.Time
	entries    *linkedhashmap.Map
	inProgress map[Key]int
	stats      Stats
}

type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New builds a cache; ttl 0 disables expiry.
func New(maxSize int, ttl time.Duration, opts ...Option) *Cache {
	if maxSize <= 0 {
		maxSize = limits.DefaultCacheSize
	}
	c := &Cache{
		maxSize:    maxSize,
		ttl:        ttl,
		now:        time.Now,
		entries:    linkedhashmap.New(),
		inProgress: map[Key]int{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// MarkInProgress is reference counted: nested calls with the same key stay
// in progress until the outermost one completes.
func (c *Cache) MarkInProgress(k Key) {
	c.inProgress[k]++
}

func (c *Cache) MarkCompleted(k Key) {
	n := c.inProgress[k]
	if n <= 1 {
		delete(c.inProgress, k)
		return
	}
	c.inProgress[k] = n - 1
}

func (c *Cache) InProgress(k Key) bool {
	return c.inProgress[k] > 0
}

func (c *Cache) Get(k Key) (value.Value, bool) {
	if c.InProgress(k) {
		c.stats.Misses++
		return nil, false
	}
	raw, ok := c.entries.Get(k)
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	e := raw.(*Entry)
	now := c.now()
	if c.ttl > 0 && now.Sub(e.Created) > c.ttl {
		c.entries.Remove(k)
		c.stats.Evictions++
		c.stats.Misses++
		return nil, false
	}
	e.LastAccess = now
	e.AccessCount++
	c.stats.Hits++
	return e.Value, true
}

func (c *Cache) Put(k Key, v value.Value) {
	if _, exists := c.entries.Get(k); exists {
		c.entries.Remove(k)
	} else if c.entries.Size() >= c.maxSize {
		c.evictOldest()
	}
	now := c.now()
	c.entries.Put(k, &Entry{Value: v, Created: now, LastAccess: now})
}

func (c *Cache) evictOldest() {
	it := c.entries.Iterator()
	if it.First() {
		c.entries.Remove(it.Key())
		c.stats.Evictions++
	}
}

// InvalidateFunction drops every entry of name.
func (c *Cache) InvalidateFunction(name string) int {
	var stale []interface{}
	it := c.entries.Iterator()
	for it.Next() {
		if it.Key().(Key).Name == name {
			stale = append(stale, it.Key())
		}
	}
	for _, k := range stale {
		c.entries.Remove(k)
	}
	return len(stale)
}

func (c *Cache) Clear() {
	c.entries.Clear()
	c.inProgress = map[Key]int{}
}

func (c *Cache) Len() int { return c.entries.Size() }

func (c *Cache) Stats() Stats {
	s := c.stats
	s.Size = c.entries.Size()
	return s
}

// Entry returns a copy of the stored entry without touching statistics.
func (c *Cache) Entry(k Key) (Entry, bool) {
	raw, ok := c.entries.Get(k)
	if !ok {
		return Entry{}, false
	}
	return *raw.(*Entry), true
}
