package expr

import (
	"hash/fnv"
	"sync"
	"time"
)

// ParseCache keeps parsed expressions so a loop body that evaluates the
// same substituted text again skips the parser.
type ParseCache struct {
	cache map[uint64]*cachedNode
	mutex sync.Mutex

	maxSize int
	maxAge  time.Duration

	hits      int64
	misses    int64
	evictions int64

	lastCleanup     time.Time
	cleanupInterval time.Duration
}

type cachedNode struct {
	source    string
	node      Node
	createdAt time.Time
	lastUsed  time.Time
	hitCount  int64
}

// CacheStats represents cache performance metrics.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	HitRatio  float64
	Size      int
	MaxSize   int
}

// NewParseCache creates a cache holding at most maxSize entries, each
// valid for maxAge. A zero maxAge keeps entries until evicted.
func NewParseCache(maxSize int, maxAge time.Duration) *ParseCache {
	return &ParseCache{
		cache:           make(map[uint64]*cachedNode),
		maxSize:         maxSize,
		maxAge:          maxAge,
		cleanupInterval: maxAge / 4,
		lastCleanup:     time.Now(),
	}
}

func hashExpression(expr string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(expr))
	return h.Sum64()
}

func (c *ParseCache) expired(entry *cachedNode, now time.Time) bool {
	return c.maxAge > 0 && now.Sub(entry.createdAt) > c.maxAge
}

// Get returns the parsed form of expr if it is cached.
func (c *ParseCache) Get(expr string) (Node, bool) {
	hash := hashExpression(expr)
	now := time.Now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.cache[hash]
	if !exists || entry.source != expr || c.expired(entry, now) {
		c.misses++
		return nil, false
	}

	c.hits++
	entry.hitCount++
	entry.lastUsed = now
	return entry.node, true
}

// Put stores the parsed form of expr.
func (c *ParseCache) Put(expr string, node Node) {
	if node == nil || c.maxSize <= 0 {
		return
	}

	hash := hashExpression(expr)
	now := time.Now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.cache[hash]; !exists && len(c.cache) >= c.maxSize {
		c.evictLeastRecentlyUsed()
	}

	c.cache[hash] = &cachedNode{
		source:    expr,
		node:      node,
		createdAt: now,
		lastUsed:  now,
	}

	if c.cleanupInterval > 0 && now.Sub(c.lastCleanup) > c.cleanupInterval {
		c.removeExpired(now)
		c.lastCleanup = now
	}
}

// evictLeastRecentlyUsed drops the entry used longest ago. Caller holds the mutex.
func (c *ParseCache) evictLeastRecentlyUsed() {
	var (
		oldestHash uint64
		oldestTime time.Time
		found      bool
	)

	for hash, entry := range c.cache {
		if !found || entry.lastUsed.Before(oldestTime) {
			oldestHash = hash
			oldestTime = entry.lastUsed
			found = true
		}
	}

	if found {
		delete(c.cache, oldestHash)
		c.evictions++
	}
}

// removeExpired drops entries older than maxAge. Caller holds the mutex.
func (c *ParseCache) removeExpired(now time.Time) {
	for hash, entry := range c.cache {
		if c.expired(entry, now) {
			delete(c.cache, hash)
			c.evictions++
		}
	}
}

// Stats returns cache performance statistics.
func (c *ParseCache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var hitRatio float64
	if c.hits+c.misses > 0 {
		hitRatio = float64(c.hits) / float64(c.hits+c.misses)
	}

	return CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRatio:  hitRatio,
		Size:      len(c.cache),
		MaxSize:   c.maxSize,
	}
}

// Clear removes all entries and resets the counters.
func (c *ParseCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[uint64]*cachedNode)
	c.hits = 0
	c.misses = 0
	c.evictions = 0
}

// SetMaxSize changes the capacity, evicting entries if needed.
func (c *ParseCache) SetMaxSize(maxSize int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.maxSize = maxSize
	for len(c.cache) > maxSize && len(c.cache) > 0 {
		c.evictLeastRecentlyUsed()
	}
}
