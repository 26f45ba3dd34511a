package application

import (
	"sync"
	"time"
)

// auditCache keeps recent audit results per range until they expire or an
// assignment write invalidates them. Every Invalidate starts a new
// generation; results computed under an older generation are not stored.
type auditCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	generation uint64
	entries    map[string]auditCacheEntry
}

type auditCacheEntry struct {
	findings  []AuditFinding
	expiresAt time.Time
}

func newAuditCache(ttl time.Duration, maxEntries int, now func() time.Time) *auditCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 64
	}
	if now == nil {
		now = time.Now
	}
	return &auditCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]auditCacheEntry),
	}
}

func (c *auditCache) Get(key string) ([]AuditFinding, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return cloneFindings(entry.findings), true
}

// Generation identifies the current invalidation epoch. Read it before
// fetching the data a result is computed from.
func (c *auditCache) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Store keeps findings computed during generation. It drops them when an
// invalidation happened since.
func (c *auditCache) Store(key string, generation uint64, findings []AuditFinding) {
	if c == nil {
		return
	}
	cloned := cloneFindings(findings)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return
	}
	c.cleanupLocked()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = auditCacheEntry{findings: cloned, expiresAt: expiry}
}

func (c *auditCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.generation++
	c.entries = make(map[string]auditCacheEntry)
	c.mu.Unlock()
}

func (c *auditCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *auditCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *auditCache) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}

func cloneFindings(findings []AuditFinding) []AuditFinding {
	if len(findings) == 0 {
		return nil
	}
	out := make([]AuditFinding, len(findings))
	copy(out, findings)
	return out
}

func auditCacheKey(rangeStart, rangeEnd time.Time) string {
	return rangeStart.UTC().Format(time.RFC3339Nano) + "|" + rangeEnd.UTC().Format(time.RFC3339Nano)
}
