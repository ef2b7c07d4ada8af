package integrations

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// LocalCache is the process-scoped cache tier. Records expire after ttl, or
// at an explicit deadline, and are dropped lazily on read.
type LocalCache struct {
	records map[string]localRecord
	mutex   sync.RWMutex
	ttl     time.Duration
	clock   clockwork.Clock
}

type localRecord struct {
	Data      any
	Timestamp time.Time
	ExpiresAt time.Time
}

func NewLocalCache(ttl time.Duration, clock clockwork.Clock) *LocalCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LocalCache{
		records: make(map[string]localRecord),
		ttl:     ttl,
		clock:   clock,
	}
}

func (c *LocalCache) Get(key string) (any, bool) {
	c.mutex.RLock()
	record, exists := c.records[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}
	if c.clock.Now().After(record.ExpiresAt) {
		c.mutex.Lock()
		if current, ok := c.records[key]; ok && current.Timestamp.Equal(record.Timestamp) {
			delete(c.records, key)
		}
		c.mutex.Unlock()
		return nil, false
	}

	return record.Data, true
}

func (c *LocalCache) Set(key string, data any) {
	c.SetUntil(key, data, c.clock.Now().Add(c.ttl))
}

// SetUntil stores data that must not outlive expiresAt, such as a record
// copied from the persistent tier. The deadline never exceeds the local ttl.
func (c *LocalCache) SetUntil(key string, data any, expiresAt time.Time) {
	now := c.clock.Now()
	if limit := now.Add(c.ttl); expiresAt.After(limit) {
		expiresAt = limit
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.records[key] = localRecord{
		Data:      data,
		Timestamp: now,
		ExpiresAt: expiresAt,
	}
}

// Clear drops every record and returns how many were held.
func (c *LocalCache) Clear() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	n := len(c.records)
	c.records = make(map[string]localRecord)
	return n
}

func (c *LocalCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.records)
}
