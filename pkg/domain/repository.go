package domain

import (
	"context"
	"time"
)

// CacheEntry is one row of the shared persistent cache.
type CacheEntry struct {
	CacheKey     string    `json:"cache_key"`
	Payload      []byte    `json:"payload"`
	Total        int       `json:"total"`
	ProviderHint string    `json:"provider_hint"`
	QueryLabel   string    `json:"query_label"`
	ArtistID     string    `json:"artist_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the entry is no longer valid at now. An entry is
// still served at exactly ExpiresAt.
func (e *CacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// CacheStore is the shared persistent tier. Get returns ErrCacheMiss for
// absent or expired keys; Upsert replaces the row for the entry's key.
type CacheStore interface {
	Get(ctx context.Context, key string, now time.Time) (*CacheEntry, error)
	Upsert(ctx context.Context, entry *CacheEntry) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	Close() error
}
