package collectors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yair/gigscout/pkg/domain"
)

// CacheRepository is the SQLite implementation of domain.CacheStore.
type CacheRepository struct {
	db *sql.DB
}

var _ domain.CacheStore = (*CacheRepository)(nil)

func NewCacheRepository(db *sql.DB) (*CacheRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &CacheRepository{db: db}, nil
}

func (r *CacheRepository) Get(ctx context.Context, key string, now time.Time) (*domain.CacheEntry, error) {
	query := `
	SELECT cache_key, payload, total, provider_hint, query_label, artist_id, created_at, expires_at
	FROM event_cache
	WHERE cache_key = ?
	`

	var entry domain.CacheEntry
	var payload string
	var artistID sql.NullString

	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&entry.CacheKey,
		&payload,
		&entry.Total,
		&entry.ProviderHint,
		&entry.QueryLabel,
		&artistID,
		&entry.CreatedAt,
		&entry.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	if entry.Expired(now) {
		return nil, domain.ErrCacheMiss
	}

	entry.Payload = []byte(payload)
	entry.ArtistID = artistID.String
	return &entry, nil
}

// Upsert writes entry, replacing any row with the same key.
func (r *CacheRepository) Upsert(ctx context.Context, entry *domain.CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	query := `
	INSERT INTO event_cache (cache_key, payload, total, provider_hint, query_label, artist_id, created_at, expires_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(cache_key) DO UPDATE SET
		payload = excluded.payload,
		total = excluded.total,
		provider_hint = excluded.provider_hint,
		query_label = excluded.query_label,
		artist_id = excluded.artist_id,
		created_at = excluded.created_at,
		expires_at = excluded.expires_at
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.CacheKey,
		string(entry.Payload),
		entry.Total,
		entry.ProviderHint,
		entry.QueryLabel,
		nullString(entry.ArtistID),
		entry.CreatedAt.UTC(),
		entry.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}
	return nil
}

// PurgeExpired deletes rows whose expiry is before now.
func (r *CacheRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM event_cache WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (r *CacheRepository) Close() error {
	return r.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
