package collectors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yair/gigscout/pkg/domain"
)

// pgQuerier is the subset of *pgxpool.Pool the repository uses.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresCacheRepository is the PostgreSQL implementation of domain.CacheStore,
// for deployments where several processes share one cache.
type PostgresCacheRepository struct {
	db    pgQuerier
	close func()
}

var _ domain.CacheStore = (*PostgresCacheRepository)(nil)

// ConnectPostgres creates a pool for dsn and verifies it with a ping.
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	poolCfg.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

func NewPostgresCacheRepository(ctx context.Context, pool *pgxpool.Pool) (*PostgresCacheRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool is required")
	}
	return newPostgresCacheRepository(ctx, pool, pool.Close)
}

func newPostgresCacheRepository(ctx context.Context, db pgQuerier, closeFn func()) (*PostgresCacheRepository, error) {
	repo := &PostgresCacheRepository{db: db, close: closeFn}
	if err := repo.createTables(ctx); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return repo, nil
}

func (r *PostgresCacheRepository) createTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS event_cache (
		cache_key     TEXT PRIMARY KEY,
		payload       JSONB NOT NULL,
		total         INTEGER NOT NULL DEFAULT 0,
		provider_hint TEXT NOT NULL DEFAULT '',
		query_label   TEXT NOT NULL DEFAULT '',
		artist_id     TEXT,
		created_at    TIMESTAMPTZ NOT NULL,
		expires_at    TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_event_cache_expires_at ON event_cache(expires_at);
	`

	_, err := r.db.Exec(ctx, query)
	return err
}

func (r *PostgresCacheRepository) Get(ctx context.Context, key string, now time.Time) (*domain.CacheEntry, error) {
	query := `
	SELECT cache_key, payload::text, total, provider_hint, query_label, COALESCE(artist_id, ''), created_at, expires_at
	FROM event_cache
	WHERE cache_key = $1
	`

	var entry domain.CacheEntry
	var payload string

	err := r.db.QueryRow(ctx, query, key).Scan(
		&entry.CacheKey,
		&payload,
		&entry.Total,
		&entry.ProviderHint,
		&entry.QueryLabel,
		&entry.ArtistID,
		&entry.CreatedAt,
		&entry.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	if entry.Expired(now) {
		return nil, domain.ErrCacheMiss
	}

	entry.Payload = []byte(payload)
	return &entry, nil
}

func (r *PostgresCacheRepository) Upsert(ctx context.Context, entry *domain.CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	query := `
	INSERT INTO event_cache (cache_key, payload, total, provider_hint, query_label, artist_id, created_at, expires_at)
	VALUES ($1, $2::jsonb, $3, $4, $5, NULLIF($6, ''), $7, $8)
	ON CONFLICT (cache_key) DO UPDATE SET
		payload = EXCLUDED.payload,
		total = EXCLUDED.total,
		provider_hint = EXCLUDED.provider_hint,
		query_label = EXCLUDED.query_label,
		artist_id = EXCLUDED.artist_id,
		created_at = EXCLUDED.created_at,
		expires_at = EXCLUDED.expires_at
	`

	_, err := r.db.Exec(ctx, query,
		entry.CacheKey,
		string(entry.Payload),
		entry.Total,
		entry.ProviderHint,
		entry.QueryLabel,
		entry.ArtistID,
		entry.CreatedAt,
		entry.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}
	return nil
}

func (r *PostgresCacheRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM event_cache WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresCacheRepository) Close() error {
	if r.close != nil {
		r.close()
	}
	return nil
}
