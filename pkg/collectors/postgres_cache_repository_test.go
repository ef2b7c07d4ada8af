package collectors

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yair/gigscout/pkg/domain"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *int:
			*p = r.values[i].(int)
		case *time.Time:
			*p = r.values[i].(time.Time)
		}
	}
	return nil
}

type fakePG struct {
	execs   []string
	execErr error
	tag     string
	row     fakeRow
	args    []any
}

func (f *fakePG) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	f.args = args
	return pgconn.NewCommandTag(f.tag), f.execErr
}

func (f *fakePG) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	f.args = args
	return f.row
}

func TestPostgresCacheRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("creates table on construction", func(t *testing.T) {
		fake := &fakePG{}
		if _, err := newPostgresCacheRepository(ctx, fake, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(fake.execs) != 1 || !strings.Contains(fake.execs[0], "CREATE TABLE IF NOT EXISTS event_cache") {
			t.Errorf("expected table creation, got %v", fake.execs)
		}
	})

	t.Run("construction fails when ddl fails", func(t *testing.T) {
		fake := &fakePG{execErr: errors.New("permission denied")}
		if _, err := newPostgresCacheRepository(ctx, fake, nil); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("get maps no rows to miss", func(t *testing.T) {
		fake := &fakePG{row: fakeRow{err: pgx.ErrNoRows}}
		repo, _ := newPostgresCacheRepository(ctx, fake, nil)

		_, err := repo.Get(ctx, "k", now)
		if !errors.Is(err, domain.ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss, got %v", err)
		}
	})

	t.Run("get returns fresh entry and rejects expired", func(t *testing.T) {
		fake := &fakePG{row: fakeRow{values: []any{
			"k", `{"events":[]}`, 4, "combined", "Metallica", "X1", now, now.Add(24 * time.Hour),
		}}}
		repo, _ := newPostgresCacheRepository(ctx, fake, nil)

		entry, err := repo.Get(ctx, "k", now.Add(time.Hour))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if entry.Total != 4 || entry.ArtistID != "X1" {
			t.Errorf("unexpected entry %+v", entry)
		}

		if _, err := repo.Get(ctx, "k", now.Add(24*time.Hour+time.Second)); !errors.Is(err, domain.ErrCacheMiss) {
			t.Errorf("expected expired entry to miss, got %v", err)
		}
	})

	t.Run("upsert passes payload as text", func(t *testing.T) {
		fake := &fakePG{}
		repo, _ := newPostgresCacheRepository(ctx, fake, nil)

		entry := testEntry("k", now)
		if err := repo.Upsert(ctx, entry); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(fake.execs[1], "ON CONFLICT (cache_key) DO UPDATE") {
			t.Errorf("expected upsert statement, got %s", fake.execs[1])
		}
		if fake.args[1] != string(entry.Payload) {
			t.Errorf("expected payload arg, got %v", fake.args[1])
		}
	})

	t.Run("purge reports affected rows", func(t *testing.T) {
		fake := &fakePG{tag: "DELETE 7"}
		repo, _ := newPostgresCacheRepository(ctx, fake, nil)

		n, err := repo.PurgeExpired(ctx, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 7 {
			t.Errorf("expected 7, got %d", n)
		}
	})

	t.Run("close invokes pool close", func(t *testing.T) {
		closed := false
		repo, _ := newPostgresCacheRepository(ctx, &fakePG{}, func() { closed = true })
		repo.Close()
		if !closed {
			t.Error("expected close func to run")
		}
	})
}
