package collectors

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewSQLiteDB(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		tempFile, err := os.CreateTemp("", "test-*.db")
		if err != nil {
			t.Fatalf("failed to create temp file: %v", err)
		}
		tempFile.Close()
		defer os.Remove(tempFile.Name())

		db, err := NewSQLiteDB(tempFile.Name())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			t.Errorf("expected successful ping, got %v", err)
		}

		var name string
		err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'event_cache'`).Scan(&name)
		if err != nil {
			t.Errorf("expected event_cache table after migrations, got %v", err)
		}
	})

	t.Run("migrations are idempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.db")

		db, err := NewSQLiteDB(path)
		if err != nil {
			t.Fatalf("first open: %v", err)
		}
		db.Close()

		db, err = NewSQLiteDB(path)
		if err != nil {
			t.Fatalf("second open: %v", err)
		}
		db.Close()
	})

	t.Run("invalid path", func(t *testing.T) {
		_, err := NewSQLiteDB("/invalid/path/to/database.db")
		if err == nil {
			t.Error("expected error for invalid path")
		}
	})
}
