package testfixtures

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/exam-scheduler/internal/persistence/sqlstore"
)

// NewSQLiteStore opens a migrated SQLite store in a temporary file. The store
// is closed automatically when the test finishes.
func NewSQLiteStore(tb testing.TB) *sqlstore.Store {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "exams.db")
	store, err := sqlstore.Open(context.Background(), sqlstore.Config{
		Driver:       sqlstore.DriverSQLite,
		DSN:          "file:" + path,
		MaxOpenConns: 4,
		BusyTimeout:  5 * time.Second,
		Logger:       DiscardLogger(),
	})
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() {
		_ = store.Close()
	})

	if _, err := store.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	return store
}

// NewSQLiteWorld seeds a World on a fresh SQLite store.
func NewSQLiteWorld(tb testing.TB, opts ...ServiceFactoryOption) *World {
	tb.Helper()
	return NewWorld(tb, NewSQLiteStore(tb), opts...)
}
