package migration

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestScanner_ScanMigrations(t *testing.T) {
	t.Parallel()

	t.Run("orders files by numeric version", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"sql/010_add_index.sql":      {Data: []byte("CREATE INDEX idx ON t (a);")},
			"sql/002_second.sql":         {Data: []byte("-- Description: Second step\nCREATE TABLE b (id TEXT);")},
			"sql/001_initial_schema.sql": {Data: []byte("CREATE TABLE a (id TEXT);")},
			"sql/README.md":              {Data: []byte("ignored")},
		}

		migrations, err := NewScanner(fsys, "sql").ScanMigrations()
		if err != nil {
			t.Fatalf("ScanMigrations returned error: %v", err)
		}
		if len(migrations) != 3 {
			t.Fatalf("expected 3 migrations, got %d", len(migrations))
		}
		if migrations[0].Version != "001" || migrations[1].Version != "002" || migrations[2].Version != "010" {
			t.Fatalf("unexpected order: %s %s %s", migrations[0].Version, migrations[1].Version, migrations[2].Version)
		}
		if migrations[1].Description != "Second step" {
			t.Fatalf("expected description from header, got %q", migrations[1].Description)
		}
		if migrations[0].Description != "initial schema" {
			t.Fatalf("expected description from filename, got %q", migrations[0].Description)
		}
		if migrations[0].Checksum == "" {
			t.Fatalf("expected checksum to be computed")
		}
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"001_a.sql": {Data: []byte("SELECT 1;")},
			"001_b.sql": {Data: []byte("SELECT 2;")},
		}
		_, err := NewScanner(fsys, ".").ScanMigrations()
		if err == nil {
			t.Fatalf("expected duplicate version error")
		}
	})

	t.Run("rejects malformed names", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{"initial.sql": {Data: []byte("SELECT 1;")}}
		_, err := NewScanner(fsys, ".").ScanMigrations()
		if !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})

	t.Run("rejects comment-only files", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{"001_empty.sql": {Data: []byte("-- nothing here\n")}}
		_, err := NewScanner(fsys, ".").ScanMigrations()
		if !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})

	t.Run("rejects unbalanced parentheses", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{"001_broken.sql": {Data: []byte("CREATE TABLE a (id TEXT;")}}
		_, err := NewScanner(fsys, ".").ScanMigrations()
		if !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	sql := "-- header\nCREATE TABLE a (id TEXT);\n\n-- comment only;\nCREATE INDEX i ON a (id);\n"
	got := splitStatements(sql)
	if len(got) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (id TEXT)" {
		t.Fatalf("unexpected first statement %q", got[0])
	}
}
