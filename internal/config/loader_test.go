package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"EXAMS_ENV_FILE",
	"EXAMS_HTTP_PORT",
	"EXAMS_DATABASE_DRIVER",
	"EXAMS_DATABASE_DSN",
	"EXAMS_DATABASE_MAX_OPEN_CONNS",
	"EXAMS_BUSY_TIMEOUT",
	"EXAMS_TX_MAX_RETRIES",
	"EXAMS_TX_RETRY_DELAY",
	"EXAMS_AUTO_MIGRATE",
	"EXAMS_LOG_LEVEL",
	"EXAMS_LOG_FORMAT",
	"EXAMS_SHUTDOWN_TIMEOUT",
}

// clearEnv blanks every setting for the duration of the test; empty values
// count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.DatabaseDriver != DriverSQLite {
			t.Fatalf("expected sqlite driver, got %q", cfg.DatabaseDriver)
		}
		if cfg.DatabaseDSN != "file:exams.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.DatabaseDSN)
		}
		if cfg.BusyTimeout != 5*time.Second {
			t.Fatalf("expected busy timeout 5s, got %s", cfg.BusyTimeout)
		}
		if cfg.TxMaxRetries != 5 || cfg.TxRetryDelay != 20*time.Millisecond {
			t.Fatalf("unexpected retry settings: %d %s", cfg.TxMaxRetries, cfg.TxRetryDelay)
		}
		if !cfg.AutoMigrate {
			t.Fatalf("expected migrations to run by default")
		}
		if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
			t.Fatalf("unexpected log settings: %q %q", cfg.LogLevel, cfg.LogFormat)
		}
	})

	t.Run("errors when postgres has no DSN", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("EXAMS_DATABASE_DRIVER", "postgres")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "config: required settings are missing: EXAMS_DATABASE_DSN"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("collects every invalid value", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("EXAMS_HTTP_PORT", "zero")
		t.Setenv("EXAMS_BUSY_TIMEOUT", "-1s")
		t.Setenv("EXAMS_DATABASE_DRIVER", "oracle")
		t.Setenv("EXAMS_LOG_FORMAT", "xml")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		for _, key := range []string{"EXAMS_HTTP_PORT", "EXAMS_BUSY_TIMEOUT", "EXAMS_DATABASE_DRIVER", "EXAMS_LOG_FORMAT"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in error, got %q", key, err.Error())
			}
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("EXAMS_HTTP_PORT", "9090")
		t.Setenv("EXAMS_DATABASE_DRIVER", "postgres")
		t.Setenv("EXAMS_DATABASE_DSN", "postgres://exams@localhost/exams")
		t.Setenv("EXAMS_DATABASE_MAX_OPEN_CONNS", "8")
		t.Setenv("EXAMS_TX_MAX_RETRIES", "0")
		t.Setenv("EXAMS_TX_RETRY_DELAY", "50ms")
		t.Setenv("EXAMS_AUTO_MIGRATE", "false")
		t.Setenv("EXAMS_LOG_LEVEL", "DEBUG")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.DatabaseDriver != DriverPostgres || cfg.DatabaseDSN != "postgres://exams@localhost/exams" {
			t.Fatalf("unexpected database settings: %q %q", cfg.DatabaseDriver, cfg.DatabaseDSN)
		}
		if cfg.MaxOpenConns != 8 {
			t.Fatalf("expected 8 open connections, got %d", cfg.MaxOpenConns)
		}
		if cfg.TxMaxRetries != 0 || cfg.TxRetryDelay != 50*time.Millisecond {
			t.Fatalf("unexpected retry settings: %d %s", cfg.TxMaxRetries, cfg.TxRetryDelay)
		}
		if cfg.AutoMigrate {
			t.Fatalf("expected auto migrate to be disabled")
		}
		if cfg.LogLevel != "debug" {
			t.Fatalf("expected debug level, got %q", cfg.LogLevel)
		}
	})

	t.Run("reads the env file without overriding the environment", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "exams.env")
		content := "EXAMS_HTTP_PORT=7070\nEXAMS_DATABASE_DRIVER=memory\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv("EXAMS_ENV_FILE", path)
		t.Setenv("EXAMS_DATABASE_DRIVER", "sqlite")
		// godotenv only fills variables that are absent, not merely empty.
		if err := os.Unsetenv("EXAMS_HTTP_PORT"); err != nil {
			t.Fatalf("failed to unset EXAMS_HTTP_PORT: %v", err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 7070 {
			t.Fatalf("expected port from env file, got %d", cfg.HTTPPort)
		}
		if cfg.DatabaseDriver != DriverSQLite {
			t.Fatalf("expected environment to win over env file, got %q", cfg.DatabaseDriver)
		}
	})

	t.Run("missing explicit env file is an error", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("EXAMS_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

		if _, err := Load(); err == nil {
			t.Fatalf("expected error for a missing env file")
		}
	})
}
