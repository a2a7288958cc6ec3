package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/example/exam-scheduler/internal/persistence"
)

// Driver selects the SQL backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// dialect captures everything that differs between the supported backends.
type dialect struct {
	driver     Driver
	driverName string
	// forUpdate is appended to row reads inside write transactions.
	forUpdate string
	writeTx   *sql.TxOptions
	readTx    *sql.TxOptions
	classify  func(error) error
}

func dialectFor(driver Driver) (dialect, error) {
	switch driver {
	case DriverSQLite, "":
		// Write transactions begin IMMEDIATE through the DSN, which serializes
		// writers at BEGIN; row locks are unnecessary.
		return dialect{
			driver:     DriverSQLite,
			driverName: "sqlite",
			writeTx:    &sql.TxOptions{},
			readTx:     &sql.TxOptions{ReadOnly: true},
			classify:   classifySQLiteError,
		}, nil
	case DriverPostgres:
		return dialect{
			driver:     DriverPostgres,
			driverName: "pgx",
			forUpdate:  " FOR UPDATE",
			writeTx:    &sql.TxOptions{Isolation: sql.LevelSerializable},
			readTx:     &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true},
			classify:   classifyPostgresError,
		}, nil
	default:
		return dialect{}, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}

// dsn decorates the configured DSN with the connection settings each backend needs.
func (d dialect) dsn(cfg Config) string {
	if d.driver != DriverSQLite {
		return cfg.DSN
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	params := []string{
		"_pragma=foreign_keys(1)",
		fmt.Sprintf("_pragma=busy_timeout(%d)", busy.Milliseconds()),
		"_txlock=immediate",
	}
	if !isSQLiteMemory(cfg.DSN) {
		params = append(params, "_pragma=journal_mode(WAL)")
	}

	sep := "?"
	if strings.Contains(cfg.DSN, "?") {
		sep = "&"
	}
	return cfg.DSN + sep + strings.Join(params, "&")
}

func isSQLiteMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func classifySQLiteError(err error) error {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return nil
	}

	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return persistence.ErrDuplicate
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return persistence.ErrForeignKeyViolation
	case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return persistence.ErrConstraintViolation
	}

	switch sqliteErr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return persistence.ErrTxConflict
	case sqlite3.SQLITE_CONSTRAINT:
		return persistence.ErrConstraintViolation
	}
	return nil
}

func classifyPostgresError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}

	switch pgErr.Code {
	case "23505":
		return persistence.ErrDuplicate
	case "23503":
		return persistence.ErrForeignKeyViolation
	case "23514", "23502":
		return persistence.ErrConstraintViolation
	case "40001", "40P01":
		return persistence.ErrTxConflict
	}
	return nil
}

// timeArg renders a timestamp the way the backend stores it. SQLite keeps
// fixed-width UTC text so lexical order matches time order.
func (d dialect) timeArg(t time.Time) any {
	if d.driver == DriverSQLite {
		return t.UTC().Format(timestampLayout)
	}
	return t.UTC()
}

// mapError converts a driver error into a persistence sentinel while keeping
// the driver message and a stack trace.
func (d dialect) mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errors.WithMessage(persistence.ErrNotFound, "sqlstore: "+op)
	}
	if sentinel := d.classify(err); sentinel != nil {
		return errors.WithStack(errors.WithMessagef(sentinel, "sqlstore: %s: %v", op, err))
	}
	return errors.Wrapf(err, "sqlstore: %s", op)
}
