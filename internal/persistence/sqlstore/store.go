// Package sqlstore implements persistence.Store on SQL databases through sqlx.
// SQLite (modernc.org/sqlite) and PostgreSQL (pgx) share the same queries; the
// dialect decides placeholders, row locking, isolation and error mapping.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/exam-scheduler/internal/persistence"
	"github.com/example/exam-scheduler/internal/persistence/migration"
)

//go:embed migrations
var migrationFiles embed.FS

// Config describes how to reach the database.
type Config struct {
	Driver          Driver
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BusyTimeout     time.Duration
	Retry           RetryConfig
	Logger          *slog.Logger
}

// Store is a persistence.Store backed by a SQL database.
type Store struct {
	db      *sqlx.DB
	dialect dialect
	retry   *retryHelper
	logger  *slog.Logger
}

var _ persistence.Store = (*Store)(nil)

// Open connects to the configured database. Migrations are not applied; call Migrate.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("sqlstore: DSN is required")
	}
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sqlstore", "driver", string(d.driver))

	db, err := sqlx.Open(d.driverName, d.dsn(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore: open database")
	}

	if d.driver == DriverSQLite && isSQLiteMemory(cfg.DSN) {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "sqlstore: ping database")
	}

	return &Store{
		db:      db,
		dialect: d,
		retry:   newRetryHelper(cfg.Retry, logger),
		logger:  logger,
	}, nil
}

// Migrate applies the embedded schema migrations for the store's dialect.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	manager, err := s.migrations()
	if err != nil {
		return 0, err
	}
	return manager.RunMigrations(ctx)
}

// MigrationStatus reports the applied and pending schema migrations.
func (s *Store) MigrationStatus(ctx context.Context) (migration.Status, error) {
	manager, err := s.migrations()
	if err != nil {
		return migration.Status{}, err
	}
	return manager.Status(ctx)
}

func (s *Store) migrations() (*migration.Manager, error) {
	sub, err := fs.Sub(migrationFiles, "migrations/"+string(s.dialect.driver))
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore: locate migrations")
	}
	return migration.NewManager(migration.NewScanner(sub, "."), migration.NewSQLExecutor(s.db), s.logger), nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Driver reports the backend in use.
func (s *Store) Driver() Driver {
	return s.dialect.driver
}

// Atomic runs fn in a write transaction, retrying the whole unit when the
// backend reports a lost concurrency race.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx persistence.Tx) error) error {
	return s.retry.do(ctx, func() error {
		return s.inTx(ctx, s.dialect.writeTx, true, fn)
	})
}

// ReadOnly runs fn in a read-only transaction so all reads see one snapshot.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context, tx persistence.Tx) error) error {
	return s.retry.do(ctx, func() error {
		return s.inTx(ctx, s.dialect.readTx, false, fn)
	})
}

func (s *Store) inTx(ctx context.Context, opts *sql.TxOptions, writable bool, fn func(ctx context.Context, tx persistence.Tx) error) (err error) {
	sqlTx, err := s.db.BeginTxx(ctx, opts)
	if err != nil {
		return s.dialect.mapError(err, "begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, &txRepos{tx: sqlTx, dialect: s.dialect, writable: writable}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.WarnContext(ctx, "rollback failed", "error", rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return s.dialect.mapError(err, "commit transaction")
	}
	return nil
}

// txRepos implements every repository on one transaction.
type txRepos struct {
	tx       *sqlx.Tx
	dialect  dialect
	writable bool
}

func (t *txRepos) Users() persistence.UserRepository             { return t }
func (t *txRepos) Rooms() persistence.RoomRepository             { return t }
func (t *txRepos) Disciplines() persistence.DisciplineRepository { return t }
func (t *txRepos) Periods() persistence.PeriodRepository         { return t }
func (t *txRepos) Exams() persistence.ExamRepository             { return t }

func (t *txRepos) checkWritable() error {
	if !t.writable {
		return persistence.ErrReadOnly
	}
	return nil
}

func (t *txRepos) exec(ctx context.Context, op, query string, args ...any) (sql.Result, error) {
	if err := t.checkWritable(); err != nil {
		return nil, err
	}
	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(query), args...)
	if err != nil {
		return nil, t.dialect.mapError(err, op)
	}
	return res, nil
}

// execOne runs a statement that must touch exactly one row.
func (t *txRepos) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := t.exec(ctx, op, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return t.dialect.mapError(err, op)
	}
	if n == 0 {
		return errors.WithMessage(persistence.ErrNotFound, "sqlstore: "+op)
	}
	return nil
}

func (t *txRepos) get(ctx context.Context, op string, dest any, query string, args ...any) error {
	if err := t.tx.GetContext(ctx, dest, t.tx.Rebind(query), args...); err != nil {
		return t.dialect.mapError(err, op)
	}
	return nil
}

func (t *txRepos) selectAll(ctx context.Context, op string, dest any, query string, args ...any) error {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return errors.Wrapf(err, "sqlstore: %s: expand arguments", op)
	}
	if err := t.tx.SelectContext(ctx, dest, t.tx.Rebind(query), args...); err != nil {
		return t.dialect.mapError(err, op)
	}
	return nil
}

func (t *txRepos) lockSuffix() string {
	if t.writable {
		return t.dialect.forUpdate
	}
	return ""
}
