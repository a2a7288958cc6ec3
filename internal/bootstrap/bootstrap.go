package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/exam-scheduler/internal/application"
	"github.com/example/exam-scheduler/internal/config"
	"github.com/example/exam-scheduler/internal/persistence"
	"github.com/example/exam-scheduler/internal/persistence/memory"
	"github.com/example/exam-scheduler/internal/persistence/sqlstore"
)

// OpenStore connects the backend selected by cfg. SQL backends are migrated
// when cfg.AutoMigrate is set.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.DatabaseDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage; data is lost on exit")
		return memory.Open(), nil
	case config.DriverSQLite, config.DriverPostgres, "":
	default:
		return nil, fmt.Errorf("bootstrap: unsupported database driver %q", cfg.DatabaseDriver)
	}

	retry := sqlstore.DefaultRetryConfig()
	retry.MaxRetries = cfg.TxMaxRetries
	if cfg.TxRetryDelay > 0 {
		retry.InitialDelay = cfg.TxRetryDelay
	}

	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:       sqlstore.Driver(cfg.DatabaseDriver),
		DSN:          cfg.DatabaseDSN,
		MaxOpenConns: cfg.MaxOpenConns,
		BusyTimeout:  cfg.BusyTimeout,
		Retry:        retry,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if _, err := Migrate(ctx, store); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return store, nil
}

type migrator interface {
	Migrate(ctx context.Context) (int, error)
}

// Migrate applies pending schema migrations when the store keeps a schema and
// reports how many were applied.
func Migrate(ctx context.Context, store persistence.Store) (int, error) {
	m, ok := store.(migrator)
	if !ok {
		return 0, nil
	}
	applied, err := m.Migrate(ctx)
	if err != nil {
		return applied, fmt.Errorf("bootstrap: apply migrations: %w", err)
	}
	return applied, nil
}

// Services bundles the application services sharing one store.
type Services struct {
	Exams       *application.ExamService
	Periods     *application.PeriodService
	Rooms       *application.RoomService
	Disciplines *application.DisciplineService
	Users       *application.UserService
}

// NewServices constructs every application service over store. Nil generators
// fall back to the services' defaults.
func NewServices(store persistence.Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) (*Services, error) {
	if store == nil {
		return nil, fmt.Errorf("bootstrap: store is required")
	}
	adapted := NewStoreAdapter(store)

	exams, err := application.NewExamServiceWithLogger(adapted, idGenerator, now, logger)
	if err != nil {
		return nil, err
	}
	periods, err := application.NewPeriodServiceWithLogger(adapted, idGenerator, now, logger)
	if err != nil {
		return nil, err
	}
	rooms, err := application.NewRoomServiceWithLogger(adapted, idGenerator, now, logger)
	if err != nil {
		return nil, err
	}
	disciplines, err := application.NewDisciplineServiceWithLogger(adapted, idGenerator, now, logger)
	if err != nil {
		return nil, err
	}
	users, err := application.NewUserServiceWithLogger(adapted, idGenerator, now, logger)
	if err != nil {
		return nil, err
	}

	return &Services{
		Exams:       exams,
		Periods:     periods,
		Rooms:       rooms,
		Disciplines: disciplines,
		Users:       users,
	}, nil
}
