package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/exam-scheduler/internal/bootstrap"
	"github.com/example/exam-scheduler/internal/config"
	httptransport "github.com/example/exam-scheduler/internal/http"
	"github.com/example/exam-scheduler/internal/logging"
	"github.com/example/exam-scheduler/internal/persistence"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "examscheduler: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(out, logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}

	store, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err, "driver", cfg.DatabaseDriver)
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	handler, err := newHandler(store, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("exam scheduler API listening", "addr", server.Addr, "driver", cfg.DatabaseDriver)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server encountered error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("failed to shutdown server", "error", err)
		return err
	}
	logger.Info("exam scheduler API stopped")
	return nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// newHandler wires the services over store into the HTTP API.
func newHandler(store persistence.Store, logger *slog.Logger) (http.Handler, error) {
	services, err := bootstrap.NewServices(store, nil, nil, logger)
	if err != nil {
		return nil, err
	}

	var health func(ctx context.Context) error
	if p, ok := store.(pinger); ok {
		health = p.Ping
	}

	return httptransport.NewRouter(httptransport.RouterConfig{
		Exams:        httptransport.NewExamHandler(services.Exams, logger),
		Rooms:        httptransport.NewRoomHandler(services.Rooms, logger),
		Periods:      httptransport.NewPeriodHandler(services.Periods, logger),
		Users:        httptransport.NewUserHandler(services.Users, logger),
		Disciplines:  httptransport.NewDisciplineHandler(services.Disciplines, logger),
		Authenticate: httptransport.RequireActor(services.Users, logger),
		Health:       health,
		Middleware:   []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	}), nil
}
