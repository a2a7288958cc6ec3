// Command examctl inspects and maintains an exam scheduler database from the
// shell. It reads the same EXAMS_* settings as the API server and acts with
// administrator rights.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/exam-scheduler/internal/bootstrap"
	"github.com/example/exam-scheduler/internal/config"
	"github.com/example/exam-scheduler/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "examctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Schema changes only happen through the migrate command.
	cfg.AutoMigrate = false

	logger, err := logging.New(stderr, logging.Options{Level: cfg.LogLevel, Format: "text"})
	if err != nil {
		return err
	}

	store, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	services, err := bootstrap.NewServices(store, nil, nil, logger)
	if err != nil {
		return err
	}

	return newCLI(store, services, stdout).dispatch(ctx, args)
}
