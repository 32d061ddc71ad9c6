package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/timekeep/internal/cli"
	"github.com/alexanderramin/timekeep/internal/config"
	"github.com/alexanderramin/timekeep/internal/db"
	"github.com/alexanderramin/timekeep/internal/registry"
	"github.com/alexanderramin/timekeep/internal/repository"
	"github.com/alexanderramin/timekeep/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	loc, err := cfg.Loc()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open database
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	timeLogRepo := repository.NewSQLiteTimeLogRepo(database)
	sessionRepo := repository.NewSQLiteActiveSessionRepo(database)
	taskRepo := repository.NewSQLiteTaskRepo(database)

	// Wire unit of work for the stop transaction
	uow := db.NewSQLiteUnitOfWork(database)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	var observer service.UseCaseObserver = service.NoopUseCaseObserver{}
	if cfg.LogCalls {
		observer = service.NewSlogUseCaseObserver(logger)
	}

	store := service.StorePolicy{
		Timeout:        cfg.StoreTimeout(),
		Retries:        cfg.WriteRetries,
		RetryBaseDelay: cfg.RetryBaseDelay(),
	}
	report := service.ReportConfig{
		Location:                loc,
		ReferenceSecondsPerTask: cfg.ReferenceSecondsPerTask,
		Store:                   store,
	}

	// Wire services
	reg := registry.New()
	timerSvc := service.NewTimerService(reg, sessionRepo, uow, service.TimerConfig{Store: store}, observer)
	taskSvc := service.NewTaskService(taskRepo, nil, store)
	aggregateSvc := service.NewAggregateService(timeLogRepo, taskSvc, report, observer)
	exportSvc := service.NewExportService(timeLogRepo, taskSvc, aggregateSvc, service.ExportConfig{
		Report:        report,
		FlushRows:     cfg.ExportFlushRows,
		StreamTimeout: cfg.ExportTimeout(),
	}, observer)

	// Open timers live in the durable store between invocations.
	if _, err := timerSvc.Restore(ctx); err != nil {
		return fmt.Errorf("restoring open timers: %w", err)
	}
	// Finish stops whose log an earlier run could not store.
	if _, err := timerSvc.FlushPending(ctx); err != nil {
		logger.Warn("pending time logs not stored yet", "error", err)
	}

	app := &cli.App{
		Timer:     timerSvc,
		Activity:  service.NewActivityService(reg, timerSvc, taskSvc, nil, store),
		Aggregate: aggregateSvc,
		Export:    exportSvc,
		Tasks:     taskSvc,
		UserID:    cfg.UserID,
		Server: cli.ServerConfig{
			ListenAddr:    cfg.ListenAddr,
			FlushInterval: cfg.FlushInterval(),
		},
		Logger: logger,
	}

	// Detect interactive terminal for forms and the live activity table.
	app.IsInteractive = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	// Execute root command
	rootCmd := cli.NewRootCmd(app)
	return rootCmd.ExecuteContext(ctx)
}
