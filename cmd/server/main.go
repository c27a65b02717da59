// Command server runs the multi-company accounting API
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/accounting/internal/app"
	ledgerapp "github.com/erp/accounting/internal/application/ledger"
	"github.com/erp/accounting/internal/application/report"
	"github.com/erp/accounting/internal/infrastructure/cache"
	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/erp/accounting/internal/infrastructure/event"
	"github.com/erp/accounting/internal/infrastructure/logger"
	"github.com/erp/accounting/internal/infrastructure/persistence"
	"github.com/erp/accounting/internal/infrastructure/printing"
	"github.com/erp/accounting/internal/infrastructure/scheduler"
	"github.com/erp/accounting/internal/infrastructure/storage"
	"github.com/erp/accounting/internal/infrastructure/telemetry"
	"github.com/erp/accounting/internal/interfaces/http/handler"
	"github.com/erp/accounting/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting accounting API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", telemetry.ServiceVersion))

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, log.Named("telemetry"))
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer shutdown(log, "telemetry", providers.Shutdown)
	metrics := telemetry.NewMetrics()

	gormLog := logger.NewGormLogger(log.Named("gorm"), logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.NewDBInstrumentation(cfg.Telemetry, "postgresql", metrics, log.Named("db")).Register(db.DB); err != nil {
		return fmt.Errorf("database instrumentation: %w", err)
	}
	log.Info("Database connected")

	backends, err := cache.NewBackendFactory(cfg.Redis,
		cache.WithLogger(log.Named("cache")),
		cache.WithLockRetries(cfg.Intercompany.LockRetries),
	).Create()
	if err != nil {
		return fmt.Errorf("cache backends: %w", err)
	}
	defer func() {
		if err := backends.Close(); err != nil {
			log.Warn("Error closing cache backends", zap.Error(err))
		}
	}()

	bus := event.NewBus(log.Named("events"), event.WithObserver(metrics))
	if err := bus.Start(ctx); err != nil {
		return fmt.Errorf("event bus: %w", err)
	}
	defer shutdown(log, "event bus", bus.Stop)

	seeder, err := ledgerapp.LoadChartSeeder(cfg.Ledger.ChartTemplate)
	if err != nil {
		return fmt.Errorf("chart template: %w", err)
	}

	deps := app.Deps{
		DB:               db.DB,
		Backends:         backends,
		Publisher:        bus,
		Seeder:           seeder,
		JWT:              cfg.JWT,
		Intercompany:     cfg.Intercompany,
		Report:           cfg.Report,
		URLExpiry:        cfg.Storage.URLExpiry,
		SnapshotRecorder: metrics,
		Logger:           log,
	}
	if err := attachPrinting(ctx, cfg, log, &deps); err != nil {
		return err
	}
	if closer, ok := deps.Printer.(interface{ Close() error }); ok {
		defer func() { _ = closer.Close() }()
	}

	services := app.NewServices(deps)
	bus.Subscribe(metrics)
	if services.ReportCache != nil {
		bus.Subscribe(report.NewCacheInvalidator(services.ReportCache, log.Named("report_cache")))
	}

	checks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}
	if backends.Client != nil {
		checks["redis"] = func(ctx context.Context) error { return backends.Client.Ping(ctx).Err() }
	}
	handlers := services.Handlers(telemetry.ServiceVersion, checks)

	opts := router.EngineOptions{HTTP: cfg.HTTP, Logger: log, Metrics: metrics}
	if providers.Enabled() {
		opts.TracingService = cfg.Telemetry.ServiceName
	}
	engine, err := router.NewEngine(opts)
	if err != nil {
		return err
	}
	router.RegisterSystemRoutes(engine, handlers.Health, metrics.Handler())
	router.NewRouter(engine).Register(router.API(handlers, services.Auth)).Setup()

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(cfg.Scheduler, log.Named("scheduler"))
		if err != nil {
			return err
		}
		err = sched.Register("balance-snapshot", cfg.Scheduler.SnapshotSchedule, func(ctx context.Context) error {
			snapshots, err := services.Snapshots.RunAll(ctx)
			for _, s := range snapshots {
				if !s.Healthy() {
					log.Warn("Books out of balance", zap.String("tenant_id", s.TenantID.String()))
				}
			}
			return err
		})
		if err != nil {
			return err
		}
		sched.Start(ctx)
		defer shutdown(log, "scheduler", sched.Stop)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("Server exited gracefully")
	return nil
}

// attachPrinting wires the PDF printer and the object store when both are enabled.
// Leaving either unset keeps the document endpoints answering PRINTING_DISABLED.
func attachPrinting(ctx context.Context, cfg *config.Config, log *zap.Logger, deps *app.Deps) error {
	if !cfg.Printing.Enabled || !cfg.Storage.Enabled {
		return nil
	}
	store, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log.Named("storage")))
	if err != nil {
		return fmt.Errorf("object storage: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("object storage bucket: %w", err)
	}
	printer, err := printing.NewChromeInvoicePrinter(cfg.Printing, log.Named("printing"))
	if err != nil {
		return fmt.Errorf("invoice printer: %w", err)
	}
	deps.Printer, deps.Store = printer, store
	return nil
}

func shutdown(log *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Warn("Shutdown failed", zap.String("component", name), zap.Error(err))
	}
}
