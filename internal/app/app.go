package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fpc-portal/internal/apiclient"
	"fpc-portal/internal/config"
	"fpc-portal/internal/database"
	"fpc-portal/internal/event"
	"fpc-portal/internal/handler"
	"fpc-portal/internal/metrics"
	"fpc-portal/internal/middleware"
	"fpc-portal/internal/repository"
	"fpc-portal/internal/router"
	"fpc-portal/internal/service"
	"fpc-portal/internal/session"
	"fpc-portal/internal/view"
)

var (
	_ session.Storage    = (*repository.SessionRepository)(nil)
	_ session.Storage    = (*repository.SQLiteSessionRepository)(nil)
	_ session.Storage    = (*session.MemoryStorage)(nil)
	_ service.AuditStore = (*repository.AuditRepository)(nil)
	_ service.AuditStore = (*service.MemoryAuditStore)(nil)
)

type App struct {
	server       *http.Server
	janitor      *session.Janitor
	audit        *service.AuditService
	cleanupFuncs []func()
}

// backend is the durable state chosen by STORAGE_DRIVER.
type backend struct {
	sessions session.Storage
	audit    service.AuditStore
	checks   map[string]handler.HealthCheck
	close    func()
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverPostgres:
		slog.Info("connecting to PostgreSQL")
		db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}
		return &backend{
			sessions: repository.NewSessionRepository(db.Pool),
			audit:    repository.NewAuditRepository(db.Pool),
			checks:   map[string]handler.HealthCheck{"database": db.Health},
			close:    db.Close,
		}, nil

	case config.StorageDriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		return &backend{
			sessions: repository.NewSQLiteSessionRepository(db),
			audit:    service.NewMemoryAuditStore(0),
			checks:   map[string]handler.HealthCheck{"database": db.PingContext},
			close:    func() { closeSQL(db) },
		}, nil

	default:
		slog.Warn("sessions are kept in memory and will not survive a restart")
		return &backend{
			sessions: session.NewMemoryStorage(),
			audit:    service.NewMemoryAuditStore(0),
			checks:   map[string]handler.HealthCheck{},
			close:    func() {},
		}, nil
	}
}

func closeSQL(db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.Warn("sqlite close failed", "error", err)
	}
}

func New(cfg *config.Config) (*App, error) {
	keys, err := cfg.DeriveKeys()
	if err != nil {
		return nil, fmt.Errorf("failed to derive keys: %w", err)
	}

	renderer, err := view.New()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	store, err := openBackend(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("session storage ready", "driver", cfg.StorageDriver)

	bus := event.NewBus()
	auditService := service.NewAuditService(store.audit, bus)

	api := apiclient.New(cfg.APIBaseURL, cfg.APITimeout, apiclient.WithMetrics(m))
	manager := session.NewManager(store.sessions, api,
		session.WithEvents(bus),
		session.WithMetrics(m),
		session.WithProfilePath(cfg.ProfilePath),
		session.WithVerifyOnRestore(cfg.SessionVerifyOnRestore),
	)
	sessionMiddleware := middleware.NewSessionMiddleware(manager, keys.CookieHash, keys.CookieBlock, middleware.SessionOptions{
		CookieName: cfg.SessionCookieName,
		Secure:     cfg.SessionCookieSecure,
		IdleTTL:    cfg.SessionIdleTTL,
	})

	pages := handler.NewPages(renderer, view.NewFlasher(keys.CookieHash, cfg.SessionCookieSecure), manager)
	fpoService := service.NewFPOService(bus)
	districtService := service.NewDistrictService()

	appRouter := router.New(cfg, keys, sessionMiddleware, router.Handlers{
		Pages:        pages,
		Auth:         handler.NewAuthHandler(manager, sessionMiddleware, pages),
		Dashboard:    handler.NewDashboardHandler(service.NewDashboardService(), pages),
		FPO:          handler.NewFPOHandler(fpoService, districtService, pages),
		AgriBusiness: handler.NewAgriBusinessHandler(service.NewAgriBusinessService(bus), fpoService, pages),
		Districts:    handler.NewDistrictHandler(districtService, pages),
		API:          handler.NewAPIHandler(auditService),
		Health:       handler.NewHealthHandler(store.checks),
	}, m)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server:       server,
		janitor:      session.NewJanitor(store.sessions, cfg.SessionIdleTTL, m),
		audit:        auditService,
		cleanupFuncs: []func(){store.close},
	}, nil
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests.
func (a *App) Run(purgeSchedule string) error {
	if err := a.janitor.Start(purgeSchedule); err != nil {
		a.cleanup()
		return fmt.Errorf("failed to schedule session purge: %w", err)
	}
	a.audit.Start()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-stop:
	case err := <-serveErr:
		runErr = fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil && runErr == nil {
		runErr = fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.janitor.Stop(ctx)
	a.audit.Stop(ctx)
	a.cleanup()

	if runErr == nil {
		slog.Info("server stopped")
	}
	return runErr
}

func (a *App) cleanup() {
	for _, fn := range a.cleanupFuncs {
		fn()
	}
}

// Migrate applies the schema of the configured storage driver and exits.
func Migrate(ctx context.Context, cfg *config.Config) error {
	store, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	store.close()
	return nil
}
