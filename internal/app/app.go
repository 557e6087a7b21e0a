package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/ottbox/backend/internal/catalog"
	"github.com/ottbox/backend/internal/config"
	"github.com/ottbox/backend/internal/db"
	"github.com/ottbox/backend/internal/handlers"
	"github.com/ottbox/backend/internal/httpserver"
	"github.com/ottbox/backend/internal/middleware"
	"github.com/ottbox/backend/internal/observability/metrics"
)

// Run bootstraps the ottbox media server and blocks until shutdown.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// A client tearing down a socket mid-stream must not kill the process.
	signal.Ignore(syscall.SIGPIPE)

	if info, err := os.Stat(cfg.StaticDir); err != nil || !info.IsDir() {
		return fmt.Errorf("static directory %s is not usable", cfg.StaticDir)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.ThumbDir, 0o755); err != nil {
		return fmt.Errorf("create thumbnail directory: %w", err)
	}

	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.ApplySchema(conn, cfg.SchemaPath); err != nil {
		return err
	}

	deps, syncer, sessions, users := buildDependencies(conn, cfg)

	if err := seedDefaultUsers(ctx, users, logger); err != nil {
		return err
	}
	if err := sessions.PurgeExpired(ctx); err != nil {
		logger.Warn("initial session purge failed", "error", err)
	}

	if err := syncer.Sync(ctx); err != nil {
		logger.Error("initial media sync failed", "dir", cfg.MediaDir, "error", err)
	}

	m := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders)
	router.Use(m.Middleware)
	router.Handle("/metrics", m.Handler())
	handlers.RegisterRoutes(router, deps)

	srv := httpserver.New(cfg.Port, router)
	watcher := catalog.NewWatcher(cfg.MediaDir, cfg.WatchInterval, syncer, logger)

	logger.Info("starting http server", "port", cfg.Port, "mediaDir", cfg.MediaDir)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return watcher.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
