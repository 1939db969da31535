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
	"strings"
	"syscall"
	"time"

	"github.com/isimg/moyenne/internal/api"
	"github.com/isimg/moyenne/internal/catalog"
	"github.com/isimg/moyenne/internal/platform/cache"
	"github.com/isimg/moyenne/internal/platform/config"
	"github.com/isimg/moyenne/internal/platform/database"
	"github.com/isimg/moyenne/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg.Log, os.Stdout))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	var checks []api.Check

	var db *database.DB
	if cfg.UsesPostgres() {
		var err error
		db, err = database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()
		checks = append(checks, api.Check{Name: "database", Fn: db.HealthCheck})
	}

	cat, err := loadCatalog(ctx, cfg.Catalog, db)
	if err != nil {
		return err
	}

	store := session.Store(session.NewMemoryStore())
	if cfg.UsesRedis() {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return fmt.Errorf("connecting to cache: %w", err)
		}
		defer c.Close()
		store = session.NewRedisStore(c.Client, cfg.Session.TTL)
		checks = append(checks, api.Check{Name: "cache", Fn: c.HealthCheck})
	}

	svc := session.NewService(session.ServiceConfig{Catalog: cat, Store: store})
	srv := newHTTPServer(cfg.Server, api.New(svc, checks...).Handler())

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting",
			"addr", srv.Addr,
			"catalog", cfg.Catalog.Source,
			"sessions", cfg.Session.Store,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// loadCatalog reads the program catalog from the configured source. db is
// only used for the postgres source.
func loadCatalog(ctx context.Context, cfg config.CatalogConfig, db *database.DB) (*catalog.Catalog, error) {
	switch cfg.Source {
	case config.CatalogDir:
		return catalog.NewLoader(cfg.Path)
	case config.CatalogPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres catalog requires a database connection")
		}
		return catalog.NewPostgresSource(db.Pool).Load(ctx)
	default:
		return catalog.Default()
	}
}

func newHTTPServer(cfg config.ServerConfig, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// newLogger builds the slog handler selected by config. Unknown levels fall
// back to info.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
