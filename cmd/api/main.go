// Command api serves the news HTTP API. "api migrate" applies the Postgres
// migrations and exits.
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

	"github.com/rs/zerolog"

	"github.com/sirpyerre/news-api/internal/api"
	"github.com/sirpyerre/news-api/internal/app"
	"github.com/sirpyerre/news-api/internal/infrastructure/db/postgres"
	redisstore "github.com/sirpyerre/news-api/internal/infrastructure/db/redis"
	"github.com/sirpyerre/news-api/internal/pkg/config"
	"github.com/sirpyerre/news-api/internal/pkg/token"
	"github.com/sirpyerre/news-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment(), Service: "api"})

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		return migrate(ctx, cfg, log)
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	cache := redisstore.NewResponseCache(a.Redis, cfg.Redis.CacheTTL)
	e := api.NewRouter(api.Dependencies{
		Auth:      a.NewAuthService(token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)),
		News:      a.NewNewsService(cache),
		Images:    a.Images,
		Cache:     cache,
		JWTSecret: cfg.JWTSecret,
		Checks:    a.Checks,
		ImageDir:  a.ImageDir,
		RateLimit: cfg.RateLimit,
		Log:       log,
	})

	if cfg.Worker.Embedded {
		worker, err := a.NewWorker()
		if err != nil {
			return err
		}
		if err := worker.Start(ctx); err != nil {
			return err
		}
		defer worker.Stop()
		log.Info().Msg("embedded worker started")
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func migrate(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.DB.Driver != "postgres" {
		log.Info().Str("driver", cfg.DB.Driver).Msg("no migrations for this driver")
		return nil
	}

	db, err := postgres.Connect(ctx, postgres.Config{URL: cfg.DB.URL, MaxConns: 1})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db.DB); err != nil {
		return err
	}
	log.Info().Msg("migrations applied")
	return nil
}
