// Package app wires configuration into the adapters shared by the API and
// worker binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/news-api/internal/core/ports"
	"github.com/sirpyerre/news-api/internal/core/service"
	"github.com/sirpyerre/news-api/internal/infrastructure/db/memory"
	mongostore "github.com/sirpyerre/news-api/internal/infrastructure/db/mongo"
	"github.com/sirpyerre/news-api/internal/infrastructure/db/postgres"
	redisstore "github.com/sirpyerre/news-api/internal/infrastructure/db/redis"
	"github.com/sirpyerre/news-api/internal/infrastructure/http/handlers"
	"github.com/sirpyerre/news-api/internal/infrastructure/notify"
	"github.com/sirpyerre/news-api/internal/infrastructure/queue"
	"github.com/sirpyerre/news-api/internal/infrastructure/storage"
	"github.com/sirpyerre/news-api/internal/pkg/config"
	"github.com/sirpyerre/news-api/internal/pkg/token"
	"github.com/sirpyerre/news-api/pkg/logger"
)

// App holds the connected adapters. Close releases them in reverse order.
type App struct {
	Config *config.Config
	Log    zerolog.Logger

	Users    ports.UserRepository
	News     ports.NewsRepository
	Images   ports.ImageStore
	ImageDir string
	Redis    *goredis.Client
	Queue    *queue.Queue
	Checks   map[string]handlers.Check

	closers []func(context.Context) error
}

// New connects the database selected by DB_DRIVER, Redis, the queue and the
// image store. On error everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log, Checks: make(map[string]handlers.Check)}

	for _, open := range []func(context.Context) error{a.openDatabase, a.openRedis, a.openStorage} {
		if err := open(ctx); err != nil {
			a.Close(context.WithoutCancel(ctx))
			return nil, err
		}
	}
	return a, nil
}

func (a *App) openDatabase(ctx context.Context) error {
	cfg := a.Config
	switch cfg.DB.Driver {
	case "postgres":
		db, err := postgres.Connect(ctx, postgres.Config{URL: cfg.DB.URL, MaxConns: cfg.DB.MaxConns})
		if err != nil {
			return err
		}
		a.onClose(func(context.Context) error { return db.Close() })
		a.Users = postgres.NewUserRepository(db)
		a.News = postgres.NewNewsRepository(db)
		a.Checks["database"] = db.PingContext

	case "mongo":
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		a.onClose(client.Disconnect)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			return err
		}
		a.Users = mongostore.NewUserRepository(db)
		a.News = mongostore.NewNewsRepository(db)
		a.Checks["database"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }

	case "memory":
		store := memory.NewStore()
		a.Users = memory.NewUserRepository(store)
		a.News = memory.NewNewsRepository(store)
		a.Checks["database"] = store.Ping

	default:
		return fmt.Errorf("unknown database driver %q", cfg.DB.Driver)
	}

	a.Log.Info().Str("driver", cfg.DB.Driver).Msg("database ready")
	return nil
}

func (a *App) openRedis(ctx context.Context) error {
	cfg := a.Config
	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	a.onClose(func(context.Context) error { return rdb.Close() })
	a.Redis = rdb
	a.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }

	queueClient := rdb
	if addr := cfg.QueueRedisAddr(); addr != cfg.Redis.Addr {
		queueClient, err = redisstore.Connect(ctx, redisstore.Config{Addr: addr, Password: cfg.Redis.Password})
		if err != nil {
			return fmt.Errorf("queue redis: %w", err)
		}
		a.onClose(func(context.Context) error { return queueClient.Close() })
		a.Checks["queue"] = func(ctx context.Context) error { return queueClient.Ping(ctx).Err() }
	}

	a.Queue = queue.New(queueClient, cfg.Queue.Name, queue.Options{
		Attempts: cfg.Queue.Attempts,
		Backoff:  cfg.Queue.Backoff,
	})
	return nil
}

func (a *App) openStorage(ctx context.Context) error {
	cfg := a.Config.Storage
	switch cfg.Driver {
	case "s3":
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3Endpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			UsePathStyle: cfg.S3UsePathStyle,
			PublicURL:    cfg.S3PublicURL,
		})
		if err != nil {
			return err
		}
		a.Images = store
	default:
		store, err := storage.NewDiskStore(cfg.UploadDir, strings.TrimRight(a.Config.AppURL, "/")+"/images")
		if err != nil {
			return err
		}
		a.Images = store
		a.ImageDir = store.Dir()
	}
	return nil
}

// NewAuthService builds the auth flow on the configured user store.
func (a *App) NewAuthService(issuer *token.Issuer) *service.AuthService {
	return service.NewAuthService(a.Users, a.Images, issuer, a.Config.BcryptCost, logger.Component(a.Log, "auth"))
}

// NewNewsService builds the article flow with its cache and queue.
func (a *App) NewNewsService(cache ports.ListingCache) *service.NewsService {
	return service.NewNewsService(a.News, a.Images, a.Queue, cache, a.Config.Queue.Name, logger.Component(a.Log, "news"))
}

// NewWorker builds the queue consumer. The notifier publishes on NATS when
// NATS_URL is set and only logs otherwise.
func (a *App) NewWorker() (*queue.Worker, error) {
	log := logger.Component(a.Log, "worker")

	var notifier ports.Notifier = notify.NewLogNotifier(log)
	if url := a.Config.Nats.URL; url != "" {
		n, nc, err := notify.ConnectNats(url, log)
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return nc.Drain() })
		a.Checks["nats"] = func(context.Context) error {
			if !nc.IsConnected() {
				return errors.New("nats not connected")
			}
			return nil
		}
		notifier = n
	}

	dedup := redisstore.NewDedupChecker(a.Redis, redisstore.DefaultDedupTTL)
	processor := service.NewJobService(notifier, dedup, a.Config.Worker.Concurrency, log)
	return queue.NewWorker(a.Queue, processor, queue.WorkerOptions{}, log), nil
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close releases every adapter, logging failures.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.Log.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}
