package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestFromLookuper_Defaults(t *testing.T) {
	cfg, err := FromLookuper(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "secret",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8000" {
		t.Fatalf("expected port 8000, got %q", cfg.Port)
	}
	if cfg.BcryptCost != 17 {
		t.Fatalf("expected bcrypt cost 17, got %d", cfg.BcryptCost)
	}
	if cfg.TokenTTL != 365*24*time.Hour {
		t.Fatalf("expected one year token ttl, got %s", cfg.TokenTTL)
	}
	if cfg.Queue.Name != "master-backend-queue" {
		t.Fatalf("unexpected queue name %q", cfg.Queue.Name)
	}
	if cfg.Redis.CacheTTL != time.Hour {
		t.Fatalf("expected 1h cache ttl, got %s", cfg.Redis.CacheTTL)
	}
	if cfg.QueueRedisAddr() != "localhost:6379" {
		t.Fatalf("queue should reuse REDIS_ADDR, got %q", cfg.QueueRedisAddr())
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development env by default")
	}
}

func TestFromLookuper_Overrides(t *testing.T) {
	cfg, err := FromLookuper(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":       "secret",
		"DB_DRIVER":        "mongo",
		"QUEUE_REDIS_ADDR": "queue:6379",
		"WORKER_EMBEDDED":  "true",
		"STORAGE_DRIVER":   "s3",
		"S3_BUCKET":        "news",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DB.Driver != "mongo" {
		t.Fatalf("expected mongo driver, got %q", cfg.DB.Driver)
	}
	if cfg.QueueRedisAddr() != "queue:6379" {
		t.Fatalf("unexpected queue addr %q", cfg.QueueRedisAddr())
	}
	if !cfg.Worker.Embedded {
		t.Fatalf("expected embedded worker")
	}
}

func TestFromLookuper_Errors(t *testing.T) {
	tests := map[string]map[string]string{
		"missing secret":  {},
		"unknown driver":  {"JWT_SECRET": "s", "DB_DRIVER": "sqlite"},
		"s3 needs bucket": {"JWT_SECRET": "s", "STORAGE_DRIVER": "s3"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := FromLookuper(context.Background(), envconfig.MapLookuper(env))
			if err == nil || !strings.HasPrefix(err.Error(), "config:") {
				t.Fatalf("expected config error, got %v", err)
			}
		})
	}
}
