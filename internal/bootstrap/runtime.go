// Package bootstrap wires process-wide infrastructure shared by the commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fitcraft/internal/cache"
	"fitcraft/internal/config"
	"fitcraft/internal/database"
	"fitcraft/internal/middleware"
	"fitcraft/internal/observability"
	"fitcraft/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// Options control runtime initialization behavior.
type Options struct {
	// SkipSchema connects without applying migrations, for maintenance commands.
	SkipSchema bool
	// SkipRedis leaves the cache unconnected.
	SkipRedis bool
}

// Runtime holds the shared infrastructure a command runs on.
type Runtime struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Blobs  storage.BlobStore

	shutdownTracing func(context.Context) error
}

// InitRuntime configures logging and tracing, then connects to the database and Redis.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	middleware.ConfigureLogger(cfg.Env, cfg.LogLevel)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    observability.ServiceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	rt := &Runtime{
		Config:          cfg,
		Blobs:           storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURL),
		shutdownTracing: shutdownTracing,
	}

	rt.DB, err = database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: !opts.SkipSchema})
	if err != nil {
		_ = shutdownTracing(context.Background())
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if !opts.SkipRedis {
		if err := cache.InitRedis(cfg.RedisURL); err != nil {
			rt.Close(context.Background())
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		rt.Redis = cache.GetClient()
	}

	return rt, nil
}

// Close releases the database, Redis and tracer. It is safe to call more than once.
func (rt *Runtime) Close(ctx context.Context) {
	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				middleware.Logger.Error("error closing sql DB", slog.String("error", err.Error()))
			}
		}
		rt.DB = nil
	}
	if rt.Redis != nil {
		cache.Close()
		rt.Redis = nil
	}
	if err := rt.ShutdownTracing(ctx); err != nil {
		middleware.Logger.Error("error flushing traces", slog.String("error", err.Error()))
	}
}

// ShutdownTracing flushes pending spans. Use it when the server has already
// closed the database and Redis itself.
func (rt *Runtime) ShutdownTracing(ctx context.Context) error {
	if rt.shutdownTracing == nil {
		return nil
	}
	err := rt.shutdownTracing(ctx)
	rt.shutdownTracing = nil
	return err
}
