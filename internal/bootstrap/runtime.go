// Package bootstrap wires process-level resources shared by the commands.
package bootstrap

import (
	"context"
	"fmt"

	"artfeed/internal/cache"
	"artfeed/internal/config"
	"artfeed/internal/database"
	"artfeed/internal/observability"
	"artfeed/internal/repository"
	"artfeed/internal/seed"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Version is reported to the tracer as the service version.
var Version = "dev"

// Options control runtime initialization behavior.
type Options struct {
	SeedBuiltIns bool
}

// InitObservability installs the global logger and tracer for cfg. The
// returned func flushes pending spans.
func InitObservability(cfg *config.Config, service string) (func(context.Context) error, error) {
	observability.InitLogger(observability.LogConfig{
		Level:      cfg.LogLevel,
		Path:       cfg.LogPath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})

	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    service,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	return shutdown, nil
}

// InitRuntime connects to DB and Redis and optionally seeds the built-in tags.
// The redis client is nil when REDIS_URL is unset or unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedBuiltIns {
		tags, err := seed.Tags(ctx, repository.NewTagRepository(db))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to seed built-in tags: %w", err)
		}
		observability.Logger.Info("built-in tags seeded", zap.Int("count", len(tags)))
	}

	return db, r, nil
}
