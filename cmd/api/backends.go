package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	dbmigrate "github.com/vedx/vedx-site/internal/database"
	"github.com/vedx/vedx-site/internal/repo"
	"github.com/vedx/vedx-site/internal/repo/memory"
	"github.com/vedx/vedx-site/internal/repo/postgres"
	redisrepo "github.com/vedx/vedx-site/internal/repo/redis"
	"github.com/vedx/vedx-site/pkg/cache"
	"github.com/vedx/vedx-site/pkg/config"
	"github.com/vedx/vedx-site/pkg/database"
	"github.com/vedx/vedx-site/pkg/events"
	"github.com/vedx/vedx-site/pkg/logger"
	mw "github.com/vedx/vedx-site/pkg/middleware"
)

const memoryCacheBytes = 16 << 20

// backends holds every storage and messaging dependency picked from config.
type backends struct {
	admins   repo.AdminRepository
	otps     repo.OTPRepository
	sessions repo.SessionRepository
	limits   repo.RateLimitRepository
	content  repo.ContentRepository
	cache    cache.Cache
	bus      events.EventBus
	checks   map[string]mw.HealthCheck

	closers []func()
}

func openBackends(ctx context.Context, cfg *config.Config) (_ *backends, err error) {
	b := &backends{checks: make(map[string]mw.HealthCheck)}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		if err := b.openPostgres(ctx, cfg.Database); err != nil {
			return nil, err
		}
	case config.StorageMemory:
		logger.Warn("Using in-memory storage; data is lost on restart")
		b.admins = memory.NewAdminRepository()
		b.otps = memory.NewOTPRepository()
		b.sessions = memory.NewSessionRepository()
		b.limits = memory.NewRateLimitRepository()
		b.content = memory.NewContentRepository()
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}

	if cfg.Redis.URL != "" {
		if err := b.openRedis(ctx, cfg.Redis.URL); err != nil {
			return nil, err
		}
	} else {
		b.cache = cache.NewMemoryCache(memoryCacheBytes)
	}

	if cfg.NATS.URL != "" {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			return nil, err
		}
		b.bus = bus
		b.checks["nats"] = bus.Ping
		logger.Info("Connected to NATS")
	} else {
		b.bus = events.NewLocalEventBus()
	}
	b.closers = append(b.closers, func() { _ = b.bus.Close() })

	return b, nil
}

func (b *backends) openPostgres(ctx context.Context, cfg config.DatabaseConfig) error {
	if cfg.MigrateOnStart {
		if err := dbmigrate.Migrate(cfg.URL); err != nil {
			return err
		}
		logger.Info("Database migrations applied")
	}

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	b.closers = append(b.closers, pool.Close)
	b.checks["postgres"] = pingPool(pool)

	b.admins = postgres.NewAdminRepo(pool)
	b.otps = postgres.NewOTPRepo(pool)
	b.sessions = postgres.NewSessionRepo(pool)
	b.limits = postgres.NewRateLimitRepo(pool)
	b.content = postgres.NewContentRepo(pool)
	return nil
}

// openRedis moves sessions, rate limits and the content cache onto redis.
func (b *backends) openRedis(ctx context.Context, url string) error {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := goredis.NewClient(opts)
	b.closers = append(b.closers, func() { _ = client.Close() })

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	b.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }

	b.sessions = redisrepo.NewSessionRepo(client)
	b.limits = redisrepo.NewRateLimitRepo(client)
	b.cache = cache.NewRedisCache(client, "vedx:cache:")
	logger.Info("Connected to redis")
	return nil
}

func pingPool(pool *pgxpool.Pool) mw.HealthCheck {
	return func(ctx context.Context) error { return pool.Ping(ctx) }
}

// Close releases resources in reverse order of acquisition.
func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
