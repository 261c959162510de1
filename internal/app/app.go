// Package app assembles the resolution stack from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"booksearch/internal/book"
	"booksearch/internal/cache"
	"booksearch/internal/config"
	"booksearch/internal/resolver"
	"booksearch/internal/source"
)

const (
	storeTimeout = 3 * time.Second
	cachePrefix  = "booksearch:"
)

// App owns the connections behind a resolver.Service.
type App struct {
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Books    *book.PostgresRepo
	Attempts *book.AttemptPostgresRepo
	Resolver *resolver.Service
}

// Open connects to Postgres and, when configured, Redis. Without REDIS_URL
// the cache is in-process.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	pool, err := openDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	log.Info("database connection OK", "dsn", RedactDSN(cfg.DatabaseDSN))

	a := &App{
		DB:       pool,
		Books:    book.NewPostgresRepo(pool, storeTimeout),
		Attempts: book.NewAttemptPostgresRepo(pool, storeTimeout),
	}

	var c cache.Cache[book.Record]
	if cfg.RedisURL != "" {
		rc, client, err := cache.NewRedisFromURL[book.Record](ctx, cfg.RedisURL, cachePrefix)
		if err != nil {
			pool.Close()
			return nil, err
		}
		a.Redis = client
		c = rc
		log.Info("redis cache enabled")
	} else {
		c = cache.NewMemory[book.Record]()
		log.Info("REDIS_URL not set, using in-process cache")
	}

	a.Resolver = resolver.NewService(a.Books, a.Attempts, c, Adapters(cfg, log),
		resolver.WithTTL(cfg.CacheTTL),
		resolver.WithSourceTimeout(cfg.SourceTimeout),
		resolver.WithLogger(log),
	)
	return a, nil
}

// Adapters returns the providers in priority order.
func Adapters(cfg config.Config, log *slog.Logger) []source.Adapter {
	client := func(baseURL string) source.ClientConfig {
		return source.ClientConfig{
			BaseURL:           baseURL,
			UserAgent:         cfg.UserAgent,
			Timeout:           cfg.SourceTimeout,
			RequestsPerSecond: cfg.SourceRPS,
			MaxRetries:        cfg.SourceMaxRetries,
			Logger:            log,
		}
	}
	return []source.Adapter{
		source.NewGoogleBooks(cfg.GoogleBooksAPIKey, client(cfg.GoogleBooksBaseURL)),
		source.NewOpenLibrary(client(cfg.OpenLibraryBaseURL)),
		source.NewWorldCat(client(cfg.WorldCatBaseURL)),
	}
}

// Checks are the dependency probes served by the health endpoint.
func (a *App) Checks() map[string]resolver.Check {
	checks := map[string]resolver.Check{
		"database": a.DB.Ping,
	}
	if a.Redis != nil {
		checks["cache"] = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}
	return checks
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	a.DB.Close()
}

func openDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot ping database (%s): %w", RedactDSN(dsn), err)
	}
	return pool, nil
}

// RedactDSN masks the credentials in a URL-style DSN.
func RedactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
