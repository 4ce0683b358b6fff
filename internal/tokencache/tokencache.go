// Package tokencache holds the persistent auth.Cache backends.
package tokencache

import (
	"context"
	"fmt"
	"log/slog"

	"entgo.io/ent/dialect"
	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/po-extractor/internal/auth"
	"github.com/joseph-ayodele/po-extractor/internal/common"
	"github.com/joseph-ayodele/po-extractor/internal/repository"
)

// New builds the cache selected by cfg.Backend. The returned close function
// releases any connection the backend holds and is never nil.
func New(ctx context.Context, cfg common.TokenCacheConfig, logger *slog.Logger) (auth.Cache, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() {}

	switch cfg.Backend {
	case "", "file":
		return NewFile(cfg.Path, logger), noop, nil

	case "memory":
		return auth.NewMemoryCache(), noop, nil

	case "bolt":
		b, err := OpenBolt(cfg.Path, cfg.Key, logger)
		if err != nil {
			return nil, noop, err
		}
		return b, func() {
			if err := b.Close(); err != nil {
				logger.Warn("tokencache.bolt.close_error", "error", err)
			}
		}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		r := NewRedis(client, cfg.Key, logger)
		return r, func() {
			if err := r.Close(); err != nil {
				logger.Warn("tokencache.redis.close_error", "error", err)
			}
		}, nil

	case "sqlite", "postgres":
		d := dialect.SQLite
		dsn := cfg.DSN
		if cfg.Backend == "postgres" {
			d = dialect.Postgres
		} else if dsn == "" {
			dsn = "file:" + cfg.Path + "?_pragma=busy_timeout(5000)"
		}
		db, err := repository.Open(ctx, repository.Config{Dialect: d, DSN: dsn}, logger)
		if err != nil {
			return nil, noop, err
		}
		repo := repository.NewTokenRepository(db.Driver, cfg.Key, logger)
		if err := repo.Migrate(ctx); err != nil {
			db.Close(logger)
			return nil, noop, err
		}
		return repo, func() { db.Close(logger) }, nil

	default:
		return nil, noop, fmt.Errorf("unknown token cache backend %q", cfg.Backend)
	}
}
