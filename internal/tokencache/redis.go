package tokencache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/po-extractor/internal/auth"
)

// Redis keeps the token under a single key. The key expires together with the token.
type Redis struct {
	client *redis.Client
	key    string
	now    func() time.Time
	logger *slog.Logger
}

func NewRedis(client *redis.Client, key string, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, key: key, now: time.Now, logger: logger}
}

func (r *Redis) Load(ctx context.Context) (auth.Token, bool) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("tokencache.redis.read_error", "key", r.key, "error", err)
		}
		return auth.Token{}, false
	}
	tok, err := auth.DecodeToken(data)
	if err != nil {
		r.logger.Warn("tokencache.redis.corrupt", "key", r.key, "error", err)
		return auth.Token{}, false
	}
	return tok, true
}

func (r *Redis) Save(ctx context.Context, tok auth.Token) error {
	data, err := auth.EncodeToken(tok)
	if err != nil {
		return err
	}
	ttl := tok.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return r.client.Del(ctx, r.key).Err()
	}
	return r.client.Set(ctx, r.key, data, ttl).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
