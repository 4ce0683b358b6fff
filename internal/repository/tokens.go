package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/po-extractor/internal/auth"
)

const tokensTable = "oauth_tokens"

// TokenRepository stores one bearer token per cache key in a SQL table.
// It implements auth.Cache.
type TokenRepository struct {
	drv    *entsql.Driver
	key    string
	logger *slog.Logger
}

func NewTokenRepository(drv *entsql.Driver, key string, logger *slog.Logger) *TokenRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenRepository{drv: drv, key: key, logger: logger}
}

func (r *TokenRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.drv.Dialect())
}

// Migrate creates the token table when it does not exist.
func (r *TokenRepository) Migrate(ctx context.Context) error {
	query, args := r.builder().CreateTable(tokensTable).
		IfNotExists().
		Columns(
			entsql.Column("cache_key").Type("varchar(255)").Attr("NOT NULL"),
			entsql.Column("access_token").Type("text").Attr("NOT NULL"),
			entsql.Column("expires_at").Type("varchar(64)").Attr("NOT NULL"),
			entsql.Column("updated_at").Type("varchar(64)").Attr("NOT NULL"),
		).
		PrimaryKey("cache_key").
		Query()
	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		r.logger.Error("failed to create token table", "table", tokensTable, "error", err)
		return fmt.Errorf("create %s: %w", tokensTable, err)
	}
	return nil
}

func (r *TokenRepository) Load(ctx context.Context) (auth.Token, bool) {
	query, args := r.builder().
		Select("access_token", "expires_at").
		From(entsql.Table(tokensTable)).
		Where(entsql.EQ("cache_key", r.key)).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		r.logger.Warn("failed to load token", "key", r.key, "error", err)
		return auth.Token{}, false
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn("failed to close rows", "error", err)
		}
	}()

	if !rows.Next() {
		return auth.Token{}, false
	}
	var rec auth.Record
	if err := rows.Scan(&rec.AccessToken, &rec.ExpiresAt); err != nil {
		r.logger.Warn("failed to scan token", "key", r.key, "error", err)
		return auth.Token{}, false
	}
	tok, err := auth.FromRecord(rec)
	if err != nil {
		r.logger.Warn("discarding corrupt token record", "key", r.key, "error", err)
		return auth.Token{}, false
	}
	return tok, true
}

func (r *TokenRepository) Save(ctx context.Context, tok auth.Token) error {
	rec := auth.ToRecord(tok)
	query, args := r.builder().
		Insert(tokensTable).
		Columns("cache_key", "access_token", "expires_at", "updated_at").
		Values(r.key, rec.AccessToken, rec.ExpiresAt, auth.FormatExpiry(time.Now())).
		OnConflict(
			entsql.ConflictColumns("cache_key"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		r.logger.Error("failed to save token", "key", r.key, "error", err)
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}
