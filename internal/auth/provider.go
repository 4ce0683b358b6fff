package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/joseph-ayodele/po-extractor/constants"
	"github.com/joseph-ayodele/po-extractor/internal/common"
	"github.com/joseph-ayodele/po-extractor/internal/llm"
)

var tokenResponseSchema = llm.MustCompileSchema("token_response.json", llm.TokenResponseSchema())

// Config holds the client-credentials grant settings.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Timeout      time.Duration // bounds one grant request; default 15s
}

// Provider hands out a valid bearer token, renewing it lazily through the
// client-credentials grant when the cached one is absent or expired.
// Concurrent callers share a single grant request.
type Provider struct {
	cfg    Config
	cache  Cache
	http   *resty.Client
	now    func() time.Time
	logger *slog.Logger
	flight singleflight.Group
}

// Option customizes a Provider.
type Option func(*Provider)

// WithClock replaces time.Now; used by tests to move across expiry.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithHTTPClient sends grant requests through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Provider) { p.http = resty.NewWithClient(hc) }
}

func NewProvider(cfg Config, cache Cache, logger *slog.Logger, opts ...Option) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultAuthTimeout
	}
	p := &Provider{
		cfg:    cfg,
		cache:  cache,
		http:   resty.New(),
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Token returns a bearer token valid at the time of the call.
func (p *Provider) Token(ctx context.Context) (string, error) {
	if tok, ok := p.cached(ctx); ok {
		p.logger.Debug("auth.token.cache_hit", "expires_at", tok.ExpiresAt)
		return tok.AccessToken, nil
	}

	ch := p.flight.DoChan("token", func() (any, error) {
		fctx, cancel := common.WithTimeout(context.WithoutCancel(ctx), p.cfg.Timeout)
		defer cancel()
		// another flight may have renewed it while we waited
		if tok, ok := p.cached(fctx); ok {
			return tok.AccessToken, nil
		}
		tok, err := p.Renew(fctx)
		if err != nil {
			return "", err
		}
		return tok.AccessToken, nil
	})

	select {
	case <-ctx.Done():
		return "", common.AuthError("token request abandoned", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (p *Provider) cached(ctx context.Context) (Token, bool) {
	tok, ok := p.cache.Load(ctx)
	if !ok {
		return Token{}, false
	}
	return tok, tok.ValidAt(p.now())
}

// maxTokenLifetime caps expires_in so the expiry stays representable.
const maxTokenLifetime = 365 * 24 * time.Hour

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   json.Number `json:"expires_in"`
}

// Renew performs a client-credentials grant unconditionally and stores the result.
// A failed cache write is logged and the fresh token is still returned.
func (p *Provider) Renew(ctx context.Context) (Token, error) {
	reqID := uuid.New().String()
	start := time.Now()
	p.logger.Info("auth.token.request", "req_id", reqID, "url", p.cfg.TokenURL)

	resp, err := p.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     p.cfg.ClientID,
			"client_secret": p.cfg.ClientSecret,
		}).
		Post(p.cfg.TokenURL)
	if err != nil {
		p.logger.Error("auth.token.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return Token{}, common.AuthError("token endpoint unreachable", err)
	}
	if !resp.IsSuccess() {
		p.logger.Error("auth.token.status_error",
			"req_id", reqID,
			"status", resp.StatusCode(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Token{}, common.AuthError(
			fmt.Sprintf("token endpoint returned status %d", resp.StatusCode()),
			fmt.Errorf("%s", llm.Truncate(resp.String(), 512)),
		)
	}

	body := resp.Body()
	if err := tokenResponseSchema.Validate(body); err != nil {
		p.logger.Error("auth.token.malformed", "req_id", reqID, "error", err)
		return Token{}, common.AuthError("token response malformed", err)
	}
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Token{}, common.AuthError("token response malformed", err)
	}

	lifetime := constants.DefaultTokenLifetime
	if secs, err := tr.ExpiresIn.Float64(); err == nil && secs > 0 {
		secs = min(secs, maxTokenLifetime.Seconds())
		lifetime = time.Duration(secs * float64(time.Second))
	}
	tok := Token{
		AccessToken: tr.AccessToken,
		ExpiresAt:   p.now().UTC().Add(lifetime),
	}

	if err := p.cache.Save(ctx, tok); err != nil {
		p.logger.Warn("auth.token.cache_save_error", "req_id", reqID, "error", err)
	}
	p.logger.Info("auth.token.renewed",
		"req_id", reqID,
		"expires_at", tok.ExpiresAt,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return tok, nil
}
