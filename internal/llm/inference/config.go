package inference

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/po-extractor/constants"
)

// Config for the OAuth-protected completion endpoint.
type Config struct {
	URL           string        // full chat/completions URL
	ResourceGroup string        // sent as AI-Resource-Group; default "default"
	Timeout       time.Duration // http client timeout
}

// TokenSource yields a bearer token valid at call time.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Client struct {
	cfg    Config
	tokens TokenSource
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, tokens TokenSource, logger *slog.Logger) *Client {
	if cfg.ResourceGroup == "" {
		cfg.ResourceGroup = constants.DefaultResourceGroup
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultLLMTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		tokens: tokens,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// WithHTTPClient replaces the transport; used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}
