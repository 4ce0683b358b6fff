package openai

import (
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/joseph-ayodele/po-extractor/constants"
)

// Config for the OpenAI-compatible backend.
type Config struct {
	APIKey        string
	BaseURL       string        // default https://api.openai.com/v1
	ResourceGroup string        // forwarded as AI-Resource-Group when set
	Timeout       time.Duration // per request
}

type Client struct {
	cfg    Config
	create createFunc
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger, opts ...option.RequestOption) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultLLMTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		// a failed call fails the whole extraction; no silent retries
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.ResourceGroup != "" {
		reqOpts = append(reqOpts, option.WithHeader(constants.ResourceGroupHeader, cfg.ResourceGroup))
	}
	reqOpts = append(reqOpts, opts...)

	client := openai.NewClient(reqOpts...)
	return &Client{
		cfg:    cfg,
		create: client.Chat.Completions.New,
		logger: logger,
	}
}
