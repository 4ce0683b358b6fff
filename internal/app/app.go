// Package app wires configuration into the extraction services shared by the
// daemon and the command line tools.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/po-extractor/internal/auth"
	"github.com/joseph-ayodele/po-extractor/internal/common"
	"github.com/joseph-ayodele/po-extractor/internal/extract"
	"github.com/joseph-ayodele/po-extractor/internal/llm"
	"github.com/joseph-ayodele/po-extractor/internal/llm/inference"
	"github.com/joseph-ayodele/po-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/po-extractor/internal/pdftext"
	"github.com/joseph-ayodele/po-extractor/internal/tokencache"
)

// App holds the wired services. Tokens is nil when the OpenAI backend is used.
type App struct {
	Config    *common.Config
	Tokens    *auth.Provider
	Completer llm.Completer
	Extractor *extract.Service
	Open      pdftext.Opener

	cleanup []func()
	logger  *slog.Logger
}

// New builds an App from cfg. Call Cleanup when done, also after an error.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, logger: logger}

	open, err := pdftext.NewOpener(cfg.PDF, logger)
	if err != nil {
		return a, err
	}
	a.Open = open

	switch cfg.LLM.Provider {
	case "", "inference":
		provider, closeCache, err := NewTokenProvider(ctx, cfg, logger)
		if err != nil {
			return a, err
		}
		a.cleanup = append(a.cleanup, closeCache)
		a.Tokens = provider
		a.Completer = inference.NewClient(inference.Config{
			URL:           cfg.Credentials.APIURL,
			ResourceGroup: cfg.Credentials.ResourceGroup,
			Timeout:       cfg.LLM.Timeout,
		}, provider, logger)
	case "openai":
		a.Completer = openai.NewClient(openai.Config{
			APIKey:        cfg.LLM.OpenAIAPIKey,
			BaseURL:       cfg.LLM.OpenAIBaseURL,
			ResourceGroup: cfg.Credentials.ResourceGroup,
			Timeout:       cfg.LLM.Timeout,
		}, logger)
	default:
		return a, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}

	a.Extractor = extract.NewService(extract.Config{
		Model:             cfg.LLM.Model,
		MaxTokens:         cfg.LLM.MaxTokens,
		PagesPerChunk:     cfg.Items.PagesPerChunk,
		Concurrency:       cfg.Items.Concurrency,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
	}, a.Completer, logger)

	logger.Info("app.ready",
		"llm_provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"token_cache", cfg.TokenCache.Backend,
		"pdf_backend", cfg.PDF.Backend,
	)
	return a, nil
}

// NewTokenProvider opens the configured token cache and returns a provider
// backed by it together with the cache's close function.
func NewTokenProvider(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*auth.Provider, func(), error) {
	cache, closeCache, err := tokencache.New(ctx, cfg.TokenCache, logger)
	if err != nil {
		return nil, closeCache, common.WrapError(err, "open token cache")
	}
	provider := auth.NewProvider(auth.Config{
		ClientID:     cfg.Credentials.ClientID,
		ClientSecret: cfg.Credentials.ClientSecret,
		TokenURL:     cfg.Credentials.TokenURL,
		Timeout:      cfg.LLM.AuthTimeout,
	}, cache, logger)
	return provider, closeCache, nil
}

// ExtractFile opens path and runs the operations whose instruction is non-empty.
func (a *App) ExtractFile(ctx context.Context, path string, keywords []string, headerPrompt, itemsPrompt string) (*extract.HeaderResult, *extract.ItemsResult, error) {
	doc, err := a.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	defer doc.Close()

	var header *extract.HeaderResult
	if headerPrompt != "" {
		res, err := a.Extractor.ExtractHeader(ctx, doc, keywords, headerPrompt)
		if err != nil {
			return nil, nil, err
		}
		header = &res
	}
	var items *extract.ItemsResult
	if itemsPrompt != "" {
		res, err := a.Extractor.ExtractItems(ctx, doc, keywords, itemsPrompt)
		if err != nil {
			return header, nil, err
		}
		items = &res
	}
	return header, items, nil
}

// Cleanup releases resources in reverse order of acquisition.
func (a *App) Cleanup() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}
