package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/joseph-ayodele/po-extractor/internal/app"
	"github.com/joseph-ayodele/po-extractor/internal/auth"
	"github.com/joseph-ayodele/po-extractor/internal/common"
	"github.com/joseph-ayodele/po-extractor/internal/tokencache"
)

func main() {
	renew := flag.Bool("renew", false, "request a new token even if the cached one is valid")
	flag.Parse()

	cfg, err := common.LoadConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if cfg.Credentials.TokenURL == "" || cfg.Credentials.ClientID == "" {
		log.Println("ERROR: OAUTH_TOKEN_URL, OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET are required")
		log.Println("  export OAUTH_TOKEN_URL=https://auth.example.com/oauth/token")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := common.NewLogger(os.Stderr, cfg.LogLevel)

	cache, closeCache, err := tokencache.New(ctx, cfg.TokenCache, logger)
	if err != nil {
		log.Fatalf("opening token cache: %v", err)
	}
	report(ctx, cfg.TokenCache.Backend, cache)
	closeCache()

	provider, closeProvider, err := app.NewTokenProvider(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("opening token cache: %v", err)
	}
	defer closeProvider()

	if *renew {
		tok, err := provider.Renew(ctx)
		if err != nil {
			log.Fatalf("token renewal: FAIL (%v)", err)
		}
		log.Printf("token renewal: OK (expires %s, in %s)", auth.FormatExpiry(tok.ExpiresAt), time.Until(tok.ExpiresAt).Round(time.Second))
		return
	}

	if _, err := provider.Token(ctx); err != nil {
		log.Fatalf("token: FAIL (%v)", err)
	}
	log.Println("token: OK")
}

func report(ctx context.Context, backend string, cache auth.Cache) {
	tok, ok := cache.Load(ctx)
	switch {
	case !ok:
		log.Printf("cache [%s]: empty", backend)
	case tok.ValidAt(time.Now()):
		log.Printf("cache [%s]: valid until %s", backend, auth.FormatExpiry(tok.ExpiresAt))
	default:
		log.Printf("cache [%s]: expired at %s", backend, auth.FormatExpiry(tok.ExpiresAt))
	}
}
