package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/po-extractor/internal/common"
	"github.com/joseph-ayodele/po-extractor/internal/llm"
	"github.com/joseph-ayodele/po-extractor/internal/pdftext"
)

func testConfig(tokenURL, apiURL string) *common.Config {
	return &common.Config{
		Credentials: common.CredentialsConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			TokenURL:     tokenURL,
			APIURL:       apiURL,
		},
		LLM: common.LLMConfig{
			Provider:    "inference",
			Model:       "test-model",
			MaxTokens:   256,
			Timeout:     5 * time.Second,
			AuthTimeout: 5 * time.Second,
		},
		Items:      common.ItemsConfig{PagesPerChunk: 2, Concurrency: 2},
		TokenCache: common.TokenCacheConfig{Backend: "memory"},
		PDF:        common.PDFConfig{Backend: "native"},
	}
}

func TestExtractFileEndToEnd(t *testing.T) {
	var tokenHits atomic.Int32
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"tok-1","expires_in":3600}`)
	}))
	defer tokenSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req llm.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		content := `{"po_number":"7"}`
		if body, ok := strings.CutPrefix(req.Messages[0].Content, "items"); ok {
			content = "<" + body + ">"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
	defer apiSrv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(context.Background(), testConfig(tokenSrv.URL, apiSrv.URL), logger)
	require.NoError(t, err)
	defer a.Cleanup()
	require.NotNil(t, a.Tokens)

	a.Open = func(context.Context, string) (pdftext.Document, error) {
		return pdftext.Pages{"PO 7\nQty Item\n", "p2", "p3"}, nil
	}

	header, items, err := a.ExtractFile(context.Background(), "po.pdf", []string{"Qty"}, "header", "items")
	require.NoError(t, err)
	require.NotNil(t, header)
	require.NotNil(t, items)

	assert.True(t, header.Formatted())
	assert.Equal(t, "<PO 7\nQty Item\np2><p3>", items.Text())
	assert.Equal(t, int32(1), tokenHits.Load())
}

func TestExtractFileSkipsEmptyPrompts(t *testing.T) {
	a := &App{
		Open: func(context.Context, string) (pdftext.Document, error) {
			return pdftext.Pages{"x"}, nil
		},
	}
	header, items, err := a.ExtractFile(context.Background(), "po.pdf", nil, "", "")
	require.NoError(t, err)
	assert.Nil(t, header)
	assert.Nil(t, items)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1", "http://127.0.0.1:1")
	cfg.LLM.Provider = "carrier-pigeon"
	a, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
	a.Cleanup()
}

func TestNewOpenAIBackendHasNoTokenProvider(t *testing.T) {
	cfg := testConfig("", "")
	cfg.LLM.Provider = "openai"
	cfg.LLM.OpenAIAPIKey = "sk-test"
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Cleanup()
	assert.Nil(t, a.Tokens)
	assert.NotNil(t, a.Completer)
}
