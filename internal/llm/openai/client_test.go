package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/po-extractor/internal/common"
	"github.com/joseph-ayodele/po-extractor/internal/llm"
)

func TestClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "rg", r.Header.Get("AI-Resource-Group"))

		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "meta--llama3-70b-instruct", body["model"])
		assert.EqualValues(t, 4096, body["max_tokens"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"[{\"qty\":2}]"}}]}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/", ResourceGroup: "rg"}, nil)
	out, err := c.Complete(context.Background(), llm.BuildPayload("", "Items: ", "Qty 2", 0))
	require.NoError(t, err)
	assert.Equal(t, `[{"qty":2}]`, out)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL + "/v1/"}, nil)
	_, err := c.Complete(context.Background(), llm.BuildPayload("", "i", "b", 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAPI)
	assert.NotErrorIs(t, err, common.ErrAPIUnreachable)
}

func TestClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL + "/v1/"}, nil)
	_, err := c.Complete(context.Background(), llm.BuildPayload("", "i", "b", 0))
	assert.ErrorIs(t, err, common.ErrAPIMalformed)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: url + "/v1/"}, nil)
	_, err := c.Complete(context.Background(), llm.BuildPayload("", "i", "b", 0))
	assert.ErrorIs(t, err, common.ErrAPIUnreachable)
}
