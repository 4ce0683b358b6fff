package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/po-extractor/constants"
)

func TestBuildPayload(t *testing.T) {
	p := BuildPayload("", "Extract: ", "PO 1", 0)
	assert.Equal(t, constants.DefaultModel, p.Model)
	assert.Equal(t, constants.DefaultMaxTokens, p.MaxTokens)
	assert.Equal(t, "Extract: PO 1", p.Content())

	p = BuildPayload("m", "i", "", 10)
	assert.Equal(t, "m", p.Model)
	assert.Equal(t, 10, p.MaxTokens)
	assert.Equal(t, "i", p.Content())

	req := ChatRequestFor(p)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, constants.RoleUser, req.Messages[0].Role)
	assert.Equal(t, 10, req.MaxTokens)
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":                 `{"a":1}`,
		"```json\n{\"a\":1}\n```":   `{"a":1}`,
		"```\n[1,2]\n```":           `[1,2]`,
		"  ```JSON\n{\"a\":1}```  ": `{"a":1}`,
		"```{\"a\":1}```":           `{"a":1}`,
		"no fence here":             "no fence here",
		"```json\nnot closed":       "```json\nnot closed",
	}
	for in, want := range cases {
		assert.Equal(t, want, StripCodeFence(in), in)
	}
}

func TestSchemaValidate(t *testing.T) {
	s := MustCompileSchema("completion.json", CompletionResponseSchema())
	assert.NoError(t, s.Validate([]byte(`{"choices":[{"message":{"content":"x"}}],"usage":{}}`)))
	assert.Error(t, s.Validate([]byte(`{"choices":[]}`)))
	assert.Error(t, s.Validate([]byte(`{"choices":[{"message":{"content":3}}]}`)))
	assert.Error(t, s.Validate([]byte(`nope`)))

	tok := MustCompileSchema("token.json", TokenResponseSchema())
	assert.NoError(t, tok.Validate([]byte(`{"access_token":"a","expires_in":60}`)))
	assert.NoError(t, tok.Validate([]byte(`{"access_token":"a","expires_in":"60"}`)))
	assert.NoError(t, tok.Validate([]byte(`{"access_token":"a"}`)))
	assert.Error(t, tok.Validate([]byte(`{"access_token":""}`)))
	assert.Error(t, tok.Validate([]byte(`{"access_token":"a","expires_in":"soon"}`)))

	assert.NoError(t, ValidateJSONAgainstSchema(TokenResponseSchema(), []byte(`{"access_token":"a"}`)))
}

func TestSendJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "v", r.Header.Get("X-Custom"))
		body, _ := io.ReadAll(r.Body)
		if string(body) == `{"fail":true}` {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "upstream down")
			return
		}
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	raw, status, err := SendJSON(context.Background(), srv.Client(), srv.URL, map[string]bool{"fail": false}, map[string]string{"X-Custom": "v"}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ok":true}`, string(raw))

	_, status, err = SendJSON(context.Background(), srv.Client(), srv.URL, map[string]bool{"fail": true}, map[string]string{"X-Custom": "v"}, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "upstream down", se.Body)
}

func TestCompleterFunc(t *testing.T) {
	var c Completer = CompleterFunc(func(_ context.Context, p Payload) (string, error) {
		return p.Body, nil
	})
	out, err := c.Complete(context.Background(), Payload{Body: "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", out)
}
