package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/joseph-ayodele/po-extractor/internal/common"
	"github.com/joseph-ayodele/po-extractor/internal/llm"
)

type createFunc func(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)

// Complete implements llm.Completer over the chat completions API.
func (c *Client) Complete(ctx context.Context, p llm.Payload) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()

	c.logger.Info("llm.complete.start",
		"req_id", rid,
		"provider", "openai",
		"model", p.Model,
		"max_tokens", p.MaxTokens,
		"content_len", len(p.Content()),
	)

	resp, err := c.create(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(p.Content()),
		},
		MaxTokens: openai.Int(int64(p.MaxTokens)),
	})
	if err != nil {
		c.logger.Error("llm.complete.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", common.APIError("API_STATUS",
				fmt.Sprintf("completion endpoint returned status %d", apiErr.StatusCode), nil, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", common.APIError("API_UNREACHABLE", "completion call canceled", common.ErrAPIUnreachable, ctxErr)
		}
		return "", common.APIError("API_UNREACHABLE", "completion endpoint unreachable", common.ErrAPIUnreachable, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		c.logger.Error("llm.complete.no_choices", "req_id", rid)
		var raw []byte
		if resp != nil {
			raw = []byte(resp.RawJSON())
		}
		return "", common.MalformedResponse("no choices in completion response", raw, nil)
	}

	content := resp.Choices[0].Message.Content
	c.logger.Info("llm.complete.ok",
		"req_id", rid,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
