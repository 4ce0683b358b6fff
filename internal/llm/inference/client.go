package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/po-extractor/constants"
	"github.com/joseph-ayodele/po-extractor/internal/common"
	"github.com/joseph-ayodele/po-extractor/internal/llm"
)

var responseSchema = llm.MustCompileSchema("completion_response.json", llm.CompletionResponseSchema())

// Complete implements llm.Completer. It obtains a bearer token, posts one
// chat/completions request and returns the first choice's content verbatim.
func (c *Client) Complete(ctx context.Context, p llm.Payload) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()

	c.logger.Debug("llm.state", "req_id", rid, "state", constants.StateFetchingToken)
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Error("llm.complete.auth_error", "req_id", rid, "error", err)
		return "", err
	}

	c.logger.Info("llm.complete.start",
		"req_id", rid,
		"state", constants.StateCallingAPI,
		"model", p.Model,
		"max_tokens", p.MaxTokens,
		"content_len", len(p.Content()),
	)

	headers := map[string]string{
		"Authorization":               "Bearer " + token,
		constants.ResourceGroupHeader: c.cfg.ResourceGroup,
	}
	raw, status, err := llm.SendJSON(ctx, c.http, c.cfg.URL, llm.ChatRequestFor(p), headers, c.logger)
	if err != nil {
		var se *llm.StatusError
		if errors.As(err, &se) {
			return "", common.APIError("API_STATUS",
				fmt.Sprintf("completion endpoint returned status %d", status), nil, err)
		}
		return "", common.APIError("API_UNREACHABLE", "completion endpoint unreachable", common.ErrAPIUnreachable, err)
	}

	if err := responseSchema.Validate(raw); err != nil {
		c.logger.Error("llm.complete.malformed",
			"req_id", rid, "error", err, "raw", llm.Truncate(string(raw), 1<<10),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.MalformedResponse("completion response malformed", raw, err)
	}

	var cc llm.ChatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", common.MalformedResponse("decode completion response", raw, err)
	}
	if len(cc.Choices) == 0 {
		return "", common.MalformedResponse("no choices in completion response", raw, nil)
	}

	content := cc.Choices[0].Message.Content
	c.logger.Info("llm.complete.ok",
		"req_id", rid,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
