package llm

import (
	"context"

	"github.com/joseph-ayodele/po-extractor/constants"
)

// Payload is one completion request before it is put on the wire.
type Payload struct {
	Model       string
	Instruction string
	Body        string
	MaxTokens   int
}

// Content is the single user message sent to the model: instruction followed by body text.
func (p Payload) Content() string {
	return p.Instruction + p.Body
}

// Message is a chat message on the wire.
type Message struct {
	Role    constants.Role `json:"role"`
	Content string         `json:"content"`
}

// ChatRequest is the JSON body of a chat/completions call.
type ChatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

// ChatResponse is the subset of the completion response we read.
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Completer is the interface the extraction pipeline depends on.
// Implementations return the text of the first completion choice.
type Completer interface {
	Complete(ctx context.Context, p Payload) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, p Payload) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, p Payload) (string, error) {
	return f(ctx, p)
}
