package llm

import (
	"strings"

	"github.com/joseph-ayodele/po-extractor/constants"
)

// BuildPayload assembles a completion payload. Empty model and non-positive
// maxTokens fall back to the package defaults.
func BuildPayload(model, instruction, body string, maxTokens int) Payload {
	if strings.TrimSpace(model) == "" {
		model = constants.DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = constants.DefaultMaxTokens
	}
	return Payload{
		Model:       model,
		Instruction: instruction,
		Body:        body,
		MaxTokens:   maxTokens,
	}
}

// ChatRequestFor converts a payload into the chat/completions wire body.
func ChatRequestFor(p Payload) ChatRequest {
	return ChatRequest{
		Model: p.Model,
		Messages: []Message{
			{Role: constants.RoleUser, Content: p.Content()},
		},
		MaxTokens: p.MaxTokens,
	}
}
