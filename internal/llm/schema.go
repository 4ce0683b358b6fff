package llm

// CompletionResponseSchema is the minimum shape a chat/completions response must have
// before its first choice is read. Extra fields are allowed.
func CompletionResponseSchema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"choices": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"message": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"content": map[string]any{"type": "string"},
							},
							"required": []string{"content"},
						},
					},
					"required": []string{"message"},
				},
			},
		},
		"required": []string{"choices"},
	}
}

// TokenResponseSchema describes an OAuth2 client-credentials response.
// expires_in is optional and may arrive as a number or a numeric string.
func TokenResponseSchema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"access_token": map[string]any{"type": "string", "minLength": 1},
			"token_type":   map[string]any{"type": "string"},
			"expires_in": map[string]any{
				"anyOf": []any{
					map[string]any{"type": "number"},
					map[string]any{"type": "string", "pattern": `^[0-9]+(\.[0-9]+)?$`},
				},
			},
		},
		"required": []string{"access_token"},
	}
}
