package llm

import "strings"

// StripCodeFence removes a single surrounding Markdown code fence, with or without
// a language tag. Content without a fence is returned trimmed.
func StripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(s[3:], "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		tag := strings.TrimSpace(s[:i])
		if tag == "" || !strings.ContainsAny(tag, " {[\"") {
			s = s[i+1:]
		}
	}
	return strings.TrimSpace(s)
}

// Truncate caps s at max bytes for log and error messages.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
