package extract

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/joseph-ayodele/po-extractor/internal/common"
	"github.com/joseph-ayodele/po-extractor/internal/llm"
)

// HeaderKind tells whether header content could be decoded as JSON.
type HeaderKind int

const (
	HeaderFormatted HeaderKind = iota
	HeaderRaw
)

func (k HeaderKind) String() string {
	if k == HeaderFormatted {
		return "formatted"
	}
	return "raw"
}

const (
	headerPrefix      = "Extracted Header Information:\n\n"
	headerErrorPrefix = "Error: Unable to format content due to JSON decoding error.\nOriginal Content:\n"
)

// HeaderResult is the outcome of header extraction.
type HeaderResult struct {
	Kind      HeaderKind
	Text      string // what callers display
	Content   string // raw model content
	FormatErr error  // set for HeaderRaw
}

// Formatted reports whether the content decoded as JSON.
func (r HeaderResult) Formatted() bool { return r.Kind == HeaderFormatted }

// JSON returns the decoded content as compact JSON, or nil for raw results.
func (r HeaderResult) JSON() json.RawMessage {
	if r.Kind != HeaderFormatted {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(llm.StripCodeFence(r.Content))); err != nil {
		return nil
	}
	return buf.Bytes()
}

// FormatHeader renders model content for display. It never fails: content
// that is not JSON comes back as a HeaderRaw result carrying a FormatError.
// Key order is preserved.
func FormatHeader(content string) HeaderResult {
	body := llm.StripCodeFence(content)
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(body), "", "    "); err != nil {
		return HeaderResult{
			Kind:      HeaderRaw,
			Text:      headerErrorPrefix + content,
			Content:   content,
			FormatErr: common.FormatError("header content is not JSON", err),
		}
	}
	return HeaderResult{
		Kind:    HeaderFormatted,
		Text:    headerPrefix + strings.TrimSpace(buf.String()),
		Content: content,
	}
}

// rawHeader is the fallback for a completion response without choices.
func rawHeader(raw string, cause error) HeaderResult {
	return HeaderResult{
		Kind:      HeaderRaw,
		Text:      headerErrorPrefix + raw,
		Content:   raw,
		FormatErr: common.FormatError("completion response has no choices", cause),
	}
}

// ChunkResult is the completion content for one chunk.
type ChunkResult struct {
	Index     int
	FirstPage int
	LastPage  int
	Content   string
}

// ItemsResult holds per-chunk contents in chunk order.
type ItemsResult struct {
	Chunks []ChunkResult
}

// Text concatenates chunk contents in ascending chunk order.
func (r ItemsResult) Text() string {
	var sb strings.Builder
	for _, c := range r.Chunks {
		sb.WriteString(c.Content)
	}
	return sb.String()
}
