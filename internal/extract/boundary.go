package extract

import (
	"regexp"
	"strings"
)

// Boundary recognises the first line of the item section of a page.
// Keywords are literal text matched case-insensitively; a keyword edge that is a
// word character must sit on a word boundary, so "Qty" does not match "Qtys".
type Boundary struct {
	re *regexp.Regexp
}

func NewBoundary(keywords []string) *Boundary {
	alts := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		alt := regexp.QuoteMeta(k)
		if isWordByte(k[0]) {
			alt = `\b` + alt
		}
		if isWordByte(k[len(k)-1]) {
			alt += `\b`
		}
		alts = append(alts, alt)
	}
	if len(alts) == 0 {
		return &Boundary{}
	}
	return &Boundary{re: regexp.MustCompile(`(?i)(?:` + strings.Join(alts, "|") + `)`)}
}

func isWordByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// Empty reports whether no usable keyword was given.
func (b *Boundary) Empty() bool { return b.re == nil }

// Match reports whether line starts the item section.
func (b *Boundary) Match(line string) bool {
	return b.re != nil && b.re.MatchString(line)
}

// HeaderText returns the lines of page that precede the first matching line,
// each terminated by "\n". Without a match the whole page is returned.
func (b *Boundary) HeaderText(page string) string {
	var sb strings.Builder
	for _, line := range SplitLines(page) {
		if b.Match(line) {
			break
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// SplitLines splits text on "\n" after normalising "\r\n". A trailing newline
// does not produce an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
