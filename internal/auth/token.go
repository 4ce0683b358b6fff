package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Token is a bearer token and the instant it stops being usable.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// ValidAt reports whether the token can still be presented at now.
func (t Token) ValidAt(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// Cache persists the current token between process runs.
// Load reports false for absent, unreadable or corrupt records.
type Cache interface {
	Load(ctx context.Context) (Token, bool)
	Save(ctx context.Context, tok Token) error
}

// Record is the persisted form of a Token. The timestamp is ISO-8601 in UTC.
type Record struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

// naive timestamps carry no zone and are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseExpiry parses a stored expiry timestamp.
func ParseExpiry(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized expiry timestamp %q", s)
}

// FormatExpiry renders an expiry timestamp for storage.
func FormatExpiry(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ToRecord converts a token to its persisted form.
func ToRecord(tok Token) Record {
	return Record{AccessToken: tok.AccessToken, ExpiresAt: FormatExpiry(tok.ExpiresAt)}
}

// FromRecord converts a persisted record back to a token.
func FromRecord(r Record) (Token, error) {
	if r.AccessToken == "" {
		return Token{}, errors.New("record has no access_token")
	}
	exp, err := ParseExpiry(r.ExpiresAt)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: r.AccessToken, ExpiresAt: exp}, nil
}

// EncodeToken marshals a token record as JSON.
func EncodeToken(tok Token) ([]byte, error) {
	return json.Marshal(ToRecord(tok))
}

// DecodeToken unmarshals a JSON token record.
func DecodeToken(data []byte) (Token, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Token{}, fmt.Errorf("decode token record: %w", err)
	}
	return FromRecord(r)
}
