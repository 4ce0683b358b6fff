package tokencache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/joseph-ayodele/po-extractor/internal/auth"
)

// File keeps the token in a JSON document on disk. Keys other than
// access_token and expires_at are preserved across writes, so the file may be
// shared with other settings.
type File struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

func NewFile(path string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}
	return &File{path: path, logger: logger}
}

func (f *File) Load(_ context.Context) (auth.Token, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.logger.Warn("tokencache.file.read_error", "path", f.path, "error", err)
		}
		return auth.Token{}, false
	}
	tok, err := auth.DecodeToken(data)
	if err != nil {
		f.logger.Warn("tokencache.file.corrupt", "path", f.path, "error", err)
		return auth.Token{}, false
	}
	return tok, true
}

// Save writes through a temp file and rename so readers never see a partial document.
func (f *File) Save(_ context.Context, tok auth.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := map[string]any{}
	if data, err := os.ReadFile(f.path); err == nil {
		if err := json.Unmarshal(data, &doc); err != nil {
			doc = map[string]any{}
		}
	}
	rec := auth.ToRecord(tok)
	doc["access_token"] = rec.AccessToken
	doc["expires_at"] = rec.ExpiresAt

	out, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(out); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp token file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	f.logger.Debug("tokencache.file.saved", "path", f.path)
	return nil
}
