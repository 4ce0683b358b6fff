package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/po-extractor/constants"
	"github.com/joseph-ayodele/po-extractor/internal/common"
)

// DocumentStore resolves document ids to files inside a single directory.
// Uploading is handled elsewhere; the store only reads.
type DocumentStore struct {
	dir string
}

func NewDocumentStore(dir string) *DocumentStore {
	return &DocumentStore{dir: dir}
}

// Resolve returns the path of the document named id.
func (s *DocumentStore) Resolve(id string) (string, error) {
	v := common.NewValidator().
		Field("document_id", id, common.Required, common.DocumentID, common.MaxLength(255))
	if err := v.Error(); err != nil {
		return "", err
	}
	if !constants.IsAllowedExt(filepath.Ext(id)) {
		return "", common.InvalidInput(fmt.Sprintf("document_id %q: unsupported file type", id))
	}

	path := filepath.Join(s.dir, id)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &common.AppError{
				Code:    "NOT_FOUND",
				Message: fmt.Sprintf("document %q not found", id),
				Kind:    common.ErrNotFound,
			}
		}
		return "", common.DocumentError("stat document "+id, err)
	}
	if info.IsDir() {
		return "", common.InvalidInput(fmt.Sprintf("document_id %q is a directory", id))
	}
	return path, nil
}
