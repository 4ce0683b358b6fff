// Package pdftext turns a PDF document into per-page plain text.
package pdftext

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/po-extractor/internal/common"
)

// Document is an opened document whose pages are addressed by zero-based index.
type Document interface {
	PageCount() int
	PageText(ctx context.Context, index int) (string, error)
	Close() error
}

// Pages is a Document whose text is already in memory.
type Pages []string

func (p Pages) PageCount() int { return len(p) }

func (p Pages) PageText(_ context.Context, index int) (string, error) {
	if index < 0 || index >= len(p) {
		return "", pageRangeError(index, len(p))
	}
	return p[index], nil
}

func (Pages) Close() error { return nil }

// Opener opens the document at path.
type Opener func(ctx context.Context, path string) (Document, error)

// Backend names accepted by NewOpener.
const (
	BackendNative    = "native"
	BackendPdftotext = "pdftotext"
	BackendOCR       = "ocr"
	BackendAuto      = "auto" // native text, OCR for pages without any
)

// NewOpener returns the opener selected by cfg.Backend.
func NewOpener(cfg common.PDFConfig, logger *slog.Logger) (Opener, error) {
	switch cfg.Backend {
	case "", BackendNative:
		return func(_ context.Context, path string) (Document, error) {
			d, err := Open(path)
			if err != nil {
				return nil, err
			}
			return d, nil
		}, nil
	case BackendPdftotext:
		return NewPoppler(PopplerConfig{Pdftotext: cfg.Pdftotext}, logger).Open, nil
	case BackendOCR:
		return newOCR(cfg, logger).Open, nil
	case BackendAuto:
		o := newOCR(cfg, logger)
		if logger == nil {
			logger = slog.Default()
		}
		return func(_ context.Context, path string) (Document, error) {
			d, err := Open(path)
			if err != nil {
				return nil, err
			}
			return withOCRFallback{Document: d, ocr: o, path: path, logger: logger}, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown pdf text backend %q", cfg.Backend)
	}
}

func pageRangeError(index, count int) error {
	return common.DocumentError(fmt.Sprintf("page %d out of range [0,%d)", index, count), nil)
}

func newOCR(cfg common.PDFConfig, logger *slog.Logger) *OCR {
	return NewOCR(OCRConfig{
		Pdftoppm:    cfg.Pdftoppm,
		Tesseract:   cfg.Tesseract,
		Lang:        cfg.OCRLang,
		DPI:         cfg.OCRDPI,
		TessdataDir: cfg.TessdataDir,
	}, logger)
}
