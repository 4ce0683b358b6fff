package pdftext

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/joseph-ayodele/po-extractor/internal/common"
)

type OCRConfig struct {
	Pdftoppm    string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "eng"
	DPI         int    // rasterization DPI, default 300
	TessdataDir string
	PSM         int // e.g., 6 is good for uniform block of text
}

// OCR reads scanned documents by rasterizing one page at a time with pdftoppm
// and running tesseract on the image. Pages are rendered on first access.
type OCR struct {
	cfg        OCRConfig
	runner     Runner
	countPages func(path string) (int, error)
	logger     *slog.Logger
}

func NewOCR(cfg OCRConfig, logger *slog.Logger) *OCR {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &OCR{
		cfg:        cfg,
		runner:     execRunner{logger: logger},
		countPages: pdfcpuPageCount,
		logger:     logger,
	}
}

func (o *OCR) Open(_ context.Context, path string) (Document, error) {
	n, err := o.countPages(path)
	if err != nil {
		return nil, common.DocumentError("count pages "+path, err)
	}
	return &ocrDocument{ocr: o, path: path, pages: make([]*string, n)}, nil
}

// PageText renders and recognizes the zero-based page index of path.
func (o *OCR) PageText(ctx context.Context, path string, index int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "po-ocr-*")
	if err != nil {
		return "", common.DocumentError("ocr temp dir", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			o.logger.Warn("pdftext.ocr.cleanup_error", "dir", tmpDir, "error", err)
		}
	}()

	page := strconv.Itoa(index + 1)
	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png -f N -l N -singlefile <in.pdf> <tmp/page>
	_, errb, err := o.runner.Run(ctx, o.cfg.Pdftoppm,
		"-r", strconv.Itoa(o.cfg.DPI), "-png", "-f", page, "-l", page, "-singlefile", path, prefix)
	if err != nil {
		return "", toolError(ctx, "pdftoppm "+path, err, errb)
	}

	// tesseract <file> stdout -l <lang>
	args := []string{prefix + ".png", "stdout", "-l", o.cfg.Lang}
	if o.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(o.cfg.PSM))
	}
	if o.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", o.cfg.TessdataDir)
	}
	out, errb, err := o.runner.Run(ctx, o.cfg.Tesseract, args...)
	if err != nil {
		return "", toolError(ctx, "tesseract "+path, err, errb)
	}
	return Normalize(string(out)), nil
}

type ocrDocument struct {
	ocr  *OCR
	path string

	mu    sync.Mutex
	pages []*string
}

func (d *ocrDocument) PageCount() int { return len(d.pages) }

func (d *ocrDocument) PageText(ctx context.Context, index int) (string, error) {
	if index < 0 || index >= len(d.pages) {
		return "", pageRangeError(index, len(d.pages))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if p := d.pages[index]; p != nil {
		return *p, nil
	}
	text, err := d.ocr.PageText(ctx, d.path, index)
	if err != nil {
		return "", err
	}
	d.pages[index] = &text
	return text, nil
}

func (d *ocrDocument) Close() error { return nil }

// withOCRFallback recognizes pages whose embedded text is blank, which is
// what scanned documents look like to a text extractor.
type withOCRFallback struct {
	Document
	ocr    *OCR
	path   string
	logger *slog.Logger
}

func (d withOCRFallback) PageText(ctx context.Context, index int) (string, error) {
	text, err := d.Document.PageText(ctx, index)
	if err != nil || strings.TrimSpace(text) != "" {
		return text, err
	}
	d.logger.Debug("pdftext.ocr.fallback", "path", d.path, "page", index)
	return d.ocr.PageText(ctx, d.path, index)
}
