package pdftext

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/po-extractor/internal/common"
)

type PopplerConfig struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Layout    bool   // pass -layout to keep column alignment
}

// Poppler extracts page text with pdftotext and counts pages with pdfcpu.
type Poppler struct {
	cfg        PopplerConfig
	runner     Runner
	countPages func(path string) (int, error)
	logger     *slog.Logger
}

func NewPoppler(cfg PopplerConfig, logger *slog.Logger) *Poppler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &Poppler{
		cfg:        cfg,
		runner:     execRunner{logger: logger},
		countPages: pdfcpuPageCount,
		logger:     logger,
	}
}

func pdfcpuPageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	return api.PageCount(f, model.NewDefaultConfiguration())
}

// Open runs pdftotext once over the whole file and splits its output on form feeds.
func (p *Poppler) Open(ctx context.Context, path string) (Document, error) {
	n, err := p.countPages(path)
	if err != nil {
		return nil, common.DocumentError("count pages "+path, err)
	}

	// pdftotext [-layout] -enc UTF-8 -eol unix <path> -
	args := []string{"-enc", "UTF-8", "-eol", "unix", path, "-"}
	if p.cfg.Layout {
		args = append([]string{"-layout"}, args...)
	}
	out, errb, err := p.runner.Run(ctx, p.cfg.Pdftotext, args...)
	if err != nil {
		return nil, toolError(ctx, "pdftotext "+path, err, errb)
	}

	// A form-feed \f terminates every page
	split := strings.Split(string(out), "\f")
	pages := make(Pages, n)
	for i := 0; i < n && i < len(split); i++ {
		pages[i] = split[i]
	}
	if len(split)-1 != n {
		p.logger.Warn("pdftext.poppler.page_mismatch",
			"path", path,
			"document_id", common.DocumentIDFromContext(ctx),
			"pages", n,
			"form_feeds", len(split)-1,
		)
	}
	return pages, nil
}
