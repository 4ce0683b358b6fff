package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/po-extractor/internal/app"
	"github.com/joseph-ayodele/po-extractor/internal/async"
	"github.com/joseph-ayodele/po-extractor/internal/common"
	"github.com/joseph-ayodele/po-extractor/internal/export"
	"github.com/joseph-ayodele/po-extractor/internal/extract"
	"github.com/joseph-ayodele/po-extractor/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type options struct {
	keywords     []string
	headerPrompt string
	itemsPrompt  string
}

func main() {
	var (
		file         = flag.String("file", "", "PDF file to extract")
		dir          = flag.String("dir", "", "directory of PDF files to extract (writes one report per file)")
		keywords     = flag.String("keywords", "", "comma-separated keywords marking the start of the item table")
		headerPrompt = flag.String("header-prompt", "", "instruction for header extraction (empty skips it)")
		itemsPrompt  = flag.String("items-prompt", "", "instruction for item extraction (empty skips it)")
		out          = flag.String("out", "", "report path (.json or .xlsx); with -dir, the output directory")
		format       = flag.String("format", "json", "report format for -dir: json or xlsx")
		workers      = flag.Int("workers", 2, "documents processed concurrently with -dir")
		watch        = flag.Bool("watch", false, "with -dir, keep running and extract documents as they appear")
	)
	flag.Parse()

	if (*file == "") == (*dir == "") {
		printError("Error: exactly one of --file or --dir is required\n")
		os.Exit(1)
	}
	if *headerPrompt == "" && *itemsPrompt == "" {
		printError("Error: at least one of --header-prompt or --items-prompt is required\n")
		os.Exit(1)
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}

	logger := common.NewLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		a.Cleanup()
		logger.Error("failed to initialise services", "error", err)
		os.Exit(1)
	}
	defer a.Cleanup()

	opts := options{
		keywords:     splitKeywords(*keywords),
		headerPrompt: *headerPrompt,
		itemsPrompt:  *itemsPrompt,
	}
	exporter := export.NewService(logger)

	if *file != "" {
		if err := runFile(ctx, a, exporter, opts, *file, *out); err != nil {
			logger.Error("extraction failed", "file", *file, "state", extract.TerminalState(err), "error", err)
			os.Exit(1)
		}
		return
	}

	failed, err := runDir(ctx, a, exporter, opts, *dir, *out, *format, *workers, *watch, logger)
	if err != nil {
		logger.Error("batch failed", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func runFile(ctx context.Context, a *app.App, exporter *export.Service, opts options, path, out string) error {
	header, items, err := a.ExtractFile(ctx, path, opts.keywords, opts.headerPrompt, opts.itemsPrompt)
	if err != nil {
		return err
	}
	if out == "" {
		if header != nil {
			fmt.Println(header.Text)
		}
		if items != nil {
			if header != nil {
				fmt.Println()
			}
			fmt.Println(items.Text())
		}
		return nil
	}
	return writeReport(exporter, export.ReportFor(filepath.Base(path), header, items), out)
}

func writeReport(exporter *export.Service, report export.Report, out string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(out)) {
	case ".xlsx":
		data, err = exporter.ExportXLSX(report)
	case ".json":
		data, err = exporter.ExportJSON(report)
	default:
		return fmt.Errorf("unsupported report extension %q (use .json or .xlsx)", filepath.Ext(out))
	}
	if err != nil {
		return err
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	return os.WriteFile(out, data, 0o644)
}

func runDir(ctx context.Context, a *app.App, exporter *export.Service, opts options, root, out, format string, workers int, watch bool, logger *slog.Logger) (uint32, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format != "json" && format != "xlsx" {
		return 0, fmt.Errorf("unsupported format %q", format)
	}
	if out == "" {
		out = root
	}

	proc := async.ProcessorFunc(func(ctx context.Context, job async.Job) error {
		name := strings.TrimSuffix(filepath.Base(job.Path), filepath.Ext(job.Path))
		return runFile(ctx, a, exporter, opts, job.Path, filepath.Join(out, name+"."+format))
	})
	queue := async.NewProcessorQueue(proc, logger,
		async.WithWorkers(workers),
		async.WithProcessTimeout(10*time.Minute),
	)

	enqueue := func(path string) error {
		return queue.Enqueue(ctx, async.Job{Path: path, TraceID: uuid.New().String()})
	}

	var err error
	if watch {
		err = watchDir(ctx, root, enqueue, logger)
	} else {
		var scan ingest.DirStats
		scan, err = ingest.ScanDirectory(ctx, root, true, enqueue)
		logger.Info("batch.scanned", "dir", root, "matched", scan.Matched, "skipped", scan.Skipped, "unreadable", scan.Failed)
	}
	queue.Shutdown(context.Background())
	if err != nil {
		return 0, err
	}

	stats := queue.Stats()
	logger.Info("batch.done",
		"dir", root,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)
	return stats.Failed, nil
}

// watchDir enqueues existing and newly written documents until ctx ends.
func watchDir(ctx context.Context, root string, enqueue func(string) error, logger *slog.Logger) error {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
	}, logger)
	if err != nil {
		return err
	}
	logger.Info("batch.watching", "dir", root)
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return nil
			}
			if err := enqueue(path); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("batch.watch_error", "error", err)
		}
	}
}
