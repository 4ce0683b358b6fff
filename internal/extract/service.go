package extract

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/po-extractor/constants"
	"github.com/joseph-ayodele/po-extractor/internal/common"
	"github.com/joseph-ayodele/po-extractor/internal/llm"
	"github.com/joseph-ayodele/po-extractor/internal/pdftext"
)

type Config struct {
	Model             string
	MaxTokens         int
	PagesPerChunk     int     // default 3
	Concurrency       int     // chunk calls in flight; default 1
	RequestsPerSecond float64 // 0 = unlimited
}

// Service runs header and item extraction over a document.
type Service struct {
	cfg       Config
	completer llm.Completer
	limiter   *rate.Limiter
	logger    *slog.Logger
}

func NewService(cfg Config, completer llm.Completer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PagesPerChunk <= 0 {
		cfg.PagesPerChunk = constants.DefaultPagesPerChunk
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	s := &Service{cfg: cfg, completer: completer, logger: logger}
	if cfg.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return s
}

// ExtractHeader sends the header section of the first page to the model and
// formats the reply. A reply that is not JSON is not an error, and neither is
// a response without choices: both come back as HeaderRaw.
func (s *Service) ExtractHeader(ctx context.Context, doc pdftext.Document, keywords []string, instruction string) (HeaderResult, error) {
	ctx, rid := s.begin(ctx, "header")
	start := time.Now()

	if strings.TrimSpace(instruction) == "" {
		return HeaderResult{}, s.fail(rid, "header", common.InvalidInput("instruction is required"))
	}
	if doc == nil || doc.PageCount() == 0 {
		return HeaderResult{}, s.fail(rid, "header", common.DocumentError("document has no pages", nil))
	}

	page, err := doc.PageText(ctx, 0)
	if err != nil {
		return HeaderResult{}, s.fail(rid, "header", asDocumentError(ctx, err))
	}
	boundary := NewBoundary(keywords)
	header := boundary.HeaderText(page)
	s.logger.Debug("extract.header.segmented",
		"req_id", rid,
		"keywords", len(keywords),
		"boundary_empty", boundary.Empty(),
		"page_len", len(page),
		"header_len", len(header),
	)

	var res HeaderResult
	content, err := s.complete(ctx, llm.BuildPayload(s.cfg.Model, instruction, header, s.cfg.MaxTokens))
	if raw, ok := common.MalformedBody(err); ok {
		res = rawHeader(raw, err)
	} else if err != nil {
		return HeaderResult{}, s.fail(rid, "header", err)
	} else {
		res = FormatHeader(content)
	}
	if res.FormatErr != nil {
		s.logger.Warn("extract.header.unformatted", "req_id", rid, "error", res.FormatErr)
	}
	s.logger.Info("extract.header.ok",
		"req_id", rid,
		"state", constants.StateSuccess,
		"kind", res.Kind.String(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// ExtractItems sends every page, chunked, to the model and returns the replies
// in page order. Keywords are accepted for symmetry with ExtractHeader but do
// not filter item text. The first failing chunk cancels the rest.
func (s *Service) ExtractItems(ctx context.Context, doc pdftext.Document, keywords []string, instruction string) (ItemsResult, error) {
	ctx, rid := s.begin(ctx, "items")
	start := time.Now()

	if strings.TrimSpace(instruction) == "" {
		return ItemsResult{}, s.fail(rid, "items", common.InvalidInput("instruction is required"))
	}
	if doc == nil || doc.PageCount() == 0 {
		return ItemsResult{}, s.fail(rid, "items", common.DocumentError("document has no pages", nil))
	}

	chunks := PlanChunks(doc.PageCount(), s.cfg.PagesPerChunk)
	s.logger.Info("extract.items.planned",
		"req_id", rid,
		"pages", doc.PageCount(),
		"pages_per_chunk", s.cfg.PagesPerChunk,
		"chunks", len(chunks),
		"concurrency", s.cfg.Concurrency,
		"keywords_ignored", len(keywords),
	)

	results := make([]ChunkResult, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, c := range chunks {
		g.Go(func() error {
			text, err := chunkText(gctx, doc, c)
			if err != nil {
				return err
			}
			content, err := s.complete(gctx, llm.BuildPayload(s.cfg.Model, instruction, text, s.cfg.MaxTokens))
			if err != nil {
				s.logger.Error("extract.items.chunk_error", "req_id", rid, "chunk", c.Index, "error", err)
				return err
			}
			results[c.Index] = ChunkResult{
				Index:     c.Index,
				FirstPage: c.FirstPage,
				LastPage:  c.LastPage,
				Content:   content,
			}
			s.logger.Debug("extract.items.chunk_ok",
				"req_id", rid,
				"chunk", c.Index,
				"first_page", c.FirstPage,
				"last_page", c.LastPage,
				"content_len", len(content),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ItemsResult{}, s.fail(rid, "items", err)
	}

	s.logger.Info("extract.items.ok",
		"req_id", rid,
		"state", constants.StateSuccess,
		"chunks", len(results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return ItemsResult{Chunks: results}, nil
}

func chunkText(ctx context.Context, doc pdftext.Document, c Chunk) (string, error) {
	var sb strings.Builder
	for i := c.FirstPage; i <= c.LastPage; i++ {
		page, err := doc.PageText(ctx, i)
		if err != nil {
			return "", asDocumentError(ctx, err)
		}
		sb.WriteString(page)
	}
	return sb.String(), nil
}

func (s *Service) complete(ctx context.Context, p llm.Payload) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			// the wait would outlast the deadline
			return "", errors.Join(context.DeadlineExceeded, err)
		}
	}
	return s.completer.Complete(ctx, p)
}

func (s *Service) begin(ctx context.Context, op string) (context.Context, string) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}
	s.logger.Debug("extract.state", "req_id", rid, "op", op, "state", constants.StateInit)
	return ctx, rid
}

func (s *Service) fail(rid, op string, err error) error {
	s.logger.Error("extract."+op+".failed",
		"req_id", rid,
		"state", TerminalState(err),
		"error", err,
	)
	return err
}

// TerminalState maps an extraction error to the state the call ended in.
func TerminalState(err error) constants.ExtractionState {
	switch {
	case err == nil:
		return constants.StateSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return constants.StateCanceled
	case errors.Is(err, common.ErrAuth):
		return constants.StateAuthFailed
	case errors.Is(err, common.ErrDocument), errors.Is(err, common.ErrInvalidInput):
		return constants.StateDocFailed
	default:
		return constants.StateAPIFailed
	}
}

func asDocumentError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, common.ErrDocument) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return common.DocumentError("read page text", err)
}
