package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/po-extractor/internal/common"
	"github.com/joseph-ayodele/po-extractor/internal/extract"
	"github.com/joseph-ayodele/po-extractor/internal/pdftext"
)

// Extractor runs the two extraction operations over an opened document.
type Extractor interface {
	ExtractHeader(ctx context.Context, doc pdftext.Document, keywords []string, instruction string) (extract.HeaderResult, error)
	ExtractItems(ctx context.Context, doc pdftext.Document, keywords []string, instruction string) (extract.ItemsResult, error)
}

// ExtractorService implements ExtractorServer.
type ExtractorService struct {
	extractor Extractor
	store     *DocumentStore
	open      pdftext.Opener
	logger    *slog.Logger
}

func NewExtractorService(extractor Extractor, store *DocumentStore, open pdftext.Opener, logger *slog.Logger) *ExtractorService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractorService{
		extractor: extractor,
		store:     store,
		open:      open,
		logger:    logger,
	}
}

type extractRequest struct {
	DocumentID string
	Keywords   []string
	Prompt     string
}

func parseRequest(in *structpb.Struct) (extractRequest, error) {
	fields := in.GetFields()
	req := extractRequest{
		DocumentID: fields["document_id"].GetStringValue(),
		Prompt:     fields["prompt"].GetStringValue(),
	}
	if kw, ok := fields["keywords"]; ok {
		list := kw.GetListValue()
		if list == nil {
			return req, common.InvalidInput("keywords must be a list of strings")
		}
		for i, v := range list.GetValues() {
			s, ok := v.GetKind().(*structpb.Value_StringValue)
			if !ok {
				return req, common.InvalidInput(fmt.Sprintf("keywords[%d] must be a string", i))
			}
			req.Keywords = append(req.Keywords, s.StringValue)
		}
	}

	v := common.NewValidator().
		Field("document_id", req.DocumentID, common.Required, common.DocumentID).
		Field("prompt", req.Prompt, common.Required).
		Field("keywords", req.Keywords, common.NoBlankEntries)
	if err := v.Error(); err != nil {
		return req, err
	}
	return req, nil
}

func (s *ExtractorService) ExtractHeader(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ctx, rid := withRequestID(ctx)
	start := time.Now()

	req, doc, err := s.prepare(ctx, in)
	if err != nil {
		return nil, s.fail(rid, "ExtractHeader", err)
	}
	defer doc.Close()

	res, err := s.extractor.ExtractHeader(ctx, doc, req.Keywords, req.Prompt)
	if err != nil {
		return nil, s.fail(rid, "ExtractHeader", err)
	}

	out, err := structpb.NewStruct(map[string]any{
		"header_info": res.Text,
		"formatted":   res.Formatted(),
	})
	if err != nil {
		return nil, s.fail(rid, "ExtractHeader", err)
	}
	s.logger.Info("grpc.extract_header.ok",
		"req_id", rid,
		"document_id", req.DocumentID,
		"formatted", res.Formatted(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (s *ExtractorService) ExtractItems(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ctx, rid := withRequestID(ctx)
	start := time.Now()

	req, doc, err := s.prepare(ctx, in)
	if err != nil {
		return nil, s.fail(rid, "ExtractItems", err)
	}
	defer doc.Close()

	res, err := s.extractor.ExtractItems(ctx, doc, req.Keywords, req.Prompt)
	if err != nil {
		return nil, s.fail(rid, "ExtractItems", err)
	}

	chunks := make([]any, 0, len(res.Chunks))
	for _, c := range res.Chunks {
		chunks = append(chunks, map[string]any{
			"index":      c.Index,
			"first_page": c.FirstPage + 1,
			"last_page":  c.LastPage + 1,
			"content":    c.Content,
		})
	}
	out, err := structpb.NewStruct(map[string]any{
		"item_info": res.Text(),
		"chunks":    chunks,
	})
	if err != nil {
		return nil, s.fail(rid, "ExtractItems", err)
	}
	s.logger.Info("grpc.extract_items.ok",
		"req_id", rid,
		"document_id", req.DocumentID,
		"chunks", len(res.Chunks),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (s *ExtractorService) prepare(ctx context.Context, in *structpb.Struct) (extractRequest, pdftext.Document, error) {
	req, err := parseRequest(in)
	if err != nil {
		return req, nil, err
	}
	path, err := s.store.Resolve(req.DocumentID)
	if err != nil {
		return req, nil, err
	}
	doc, err := s.open(common.WithDocumentID(ctx, req.DocumentID), path)
	if err != nil {
		return req, nil, err
	}
	return req, doc, nil
}

func (s *ExtractorService) fail(rid, method string, err error) error {
	s.logger.Error("grpc.request.failed",
		"req_id", rid,
		"method", method,
		"state", extract.TerminalState(err),
		"error", err,
	)
	return common.GRPCStatus(err)
}

func withRequestID(ctx context.Context) (context.Context, string) {
	if rid := common.RequestIDFromContext(ctx); rid != "" {
		return ctx, rid
	}
	rid := uuid.New().String()
	return common.WithRequestID(ctx, rid), rid
}
