package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/po-extractor/internal/common"
	"github.com/joseph-ayodele/po-extractor/internal/extract"
	"github.com/joseph-ayodele/po-extractor/internal/llm"
	"github.com/joseph-ayodele/po-extractor/internal/pdftext"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, completer llm.Completer, pages pdftext.Pages) *ExtractorClient {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "po.pdf"), []byte("%PDF-1.4\n"), 0o644))

	logger := discardLogger()
	svc := extract.NewService(extract.Config{PagesPerChunk: 3}, completer, logger)
	open := func(context.Context, string) (pdftext.Document, error) { return pages, nil }

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(grpc.UnaryInterceptor(UnaryLogging(logger)))
	RegisterExtractorServer(s, NewExtractorService(svc, NewDocumentStore(dir), open, logger))
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewExtractorClient(conn)
}

func request(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	in, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return in
}

func TestExtractHeaderOverGRPC(t *testing.T) {
	pages := pdftext.Pages{"PO 4711\nVendor: Acme\nQty Description\n1 Widget\n"}
	completer := llm.CompleterFunc(func(_ context.Context, p llm.Payload) (string, error) {
		assert.Equal(t, "PO 4711\nVendor: Acme\n", p.Body)
		assert.Equal(t, "Extract the header. ", p.Instruction)
		return `{"po_number": "4711", "vendor": "Acme"}`, nil
	})
	client := newTestClient(t, completer, pages)

	out, err := client.ExtractHeader(context.Background(), request(t, map[string]any{
		"document_id": "po.pdf",
		"keywords":    []any{"Qty"},
		"prompt":      "Extract the header. ",
	}))
	require.NoError(t, err)

	fields := out.GetFields()
	assert.True(t, fields["formatted"].GetBoolValue())
	assert.Equal(t,
		"Extracted Header Information:\n\n{\n    \"po_number\": \"4711\",\n    \"vendor\": \"Acme\"\n}",
		fields["header_info"].GetStringValue())
}

func TestExtractHeaderUnformattedContent(t *testing.T) {
	completer := llm.CompleterFunc(func(context.Context, llm.Payload) (string, error) {
		return "not json", nil
	})
	client := newTestClient(t, completer, pdftext.Pages{"PO 1\n"})

	out, err := client.ExtractHeader(context.Background(), request(t, map[string]any{
		"document_id": "po.pdf",
		"prompt":      "header",
	}))
	require.NoError(t, err)
	assert.False(t, out.GetFields()["formatted"].GetBoolValue())
	assert.Contains(t, out.GetFields()["header_info"].GetStringValue(), "Original Content:\nnot json")
}

func TestExtractItemsOverGRPC(t *testing.T) {
	completer := llm.CompleterFunc(func(_ context.Context, p llm.Payload) (string, error) {
		return "[" + p.Body + "]", nil
	})
	client := newTestClient(t, completer, pdftext.Pages{"a", "b", "c", "d"})

	out, err := client.ExtractItems(context.Background(), request(t, map[string]any{
		"document_id": "po.pdf",
		"keywords":    []any{"Qty"},
		"prompt":      "items",
	}))
	require.NoError(t, err)

	fields := out.GetFields()
	assert.Equal(t, "[abc][d]", fields["item_info"].GetStringValue())

	chunks := fields["chunks"].GetListValue().GetValues()
	require.Len(t, chunks, 2)
	second := chunks[1].GetStructValue().GetFields()
	assert.Equal(t, float64(1), second["index"].GetNumberValue())
	assert.Equal(t, float64(4), second["first_page"].GetNumberValue())
	assert.Equal(t, float64(4), second["last_page"].GetNumberValue())
	assert.Equal(t, "[d]", second["content"].GetStringValue())
}

func TestExtractStatusCodes(t *testing.T) {
	ok := llm.CompleterFunc(func(context.Context, llm.Payload) (string, error) { return "{}", nil })

	tests := []struct {
		name      string
		completer llm.Completer
		fields    map[string]any
		want      codes.Code
	}{
		{
			name:      "missing document",
			completer: ok,
			fields:    map[string]any{"document_id": "other.pdf", "prompt": "p"},
			want:      codes.NotFound,
		},
		{
			name:      "path outside store",
			completer: ok,
			fields:    map[string]any{"document_id": "../po.pdf", "prompt": "p"},
			want:      codes.InvalidArgument,
		},
		{
			name:      "unsupported extension",
			completer: ok,
			fields:    map[string]any{"document_id": "po.txt", "prompt": "p"},
			want:      codes.InvalidArgument,
		},
		{
			name:      "missing prompt",
			completer: ok,
			fields:    map[string]any{"document_id": "po.pdf"},
			want:      codes.InvalidArgument,
		},
		{
			name:      "non-string keyword",
			completer: ok,
			fields:    map[string]any{"document_id": "po.pdf", "prompt": "p", "keywords": []any{1}},
			want:      codes.InvalidArgument,
		},
		{
			name:      "blank keyword",
			completer: ok,
			fields:    map[string]any{"document_id": "po.pdf", "prompt": "p", "keywords": []any{" "}},
			want:      codes.InvalidArgument,
		},
		{
			name: "auth failure",
			completer: llm.CompleterFunc(func(context.Context, llm.Payload) (string, error) {
				return "", common.AuthError("token endpoint returned 401", nil)
			}),
			fields: map[string]any{"document_id": "po.pdf", "prompt": "p"},
			want:   codes.Unauthenticated,
		},
		{
			name: "api unreachable",
			completer: llm.CompleterFunc(func(context.Context, llm.Payload) (string, error) {
				return "", common.APIError("API_UNREACHABLE", "completion request failed", common.ErrAPIUnreachable, nil)
			}),
			fields: map[string]any{"document_id": "po.pdf", "prompt": "p"},
			want:   codes.Unavailable,
		},
		{
			name: "api status",
			completer: llm.CompleterFunc(func(context.Context, llm.Payload) (string, error) {
				return "", common.APIError("API_STATUS", "completion endpoint returned 500", nil, nil)
			}),
			fields: map[string]any{"document_id": "po.pdf", "prompt": "p"},
			want:   codes.Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.completer, pdftext.Pages{"PO 1\n"})
			_, err := client.ExtractHeader(context.Background(), request(t, tt.fields))
			require.Error(t, err)
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}

func TestDocumentStoreResolve(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.PDF"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))
	store := NewDocumentStore(dir)

	path, err := store.Resolve("a.PDF")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.PDF"), path)

	_, err = store.Resolve("missing.pdf")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.Resolve("sub.pdf")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = store.Resolve("")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
