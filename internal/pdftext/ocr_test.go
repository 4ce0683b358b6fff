package pdftext

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/po-extractor/internal/common"
)

// scriptRunner answers by binary name and records every invocation.
type scriptRunner struct {
	out   map[string]string
	fail  map[string]error
	calls [][]string
}

func (s *scriptRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	if err := s.fail[name]; err != nil {
		return nil, []byte("cannot open file"), err
	}
	return []byte(s.out[name]), nil, nil
}

func stubOCR(r Runner, pages int) *OCR {
	o := NewOCR(OCRConfig{PSM: 6}, nil)
	o.runner = r
	o.countPages = func(string) (int, error) { return pages, nil }
	return o
}

func TestNormalize(t *testing.T) {
	in := "Purchase  Order\r\n\tPO 4711   \n-----\n\n\n\nQty\tItem"
	assert.Equal(t, "Purchase Order\n PO 4711\n\nQty Item\n", Normalize(in))
	assert.Equal(t, "", Normalize(""))
}

func TestOCR_RendersPagesLazily(t *testing.T) {
	r := &scriptRunner{out: map[string]string{"tesseract": "PO  4711\n"}}
	doc, err := stubOCR(r, 3).Open(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, 3, doc.PageCount())
	assert.Empty(t, r.calls)

	txt, err := doc.PageText(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "PO 4711\n", txt)
	require.Len(t, r.calls, 2)

	ppm := strings.Join(r.calls[0], " ")
	assert.Contains(t, ppm, "pdftoppm -r 300 -png -f 2 -l 2 -singlefile scan.pdf")
	tess := r.calls[1]
	assert.Equal(t, "tesseract", tess[0])
	assert.True(t, strings.HasSuffix(tess[1], "page.png"))
	assert.Contains(t, strings.Join(tess, " "), "-l eng --psm 6")

	// cached
	_, err = doc.PageText(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, r.calls, 2)

	_, err = doc.PageText(context.Background(), 3)
	assert.ErrorIs(t, err, common.ErrDocument)
}

func TestOCR_ToolFailure(t *testing.T) {
	r := &scriptRunner{fail: map[string]error{"pdftoppm": errors.New("exit status 1")}}
	doc, err := stubOCR(r, 1).Open(context.Background(), "scan.pdf")
	require.NoError(t, err)

	_, err = doc.PageText(context.Background(), 0)
	assert.ErrorIs(t, err, common.ErrDocument)
	assert.Contains(t, err.Error(), "cannot open file")
}

func TestOCR_CanceledRunIsNotDocumentError(t *testing.T) {
	r := &scriptRunner{fail: map[string]error{"tesseract": errors.New("signal: killed")}}
	doc, err := stubOCR(r, 1).Open(context.Background(), "scan.pdf")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = doc.PageText(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, common.ErrDocument)
}

func TestOCRFallback_OnlyForBlankPages(t *testing.T) {
	r := &scriptRunner{out: map[string]string{"tesseract": "scanned text"}}
	doc := withOCRFallback{
		Document: Pages{"Purchase Order\n", " \n\n"},
		ocr:      stubOCR(r, 2),
		path:     "mixed.pdf",
		logger:   stubOCR(r, 2).logger,
	}

	txt, err := doc.PageText(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "Purchase Order\n", txt)
	assert.Empty(t, r.calls)

	txt, err = doc.PageText(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "scanned text\n", txt)
	assert.Len(t, r.calls, 2)
}
