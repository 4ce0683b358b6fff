package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/po-extractor/internal/common"
)

// NativeDocument reads the embedded text layer in-process. Scanned,
// image-only pages yield empty text.
type NativeDocument struct {
	file   *os.File
	reader *pdf.Reader

	mu    sync.Mutex
	fonts map[string]*pdf.Font
}

// Open parses the PDF at path. The file stays open until Close.
func Open(path string) (doc *NativeDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, common.DocumentError("unreadable pdf "+path, fmt.Errorf("%v", r))
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, common.DocumentError("open pdf "+path, err)
	}
	return &NativeDocument{file: f, reader: r, fonts: map[string]*pdf.Font{}}, nil
}

// FromBytes parses a PDF held in memory.
func FromBytes(data []byte) (doc *NativeDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, common.DocumentError("unreadable pdf", fmt.Errorf("%v", r))
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, common.DocumentError("parse pdf", err)
	}
	return &NativeDocument{reader: r, fonts: map[string]*pdf.Font{}}, nil
}

func (d *NativeDocument) PageCount() int {
	return d.reader.NumPage()
}

func (d *NativeDocument) PageText(ctx context.Context, index int) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n := d.PageCount()
	if index < 0 || index >= n {
		return "", pageRangeError(index, n)
	}

	// the reader and font cache are not safe for concurrent use
	d.mu.Lock()
	defer d.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			text, err = "", common.DocumentError(fmt.Sprintf("read page %d", index), fmt.Errorf("%v", r))
		}
	}()

	p := d.reader.Page(index + 1)
	if p.V.IsNull() {
		return "", nil
	}
	for _, name := range p.Fonts() {
		if _, ok := d.fonts[name]; !ok {
			f := p.Font(name)
			d.fonts[name] = &f
		}
	}
	text, err = p.GetPlainText(d.fonts)
	if err != nil {
		return "", common.DocumentError(fmt.Sprintf("read page %d", index), err)
	}
	return text, nil
}

func (d *NativeDocument) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}
