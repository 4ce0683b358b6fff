package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/po-extractor/internal/extract"
	"github.com/joseph-ayodele/po-extractor/internal/llm"
)

// Report is the outcome of running both extractions over one document.
type Report struct {
	Source      string
	GeneratedAt time.Time
	Header      *extract.HeaderResult
	Items       *extract.ItemsResult
}

// Service renders reports as XLSX workbooks or JSON documents.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportXLSX returns an XLSX workbook (as bytes) with Header, Items and Chunks sheets.
func (s *Service) ExportXLSX(r Report) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()

	if err := writeHeaderSheet(f, r); err != nil {
		return nil, err
	}
	itemRows, err := writeItemsSheet(f, r)
	if err != nil {
		return nil, err
	}
	if err := writeChunksSheet(f, r); err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	if idx, err := f.GetSheetIndex("Header"); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"source", r.Source,
		"item_rows", itemRows,
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func newSheet(f *excelize.File, name string, headers ...string) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(name, cell, h); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	return f.SetSheetRow(sheet, cell, &values)
}

func writeHeaderSheet(f *excelize.File, r Report) error {
	const sheet = "Header"
	if err := newSheet(f, sheet, "Field", "Value"); err != nil {
		return err
	}
	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "B", "B", 60)

	row := 2
	if err := setRow(f, sheet, row, "source", r.Source); err != nil {
		return err
	}
	row++
	if r.Header == nil {
		return nil
	}

	var fields map[string]json.RawMessage
	if raw := r.Header.JSON(); raw != nil && json.Unmarshal(raw, &fields) == nil {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := setRow(f, sheet, row, k, cellValue(fields[k])); err != nil {
				return err
			}
			row++
		}
		return nil
	}
	// raw reply or a JSON value that is not an object
	return setRow(f, sheet, row, "content", truncate(r.Header.Content, 32000))
}

// writeItemsSheet flattens chunk replies that are JSON arrays of objects (or an
// object holding one such array) into one row per item. Other replies are skipped.
func writeItemsSheet(f *excelize.File, r Report) (int, error) {
	const sheet = "Items"
	if r.Items == nil {
		return 0, newSheet(f, sheet, "chunk")
	}

	type item struct {
		chunk  int
		fields map[string]json.RawMessage
	}
	var items []item
	colSet := map[string]bool{}
	for _, c := range r.Items.Chunks {
		for _, obj := range itemObjects(c.Content) {
			items = append(items, item{chunk: c.Index, fields: obj})
			for k := range obj {
				colSet[k] = true
			}
		}
	}
	cols := make([]string, 0, len(colSet))
	for k := range colSet {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	if err := newSheet(f, sheet, append([]string{"chunk"}, cols...)...); err != nil {
		return 0, err
	}
	for i, it := range items {
		values := make([]any, 0, len(cols)+1)
		values = append(values, it.chunk)
		for _, c := range cols {
			values = append(values, cellValue(it.fields[c]))
		}
		if err := setRow(f, sheet, i+2, values...); err != nil {
			return 0, err
		}
	}
	return len(items), nil
}

func writeChunksSheet(f *excelize.File, r Report) error {
	const sheet = "Chunks"
	if err := newSheet(f, sheet, "Chunk", "First Page", "Last Page", "Content"); err != nil {
		return err
	}
	_ = f.SetColWidth(sheet, "D", "D", 80)
	if r.Items == nil {
		return nil
	}
	for i, c := range r.Items.Chunks {
		// pages are shown 1-based
		if err := setRow(f, sheet, i+2, c.Index, c.FirstPage+1, c.LastPage+1, truncate(c.Content, 32000)); err != nil {
			return err
		}
	}
	return nil
}

func itemObjects(content string) []map[string]json.RawMessage {
	body := []byte(llm.StripCodeFence(content))

	var list []map[string]json.RawMessage
	if json.Unmarshal(body, &list) == nil {
		return list
	}
	var wrapper map[string]json.RawMessage
	if json.Unmarshal(body, &wrapper) != nil {
		return nil
	}
	for _, v := range wrapper {
		if json.Unmarshal(v, &list) == nil && len(list) > 0 {
			return list
		}
	}
	return nil
}

// cellValue unwraps JSON scalars; objects and arrays are kept as compact JSON text.
func cellValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	switch t := v.(type) {
	case nil:
		return ""
	case string, float64, bool:
		return t
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return string(raw)
		}
		return buf.String()
	}
}

// excel caps cells at 32767 characters
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
