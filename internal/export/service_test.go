package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/po-extractor/internal/extract"
)

func sampleReport() Report {
	header := extract.FormatHeader(`{"po_number":"4711","vendor":{"name":"ACME"}}`)
	items := extract.ItemsResult{Chunks: []extract.ChunkResult{
		{Index: 0, FirstPage: 0, LastPage: 2, Content: `[{"qty":2,"description":"Widget"}]`},
		{Index: 1, FirstPage: 3, LastPage: 3, Content: "```json\n{\"items\":[{\"qty\":1,\"sku\":\"B-1\"}]}\n```"},
		{Index: 2, FirstPage: 4, LastPage: 4, Content: "no items on these pages"},
	}}
	return Report{
		Source:      "po.pdf",
		GeneratedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Header:      &header,
		Items:       &items,
	}
}

func TestExportXLSX(t *testing.T) {
	data, err := NewService(nil).ExportXLSX(sampleReport())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Header", "Items", "Chunks"}, f.GetSheetList())

	header, err := f.GetRows("Header")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Field", "Value"},
		{"source", "po.pdf"},
		{"po_number", "4711"},
		{"vendor", `{"name":"ACME"}`},
	}, header)

	items, err := f.GetRows("Items")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"chunk", "description", "qty", "sku"}, items[0])
	assert.Equal(t, []string{"0", "Widget", "2"}, items[1])
	assert.Equal(t, []string{"1", "", "1", "B-1"}, items[2])

	chunks, err := f.GetRows("Chunks")
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	assert.Equal(t, []string{"1", "4", "4", "```json\n{\"items\":[{\"qty\":1,\"sku\":\"B-1\"}]}\n```"}, chunks[2])
}

func TestExportXLSX_RawHeader(t *testing.T) {
	header := extract.FormatHeader("PO 4711")
	data, err := NewService(nil).ExportXLSX(Report{Source: "x.pdf", Header: &header})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Header")
	require.NoError(t, err)
	assert.Equal(t, []string{"content", "PO 4711"}, rows[2])
}

func TestExportJSON(t *testing.T) {
	data, err := NewService(nil).ExportJSON(sampleReport())
	require.NoError(t, err)

	var out struct {
		Source string `json:"source"`
		Header struct {
			Formatted bool            `json:"formatted"`
			Data      json.RawMessage `json:"data"`
		} `json:"header"`
		Items struct {
			Text   string `json:"text"`
			Chunks []struct {
				Index     int `json:"index"`
				FirstPage int `json:"first_page"`
				LastPage  int `json:"last_page"`
			} `json:"chunks"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "po.pdf", out.Source)
	assert.True(t, out.Header.Formatted)
	assert.JSONEq(t, `{"po_number":"4711","vendor":{"name":"ACME"}}`, string(out.Header.Data))
	require.Len(t, out.Items.Chunks, 3)
	assert.Equal(t, 3, out.Items.Chunks[1].FirstPage)
	assert.Contains(t, out.Items.Text, "no items on these pages")
}

func TestExportJSON_RawHeaderCarriesError(t *testing.T) {
	header := extract.FormatHeader("nope")
	data, err := NewService(nil).ExportJSON(Report{Source: "x", Header: &header})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"formatted": false`)
	assert.Contains(t, string(data), `"error": "FORMAT_ERROR`)
	assert.NotContains(t, string(data), `"items"`)
}
