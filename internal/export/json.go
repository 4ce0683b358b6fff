package export

import (
	"encoding/json"
	"time"

	"github.com/joseph-ayodele/po-extractor/internal/extract"
)

type jsonHeader struct {
	Formatted bool            `json:"formatted"`
	Text      string          `json:"text"`
	Content   string          `json:"content"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

type jsonChunk struct {
	Index     int    `json:"index"`
	FirstPage int    `json:"first_page"`
	LastPage  int    `json:"last_page"`
	Content   string `json:"content"`
}

type jsonItems struct {
	Text   string      `json:"text"`
	Chunks []jsonChunk `json:"chunks"`
}

type jsonReport struct {
	Source      string      `json:"source"`
	GeneratedAt time.Time   `json:"generated_at"`
	Header      *jsonHeader `json:"header,omitempty"`
	Items       *jsonItems  `json:"items,omitempty"`
}

// ExportJSON renders the report as indented JSON.
func (s *Service) ExportJSON(r Report) ([]byte, error) {
	out := jsonReport{Source: r.Source, GeneratedAt: r.GeneratedAt.UTC()}
	if r.Header != nil {
		h := &jsonHeader{
			Formatted: r.Header.Formatted(),
			Text:      r.Header.Text,
			Content:   r.Header.Content,
			Data:      r.Header.JSON(),
		}
		if r.Header.FormatErr != nil {
			h.Error = r.Header.FormatErr.Error()
		}
		out.Header = h
	}
	if r.Items != nil {
		items := &jsonItems{Text: r.Items.Text(), Chunks: make([]jsonChunk, 0, len(r.Items.Chunks))}
		for _, c := range r.Items.Chunks {
			items.Chunks = append(items.Chunks, jsonChunk(c))
		}
		out.Items = items
	}
	return json.MarshalIndent(out, "", "  ")
}

// ReportFor assembles a report stamped with the current time.
func ReportFor(source string, header *extract.HeaderResult, items *extract.ItemsResult) Report {
	return Report{Source: source, GeneratedAt: time.Now(), Header: header, Items: items}
}
