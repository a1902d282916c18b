package audit

import (
	"bytes"
	"encoding/csv"
	"time"
)

// Exporter menulis audit timeline ke CSV.
type Exporter struct{}

// NewExporter returns an Exporter.
func NewExporter() *Exporter { return &Exporter{} }

var csvHeader = []string{"id", "performed_at", "model", "action", "record_id", "performed_by_user_id", "before", "after"}

// WriteCSV encodes entries with one header row.
func (e *Exporter) WriteCSV(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		record := []string{
			entry.ID,
			entry.PerformedAt.UTC().Format(time.RFC3339),
			entry.Model,
			string(entry.Action),
			deref(entry.RecordID),
			deref(entry.PerformedByUserID),
			string(entry.Before),
			string(entry.After),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
