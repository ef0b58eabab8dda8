package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"dapodiksync/internal/report"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes report tables as CSV files under one directory.
type CSVWriter struct {
	dir    string
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(dir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{dir: dir, logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteTable writes t to <dir>/<t.ID>.csv and returns the path.
func (w *CSVWriter) WriteTable(t *report.Table) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(w.dir, t.ID+".csv")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if err := WriteTableCSV(file, t); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}

	w.logger.Info("Wrote CSV table",
		slog.String("table", t.ID),
		slog.String("path", path),
		slog.Int("rows", len(t.Rows)))
	return path, nil
}

// WriteTableCSV writes a BOM, the header and every row including TOTAL.
func WriteTableCSV(out io.Writer, t *report.Table) error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", t.ID)
	}
	if _, err := out.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	numeric := t.NumericColumns()
	for i, row := range t.Rows {
		record := make([]string, 0, len(t.Columns))
		record = append(record, row.Label)
		for c, v := range row.Values {
			record = append(record, Plain(numeric[c].Kind, v))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
