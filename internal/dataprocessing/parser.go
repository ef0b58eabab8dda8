package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "dapodiksync/internal/errors"
)

const utf8BOM = "\ufeff"

// SupportedExtensions are the lower-case upload extensions ReadUpload can parse.
// Legacy BIFF .xls workbooks are not among them.
var SupportedExtensions = []string{".xlsx", ".xlsm", ".csv"}

// Table is one uploaded sheet as text cells. Rows are padded to the header width.
type Table struct {
	Source string
	Sheet  string
	Header []string
	Rows   [][]string
	// RowNumbers holds the 1-based spreadsheet row of each entry in Rows.
	RowNumbers []int
}

// Column returns the index of the named header, matched trimmed and case-insensitively, or -1.
func (t *Table) Column(name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range t.Header {
		if strings.ToLower(h) == want {
			return i
		}
	}
	return -1
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ReadUpload dispatches on the file extension of name.
func ReadUpload(name string, data []byte, sheet string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return ReadWorkbook(bytes.NewReader(data), name, sheet)
	case ".csv":
		return ReadCSV(bytes.NewReader(data), name)
	default:
		return nil, apperrors.NewParsingError(fmt.Sprintf("%s: unsupported file type", name), nil).
			WithContext("file", name)
	}
}

// ReadWorkbook reads one sheet of an xlsx workbook. The first non-empty row is the header.
func ReadWorkbook(r io.Reader, name, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("%s: failed to open workbook", name), err).
			WithContext("file", name)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		return nil, apperrors.NewMissingSheetError(name, sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("%s: failed to read sheet %q", name, sheet), err).
			WithContext("file", name)
	}

	numbers := make([]int, len(rows))
	for i := range rows {
		numbers[i] = i + 1
	}

	t := buildTable(name, sheet, rows, numbers)
	slog.Debug("Workbook read",
		slog.String("file", name),
		slog.String("sheet", sheet),
		slog.Int("rows", t.Len()))
	return t, nil
}

// ReadCSV reads a comma separated extract. A leading UTF-8 BOM is ignored.
func ReadCSV(r io.Reader, name string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	var numbers []int
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("%s: failed to read csv", name), err).
				WithContext("file", name)
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, record)
		numbers = append(numbers, line)
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], utf8BOM)
	}

	return buildTable(name, "", rows, numbers), nil
}

func buildTable(name, sheet string, rows [][]string, numbers []int) *Table {
	t := &Table{Source: name, Sheet: sheet}

	start := -1
	for i, row := range rows {
		if !isBlank(row) {
			start = i
			break
		}
	}
	if start == -1 {
		return t
	}

	t.Header = make([]string, len(rows[start]))
	for i, h := range rows[start] {
		t.Header[i] = strings.TrimSpace(h)
	}

	for i := start + 1; i < len(rows); i++ {
		if isBlank(rows[i]) {
			continue
		}
		row := rows[i]
		if len(row) < len(t.Header) {
			padded := make([]string, len(t.Header))
			copy(padded, row)
			row = padded
		}
		t.Rows = append(t.Rows, row)
		t.RowNumbers = append(t.RowNumbers, numbers[i])
	}
	return t
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
