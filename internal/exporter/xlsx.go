package exporter

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"dapodiksync/internal/report"
)

const (
	headerFill = "1F4E78"
	totalFill  = "FFF2CC"

	// Built-in excelize number formats.
	numFmtInteger = 3  // #,##0
	numFmtFloat   = 4  // #,##0.00
	numFmtPercent = 10 // 0.00%

	// tableGap is the number of empty rows between stacked tables.
	tableGap = 4
	// widthMargin is added to the longest rendered string of a column.
	widthMargin = 3
)

// WorkbookWriter renders a bundle into an xlsx workbook, one sheet per section.
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger.With(slog.String("component", "xlsx_writer"))}
}

type cellStyles struct {
	title   int
	header  int
	label   int
	integer int
	float   int
	percent int

	totalLabel   int
	totalInteger int
	totalFloat   int
	totalPercent int
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

func newCellStyles(f *excelize.File) (*cellStyles, error) {
	s := &cellStyles{}
	type spec struct {
		dst   *int
		style *excelize.Style
	}

	body := func(align string, numFmt int, total bool) *excelize.Style {
		st := &excelize.Style{
			Border:    thinBorder(),
			Alignment: &excelize.Alignment{Horizontal: align, Vertical: "center"},
			NumFmt:    numFmt,
		}
		if total {
			st.Font = &excelize.Font{Bold: true}
			st.Fill = excelize.Fill{Type: "pattern", Color: []string{totalFill}, Pattern: 1}
		}
		return st
	}

	specs := []spec{
		{&s.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}},
		{&s.header, &excelize.Style{
			Border:    thinBorder(),
			Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		}},
		{&s.label, body("left", 0, false)},
		{&s.integer, body("right", numFmtInteger, false)},
		{&s.float, body("right", numFmtFloat, false)},
		{&s.percent, body("right", numFmtPercent, false)},
		{&s.totalLabel, body("left", 0, true)},
		{&s.totalInteger, body("right", numFmtInteger, true)},
		{&s.totalFloat, body("right", numFmtFloat, true)},
		{&s.totalPercent, body("right", numFmtPercent, true)},
	}
	for _, sp := range specs {
		id, err := f.NewStyle(sp.style)
		if err != nil {
			return nil, fmt.Errorf("failed to create style: %w", err)
		}
		*sp.dst = id
	}
	return s, nil
}

func (s *cellStyles) forColumn(c report.Column, total bool) int {
	switch {
	case c.Kind == report.KindLabel && total:
		return s.totalLabel
	case c.Kind == report.KindLabel:
		return s.label
	case c.Kind == report.KindFloat && IsPercentColumn(c.Name) && total:
		return s.totalPercent
	case c.Kind == report.KindFloat && IsPercentColumn(c.Name):
		return s.percent
	case c.Kind == report.KindFloat && total:
		return s.totalFloat
	case c.Kind == report.KindFloat:
		return s.float
	case total:
		return s.totalInteger
	default:
		return s.integer
	}
}

// Write renders b and returns the complete workbook.
func (w *WorkbookWriter) Write(b *report.Bundle) ([]byte, error) {
	if len(b.Sections) == 0 {
		return nil, fmt.Errorf("bundle has no sections")
	}

	f := excelize.NewFile()
	defer f.Close()

	styles, err := newCellStyles(f)
	if err != nil {
		return nil, err
	}
	format := NewFormatter()

	defaultSheet := f.GetSheetName(0)
	for _, section := range b.Sections {
		if _, err := f.NewSheet(section.Name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", section.Name, err)
		}

		row := 1
		for _, t := range section.Tables {
			next, err := writeTable(f, section.Name, t, row, styles, format)
			if err != nil {
				return nil, fmt.Errorf("sheet %s: %w", section.Name, err)
			}
			row = next
		}
	}

	if defaultSheet != b.Sections[0].Name {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return nil, fmt.Errorf("failed to remove default sheet: %w", err)
		}
	}
	if idx, err := f.GetSheetIndex(b.Sections[0].Name); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	w.logger.Debug("Workbook rendered",
		slog.Int("sheets", len(b.Sections)),
		slog.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// writeTable writes title, header and rows starting at startRow and returns the first row of the next table.
func writeTable(f *excelize.File, sheet string, t *report.Table, startRow int, styles *cellStyles, format *Formatter) (int, error) {
	n := len(t.Columns)
	if n == 0 {
		return 0, fmt.Errorf("table %s has no columns", t.ID)
	}
	lastCol, err := excelize.ColumnNumberToName(n)
	if err != nil {
		return 0, err
	}

	titleCell := cellName(1, startRow)
	if err := f.SetCellValue(sheet, titleCell, t.Title); err != nil {
		return 0, err
	}
	if n > 1 {
		if err := f.MergeCell(sheet, titleCell, fmt.Sprintf("%s%d", lastCol, startRow)); err != nil {
			return 0, err
		}
	}
	if err := f.SetCellStyle(sheet, titleCell, titleCell, styles.title); err != nil {
		return 0, err
	}

	widths := make([]int, n)
	headerRow := startRow + 1
	for c, col := range t.Columns {
		if err := f.SetCellValue(sheet, cellName(c+1, headerRow), col.Name); err != nil {
			return 0, err
		}
		widths[c] = utf8.RuneCountInString(col.Name)
	}
	if err := f.SetCellStyle(sheet, cellName(1, headerRow), cellName(n, headerRow), styles.header); err != nil {
		return 0, err
	}

	numeric := t.NumericColumns()
	for r, row := range t.Rows {
		excelRow := headerRow + 1 + r
		cell := cellName(1, excelRow)
		if err := f.SetCellValue(sheet, cell, row.Label); err != nil {
			return 0, err
		}
		if err := f.SetCellStyle(sheet, cell, cell, styles.forColumn(t.Columns[0], row.Total)); err != nil {
			return 0, err
		}
		widths[0] = max(widths[0], utf8.RuneCountInString(row.Label))

		for c, v := range row.Values {
			if c >= len(numeric) {
				break
			}
			col := numeric[c]
			cell := cellName(c+2, excelRow)
			if err := f.SetCellValue(sheet, cell, cellValue(col, v)); err != nil {
				return 0, err
			}
			if err := f.SetCellStyle(sheet, cell, cell, styles.forColumn(col, row.Total)); err != nil {
				return 0, err
			}
			widths[c+1] = max(widths[c+1], utf8.RuneCountInString(format.Cell(col, v)))
		}
	}

	for c, width := range widths {
		name, _ := excelize.ColumnNumberToName(c + 1)
		if err := f.SetColWidth(sheet, name, name, float64(width+widthMargin)); err != nil {
			return 0, err
		}
	}

	// title + header + rows, then the gap
	return startRow + 2 + len(t.Rows) + tableGap, nil
}

// cellValue converts v to what the number format expects: percentages are stored as fractions.
func cellValue(c report.Column, v float64) any {
	switch {
	case c.Kind == report.KindFloat && IsPercentColumn(c.Name):
		return v / 100
	case c.Kind == report.KindFloat:
		return v
	default:
		return int64(v)
	}
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// MergedWorkbook writes header and rows to a single sheet.
func MergedWorkbook(sheet string, header []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}

	headerCells := make([]any, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerCells); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		if err := f.SetSheetRow(sheet, cellName(1, i+2), &cells); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
