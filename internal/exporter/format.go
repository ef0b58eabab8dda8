package exporter

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"dapodiksync/internal/report"
)

// Formatter renders table values the same way in every writer.
// A Formatter is not shared between goroutines; each writer run creates its own.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter creates a formatter with comma thousands separators.
func NewFormatter() *Formatter {
	return &Formatter{printer: message.NewPrinter(language.English)}
}

// Number formats v for display: "1,234" for integer columns, "1,234.56" for float columns,
// "" for NaN.
func (f *Formatter) Number(kind report.ColumnKind, v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	if kind == report.KindFloat {
		return f.printer.Sprintf("%.2f", v)
	}
	return f.printer.Sprintf("%d", int64(math.Round(v)))
}

// Percent formats v, already scaled to 0–100, the way the workbook's 0.00% format shows it.
func (f *Formatter) Percent(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return f.printer.Sprintf("%.2f", v) + "%"
}

// Cell formats the value of column c for display, honouring percent columns.
func (f *Formatter) Cell(c report.Column, v float64) string {
	if c.Kind == report.KindFloat && IsPercentColumn(c.Name) {
		return f.Percent(v)
	}
	return f.Number(c.Kind, v)
}

// Plain formats v without thousands separators, for CSV.
func Plain(kind report.ColumnKind, v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	if kind == report.KindFloat {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return strconv.FormatInt(int64(math.Round(v)), 10)
}

// IsPercentColumn reports whether a column holds percentages, judged by its name.
func IsPercentColumn(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "%") || strings.Contains(lower, "persen")
}
