package exporter

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-pdf/fpdf"

	"dapodiksync/internal/report"
)

// Page geometry in points, landscape A4.
const (
	marginLeft   = 72.0
	marginRight  = 57.6
	marginTop    = 57.6
	marginBottom = 57.6

	titleSize     = 18.0
	titleSpacer   = 12.0
	tableSpacer   = 24.0
	bodySize      = 8.0
	lineHeight    = 10.0
	cellPadding   = 3.0
	gridLineWidth = 0.5

	labelWeight = 2.5
)

var headerGrey = [3]int{128, 128, 128}

// DocumentOptions tune PDF output. The zero value is usable.
type DocumentOptions struct {
	// Compress enables stream compression. Tests turn it off to search the page text.
	Compress bool
	// Now stamps creation and modification dates; defaults to time.Now.
	Now func() time.Time
}

// DocumentWriter renders every table of a bundle as a landscape PDF, one table per page.
type DocumentWriter struct {
	opts   DocumentOptions
	logger *slog.Logger
}

// NewDocumentWriter creates a PDF writer
func NewDocumentWriter(logger *slog.Logger, opts DocumentOptions) *DocumentWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &DocumentWriter{opts: opts, logger: logger.With(slog.String("component", "pdf_writer"))}
}

type rowStyle struct {
	fontStyle string
	fill      bool
	fillColor [3]int
	textColor [3]int
}

var (
	headerStyle = rowStyle{fontStyle: "B", fill: true, fillColor: headerGrey, textColor: [3]int{255, 255, 255}}
	bodyStyle   = rowStyle{}
	totalStyle  = rowStyle{fontStyle: "B"}
)

type pdfTable struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	widths []float64
	header []string
	hAlign []string
	align  []string
}

// Write renders b and returns the complete document.
func (w *DocumentWriter) Write(b *report.Bundle) ([]byte, error) {
	tables := b.Tables()
	if len(tables) == 0 {
		return nil, fmt.Errorf("bundle has no tables")
	}

	pdf := fpdf.New("L", "pt", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetCellMargin(cellPadding)
	pdf.SetCompression(w.opts.Compress)
	pdf.SetCatalogSort(true)
	now := w.opts.Now()
	pdf.SetCreationDate(now)
	pdf.SetModificationDate(now)
	pdf.SetTitle(tables[0].Title, true)
	pdf.SetCreator("dapodiksync", true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	format := NewFormatter()

	for _, t := range tables {
		pdf.AddPage()
		if err := drawTable(pdf, tr, t, format); err != nil {
			return nil, err
		}
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("table %s: %w", t.ID, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}

	w.logger.Debug("Document rendered",
		slog.Int("tables", len(tables)),
		slog.Int("pages", pdf.PageCount()),
		slog.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func drawTable(pdf *fpdf.Fpdf, tr func(string) string, t *report.Table, format *Formatter) error {
	n := len(t.Columns)
	if n == 0 {
		return fmt.Errorf("table %s has no columns", t.ID)
	}

	pageW, _ := pdf.GetPageSize()
	available := pageW - marginLeft - marginRight

	pt := &pdfTable{
		pdf:    pdf,
		tr:     tr,
		widths: columnWidths(n, available),
		header: t.ColumnNames(),
		hAlign: make([]string, n),
		align:  make([]string, n),
	}
	for i := range t.Columns {
		pt.hAlign[i] = "C"
		pt.align[i] = "R"
	}
	pt.align[0] = "L"

	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(available, titleSize+4, tr(t.Title), "", "C", false)
	pdf.Ln(titleSpacer)

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(gridLineWidth)
	pt.drawRow(pt.header, pt.hAlign, headerStyle)

	numeric := t.NumericColumns()
	for _, row := range t.Rows {
		cells := make([]string, n)
		cells[0] = row.Label
		for c, v := range row.Values {
			if c < len(numeric) {
				// percentages are printed as plain numbers here
				cells[c+1] = format.Number(numeric[c].Kind, v)
			}
		}

		style := bodyStyle
		if row.Total {
			style = totalStyle
		}
		if !pt.fits(cells, style) {
			pdf.AddPage()
			pt.drawRow(pt.header, pt.hAlign, headerStyle)
		}
		pt.drawRow(cells, pt.align, style)
	}

	pdf.Ln(tableSpacer)
	return nil
}

// columnWidths gives the label column 2.5 shares and every other column one.
func columnWidths(n int, available float64) []float64 {
	total := labelWeight + float64(n-1)
	widths := make([]float64, n)
	for i := range widths {
		weight := 1.0
		if i == 0 {
			weight = labelWeight
		}
		widths[i] = available * weight / total
	}
	return widths
}

func (p *pdfTable) lines(cells []string, style rowStyle) [][]string {
	p.pdf.SetFont("Helvetica", style.fontStyle, bodySize)
	out := make([][]string, len(cells))
	for i, c := range cells {
		out[i] = p.pdf.SplitText(p.tr(c), p.widths[i])
		if len(out[i]) == 0 {
			out[i] = []string{""}
		}
	}
	return out
}

func rowHeight(lines [][]string) float64 {
	maxLines := 1
	for _, l := range lines {
		maxLines = max(maxLines, len(l))
	}
	return float64(maxLines)*lineHeight + 2*cellPadding
}

func (p *pdfTable) fits(cells []string, style rowStyle) bool {
	_, pageH := p.pdf.GetPageSize()
	return p.pdf.GetY()+rowHeight(p.lines(cells, style)) <= pageH-marginBottom
}

func (p *pdfTable) drawRow(cells []string, align []string, style rowStyle) {
	pdf := p.pdf
	lines := p.lines(cells, style)
	h := rowHeight(lines)

	if style.fill {
		pdf.SetFillColor(style.fillColor[0], style.fillColor[1], style.fillColor[2])
	}
	pdf.SetTextColor(style.textColor[0], style.textColor[1], style.textColor[2])

	x, y := marginLeft, pdf.GetY()
	for i, w := range p.widths {
		rectStyle := "D"
		if style.fill {
			rectStyle = "FD"
		}
		pdf.Rect(x, y, w, h, rectStyle)

		for j, line := range lines[i] {
			pdf.SetXY(x, y+cellPadding+float64(j)*lineHeight)
			pdf.CellFormat(w, lineHeight, line, "", 0, align[i], false, 0, "")
		}
		x += w
	}
	pdf.SetXY(marginLeft, y+h)
}
