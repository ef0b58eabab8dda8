// Package exporter renders report bundles into downloadable artifacts.
//
// WorkbookWriter produces the styled xlsx workbook with one sheet per section and the
// tables stacked vertically. DocumentWriter produces a landscape PDF with one table per
// page. CSVWriter dumps single tables for spreadsheet tools.
//
// Writers share a Formatter so a number is rendered with the same thousands separators
// everywhere. Each call to Write is independent; writers hold no per-bundle state.
//
//	xlsx, err := exporter.NewWorkbookWriter(logger).Write(bundle)
//	pdf, err := exporter.NewDocumentWriter(logger, exporter.DocumentOptions{}).Write(bundle)
package exporter
