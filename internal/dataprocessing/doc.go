// Package dataprocessing reads master uploads and normalizes them into records.
//
// # Data Flow
//
//	xlsx/csv upload → ReadUpload → Table → Normalizer.Normalize → []NormalizedRecord → Split → Datasets
//
// Header names are configurable (config.ReportConfig.Columns) and matched
// trimmed and case-insensitively. Level, ownership and last-sync text is
// trimmed and case-normalized before comparison.
//
// # Error Handling
//
//   - a missing column or sheet is an errors.ErrTypeSchema AppError listing every missing name
//   - a count cell that is not a whole, non-negative number is an errors.ErrTypeTypeCoercion
//     AppError naming file, column, spreadsheet row and value; one file may return several, joined
//   - an unreadable file is an errors.ErrTypeParsing AppError
//
// Empty count cells are 0.
package dataprocessing
