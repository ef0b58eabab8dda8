// Package files finds report inputs on disk and writes report outputs.
//
// Discovery expands command-line arguments: a file is taken as is, a directory
// contributes every spreadsheet directly inside it. Office lock files (~$*) and
// hidden files are ignored.
//
// Manager writes artifacts under one output directory. Writes go to a temporary
// file first and are renamed into place, so a reader never sees half a workbook.
//
// Example usage:
//
//	paths, err := files.NewDiscovery(nil).Expand(args)
//	m := files.NewManager(outDir, logger)
//	path, err := m.WriteFile("Rekap_Progres_SYNC_DAPODIK.xlsx", data)
package files
