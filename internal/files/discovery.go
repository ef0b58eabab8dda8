package files

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"dapodiksync/internal/dataprocessing"
)

// DefaultExtensions are the spreadsheet formats the report pipeline reads.
var DefaultExtensions = dataprocessing.SupportedExtensions

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	extensions []string
}

// NewDiscovery creates a discovery for the given lower-case extensions.
// nil means DefaultExtensions.
func NewDiscovery(extensions []string) *Discovery {
	if extensions == nil {
		extensions = DefaultExtensions
	}
	return &Discovery{extensions: extensions}
}

// Matches reports whether name is a spreadsheet this discovery accepts.
func (d *Discovery) Matches(name string) bool {
	if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
		return false
	}
	return slices.Contains(d.extensions, strings.ToLower(filepath.Ext(name)))
}

// FindSpreadsheets lists the accepted files directly inside dir, sorted by name.
func (d *Discovery) FindSpreadsheets(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !d.Matches(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// Expand turns arguments into file paths in argument order. Directories are replaced by
// their spreadsheets; explicit files are kept even with an unknown extension so the
// pipeline can report them. A path listed twice is read once.
func (d *Discovery) Expand(args []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		key := filepath.Clean(p)
		if !seen[key] {
			seen[key] = true
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}

		found, err := d.FindSpreadsheets(arg)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no spreadsheets found in %s", arg)
		}
		for _, f := range found {
			add(f.Path)
		}
	}
	return paths, nil
}
