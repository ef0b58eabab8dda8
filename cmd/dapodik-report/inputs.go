package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"dapodiksync/internal/files"
	"dapodiksync/internal/services"
)

// readInputs expands directories and loads every file into memory, keeping argument order.
func readInputs(args []string) ([]services.Upload, error) {
	paths, err := files.NewDiscovery(nil).Expand(args)
	if err != nil {
		return nil, err
	}

	uploads := make([]services.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		uploads = append(uploads, services.Upload{Name: filepath.Base(p), Data: data})
	}
	return uploads, nil
}

func printSkipped(w io.Writer, skipped []services.SkippedFile) {
	for _, s := range skipped {
		fmt.Fprintf(w, "skipped %s (%s): %s\n", s.Name, s.Type, s.Reason)
	}
}
