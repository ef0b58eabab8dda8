package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Manager writes files under one base directory
type Manager struct {
	baseDir string
	logger  *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(baseDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{baseDir: baseDir, logger: logger.With(slog.String("component", "file_manager"))}
}

// BaseDir returns the directory files are written to
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// EnsureDirectory creates the base directory if it doesn't exist
func (m *Manager) EnsureDirectory() error {
	if err := os.MkdirAll(m.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", m.baseDir, err)
	}
	return nil
}

// WriteFile writes data to baseDir/name through a temporary file and returns the final path.
// name may contain subdirectories.
func (m *Manager) WriteFile(name string, data []byte) (string, error) {
	path := filepath.Join(m.baseDir, name)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(name)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	m.logger.Info("Writing file",
		slog.String("path", path),
		slog.Int("size_bytes", len(data)))
	return path, nil
}
