package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"w4-go/internal/w4"
)

// OSFilesystemManager reads source files from the real filesystem.
type OSFilesystemManager struct{}

// NewOSFilesystemManager creates a filesystem manager that operates on the real filesystem.
func NewOSFilesystemManager() *OSFilesystemManager {
	return &OSFilesystemManager{}
}

// Resolve makes rawPath absolute and checks that it is an existing regular file.
// Symlinks are followed.
func (m *OSFilesystemManager) Resolve(rawPath string) (*w4.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	mode := info.Mode()
	switch {
	case mode.IsDir():
		return nil, fmt.Errorf("path is a directory: %s", absPath)
	case mode&os.ModeDevice != 0:
		return nil, fmt.Errorf("device files not supported: %s", absPath)
	case mode&os.ModeNamedPipe != 0:
		return nil, fmt.Errorf("named pipes not supported: %s", absPath)
	case mode&os.ModeSocket != 0:
		return nil, fmt.Errorf("sockets not supported: %s", absPath)
	}

	return w4.NewPath(absPath, info), nil
}

// Open opens a file for reading.
func (m *OSFilesystemManager) Open(path *w4.Path) (io.ReadCloser, error) {
	return os.Open(path.String())
}

// Compile-time check that OSFilesystemManager implements w4.FilesystemManager interface
var _ w4.FilesystemManager = (*OSFilesystemManager)(nil)
