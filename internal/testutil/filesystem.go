package testutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"w4-go/internal/w4"
)

// MockFilesystemManager is an in-memory source filesystem for testing.
// It counts Open calls so tests can check nothing was read.
type MockFilesystemManager struct {
	mu    sync.Mutex
	files map[string][]byte
	opens int
}

// NewMockFilesystemManager creates an empty mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{files: make(map[string][]byte)}
}

// AddFile adds a file to the mock filesystem. path is made absolute.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	abs, err := filepath.Abs(path)
	if err != nil {
		panic(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[abs] = append([]byte(nil), content...)
}

// Opens returns how many times Open was called.
func (m *MockFilesystemManager) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*w4.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[absPath]
	if !ok {
		return nil, fmt.Errorf("stat %s: %w", absPath, fs.ErrNotExist)
	}

	info := &mockFileInfo{
		name:    filepath.Base(absPath),
		size:    int64(len(content)),
		modTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	return w4.NewPath(absPath, info), nil
}

func (m *MockFilesystemManager) Open(path *w4.Path) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opens++
	content, ok := m.files[path.String()]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path.String(), fs.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	modTime time.Time
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return 0644 }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return false }
func (m *mockFileInfo) Sys() any           { return nil }

// Compile-time check
var _ w4.FilesystemManager = (*MockFilesystemManager)(nil)
