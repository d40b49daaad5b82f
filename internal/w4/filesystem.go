package w4

import "io"

// FilesystemManager gives the publisher access to source files.
// It abstracts file access to enable testing without touching the real filesystem.
type FilesystemManager interface {
	// Resolve makes rawPath absolute and checks it names an existing regular
	// file. A missing file yields an error wrapping fs.ErrNotExist.
	Resolve(rawPath string) (*Path, error)

	// Open opens a resolved file for reading.
	Open(path *Path) (io.ReadCloser, error)
}
