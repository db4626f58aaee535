// Package source abstracts the byte source map documents are read from, so
// the reading engine works the same over a file system, an archive or any
// other path-addressed storage.
package source

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

var ErrNotFound = errors.New("libtmx: resource not found")

// Source opens paths and resolves references between documents.
type Source interface {
	// Open returns the byte stream for a previously resolved path. It fails
	// with ErrNotFound if the path names nothing readable.
	Open(path string) (io.ReadCloser, error)

	// Resolve resolves path relative to the directory containing base and
	// canonicalizes it. Resolving the same effective file through different
	// relative routes must yield the same canonical path. An empty base
	// resolves against the current directory.
	Resolve(path, base string) (string, error)
}

// Local reads from the operating system file system. The zero value is
// ready to use.
type Local struct{}

func (Local) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, path)
		}
		return nil, err
	}
	return f, nil
}

func (Local) Resolve(path, base string) (string, error) {
	if base != "" && !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(base), path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}
