package internal

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/eak1mov/go-libtmx/source"
)

// MemorySource serves documents from an in-memory map keyed by
// slash-separated path, for tests that do not want to touch the disk.
type MemorySource map[string]string

func (s MemorySource) Open(p string) (io.ReadCloser, error) {
	doc, ok := s[p]
	if !ok {
		return nil, fmt.Errorf("%w: %v", source.ErrNotFound, p)
	}
	return io.NopCloser(strings.NewReader(doc)), nil
}

func (s MemorySource) Resolve(p, base string) (string, error) {
	if base != "" && !path.IsAbs(p) {
		p = path.Join(path.Dir(base), p)
	}
	return path.Clean(p), nil
}
