// Package internal holds test support shared by the library's packages.
package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteDocuments writes the given documents, keyed by slash-separated
// relative path, into a fresh temporary directory and returns its path.
// The directory is removed when the test finishes.
func WriteDocuments(t *testing.T, documents map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range documents {
		target := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
		require.NoError(t, os.WriteFile(target, []byte(content), 0o644))
	}
	return dir
}
