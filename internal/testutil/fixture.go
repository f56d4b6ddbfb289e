// Package testutil holds helpers shared by package tests: golden file
// comparison and throwaway source trees.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteTree creates files (slash-separated path to content) under a fresh
// temporary directory and returns its path.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create fixture directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write fixture %s: %v", name, err)
		}
	}
	return root
}
