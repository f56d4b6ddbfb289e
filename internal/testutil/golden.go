package testutil

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
)

// updateGolden rewrites golden files instead of comparing.
// Use: go test ./internal/report -run TestGolden -update
var updateGolden = flag.Bool("update", false, "update golden files")

// ShouldUpdate reports whether -update was given.
func ShouldUpdate() bool {
	return *updateGolden
}

// GoldenPath returns testdata/<name> relative to the test's package.
func GoldenPath(name string) string {
	return filepath.Join("testdata", name)
}

// CompareGolden compares got against testdata/<name>, failing with a
// unified diff on mismatch. With -update the file is rewritten instead.
func CompareGolden(t *testing.T, name string, got []byte) {
	t.Helper()
	path := GoldenPath(name)

	if *updateGolden {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(path, got, 0o644); err != nil {
			t.Fatalf("Failed to write golden file: %v", err)
		}
		t.Logf("Updated golden: %s", path)
		return
	}

	want, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("Golden file missing: %s\n\nGot:\n%s\n\nRun with -update to create it:\n  go test -run %s -update", path, got, t.Name())
		}
		t.Fatalf("Failed to read golden file: %v", err)
	}
	if !bytes.Equal(want, got) {
		t.Fatalf("Golden mismatch for %s:\n%s\nRun with -update to refresh:\n  go test -run %s -update", name, Diff(string(want), string(got), path), t.Name())
	}
}

// Diff renders a unified diff of want against got.
func Diff(want, got, name string) string {
	s, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: name + " (want)",
		ToFile:   name + " (got)",
		Context:  3,
	})
	if err != nil {
		return err.Error()
	}
	return s
}
