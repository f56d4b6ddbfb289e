package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"apidiff/internal/breaking"
	"apidiff/internal/decl"
	"apidiff/internal/report"
	"apidiff/internal/snapshot"
	"apidiff/internal/symbols"
)

// execute runs the CLI in-process and returns its stdout and exit code.
func execute(t *testing.T, args ...string) (string, int) {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	code := run(context.Background())
	return out.String(), code
}

func resetFlags() {
	verbosity, quiet, configPath = 0, true, ""
	diffOut, diffFormat, diffPolicy, diffSurface = "", "", "", ""
	diffSummary, diffReconcile, diffAPIOnly, diffFailOnBreaking, diffNoHistory = false, false, false, false, false
	snapshotOut = ""
	historyLimit = 20
}

func writeRevision(t *testing.T, dir, revision string, methods ...string) string {
	t.Helper()
	td := &decl.TypeDecl{Name: "Client", Modifiers: []string{"public"}}
	for _, m := range methods {
		td.Methods = append(td.Methods, &decl.MethodDecl{
			Name: m, ReturnType: "void", Modifiers: []string{"public"},
			Params: []decl.Param{{Name: "s", Type: "String"}},
		})
	}
	table := symbols.NewTable(revision)
	symbols.Extract(table, &decl.File{Package: "com.acme", Types: []*decl.TypeDecl{td}}, symbols.ExtractOptions{})
	table.Freeze()

	path := filepath.Join(dir, revision+snapshot.Ext)
	if _, err := snapshot.Write(path, table); err != nil {
		t.Fatalf("snapshot.Write() error = %v", err)
	}
	return path
}

func TestDiffExitCodes(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	v1 := writeRevision(t, dir, "v1", "send", "close")
	v2 := writeRevision(t, dir, "v2", "send", "flush")
	policyPath := filepath.Join(dir, "waivers.toml")
	if err := os.WriteFile(policyPath, []byte(`version = 1

[[waiver]]
symbol = "com.acme.Client#close*"
kind = "RemovedMethod"
reason = "close moved to flush"
`), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"report only", []string{"diff", v1, v2, "--no-history"}, exitOK},
		{"fail on breaking", []string{"diff", v1, v2, "--no-history", "--fail-on-breaking"}, exitBreaking},
		{"waived", []string{"diff", v1, v2, "--no-history", "--fail-on-breaking", "--policy", policyPath}, exitOK},
		{"identical", []string{"diff", v1, v1, "--no-history", "--fail-on-breaking"}, exitOK},
		{"missing input", []string{"diff", v1, filepath.Join(dir, "absent"), "--no-history"}, exitError},
		{"unknown format", []string{"diff", v1, v2, "--no-history", "--format", "xml"}, exitError},
		{"missing policy", []string{"diff", v1, v2, "--no-history", "--policy", filepath.Join(dir, "none.toml")}, exitError},
		{"wrong arg count", []string{"diff", v1}, exitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--out", filepath.Join(dir, "out", tt.name+".json"))
			if _, code := execute(t, args...); code != tt.want {
				t.Errorf("exit code = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestDiffWritesReport(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	v1 := writeRevision(t, dir, "v1", "send", "close")
	v2 := writeRevision(t, dir, "v2", "send", "flush")
	out := filepath.Join(dir, "changes.json")

	if _, code := execute(t, "diff", v1, v2, "--no-history", "--summary", "--out", out); code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, want := range []string{`"changeType": "RemovedMethod"`, `"changeType": "AddedMethod"`, `"semverAdvice": "major"`} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %s:\n%s", want, got)
		}
	}
}

func TestDiffRecordsHistory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	v1 := writeRevision(t, dir, "v1", "send")
	v2 := writeRevision(t, dir, "v2", "send", "flush")

	if _, code := execute(t, "diff", v1, v2, "--out", filepath.Join(dir, "r.json")); code != exitOK {
		t.Fatalf("diff exit code = %d, want %d", code, exitOK)
	}
	if _, err := os.Stat(filepath.Join(dir, ".apidiff", "history.db")); err != nil {
		t.Fatalf("history database not created: %v", err)
	}

	out, code := execute(t, "history")
	if code != exitOK {
		t.Fatalf("history exit code = %d, want %d", code, exitOK)
	}
	if !strings.Contains(out, v2) || !strings.Contains(out, "minor") {
		t.Errorf("history output = %q, want the recorded run", out)
	}
}

func TestHistoryEmpty(t *testing.T) {
	t.Chdir(t.TempDir())
	out, code := execute(t, "history")
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}
	if !strings.Contains(out, "No runs recorded.") {
		t.Errorf("history output = %q", out)
	}
}

func TestSnapshotCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	v1 := writeRevision(t, dir, "v1", "send")
	_, want, err := snapshot.Read(v1)
	if err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "copy", "baseline.apisnap")
	out, code := execute(t, "snapshot", v1, "--out", dest)
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}
	if !strings.HasPrefix(out, want.Fingerprint) {
		t.Errorf("snapshot output = %q, want fingerprint %s", out, want.Fingerprint)
	}

	if _, code := execute(t, "snapshot", v1, "--out", filepath.Join(dir, "baseline.json")); code != exitError {
		t.Errorf("wrong extension exit code = %d, want %d", code, exitError)
	}
}

func TestVersionCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	out, code := execute(t, "version")
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}
	if !strings.HasPrefix(out, "apidiff ") {
		t.Errorf("version output = %q", out)
	}
}

type failingCloser struct {
	bytes.Buffer
	err error
}

func (f *failingCloser) Close() error { return f.err }

func TestRenderAndCloseReturnsCloseError(t *testing.T) {
	empty := symbols.NewTable("v1")
	empty.Freeze()
	rep := &report.Report{Result: breaking.Compare(empty, empty, breaking.CompareOptions{})}
	r, err := report.For("json")
	if err != nil {
		t.Fatal(err)
	}

	diskFull := stderrors.New("no space left on device")
	wc := &failingCloser{err: diskFull}
	if err := renderAndClose(r, rep, wc); !stderrors.Is(err, diskFull) {
		t.Errorf("renderAndClose() error = %v, want %v", err, diskFull)
	}
	if wc.Len() == 0 {
		t.Error("report was not rendered before close")
	}

	ok := &failingCloser{}
	if err := renderAndClose(r, rep, ok); err != nil {
		t.Errorf("renderAndClose() error = %v, want nil", err)
	}
}
