package scan

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"apidiff/internal/breaking"
	"apidiff/internal/decl"
	"apidiff/internal/errors"
	"apidiff/internal/snapshot"
	"apidiff/internal/testutil"
)

// lineParser reads a tiny line format instead of Java:
//
//	package com.acme
//	class Client
//	method send String
//	field timeout int
//
// A file containing "broken" fails to parse.
type lineParser struct{}

func (lineParser) Parse(_ context.Context, path string, src []byte) (*decl.File, error) {
	f := &decl.File{Path: path}
	var cur *decl.TypeDecl
	for _, line := range strings.Split(string(src), "\n") {
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "broken":
			return nil, errors.New(errors.ParseFailure, "syntax error near line 1", nil).WithPath(path)
		case "package":
			f.Package = parts[1]
		case "class":
			cur = &decl.TypeDecl{Name: parts[1], Kind: decl.KindClass, Modifiers: []string{"public"}}
			f.Types = append(f.Types, cur)
		case "method":
			m := &decl.MethodDecl{Name: parts[1], ReturnType: "void", Modifiers: []string{"public"}}
			if len(parts) > 3 {
				m.ReturnType = parts[3]
			}
			if len(parts) > 2 && parts[2] != "-" {
				m.Params = []decl.Param{{Name: "arg", Type: parts[2]}}
			}
			cur.Methods = append(cur.Methods, m)
		case "field":
			cur.Fields = append(cur.Fields, &decl.FieldDecl{Names: []string{parts[1]}, Type: parts[2], Modifiers: []string{"public"}})
		}
	}
	return f, nil
}

func testOptions() Options {
	return Options{NewParser: func() Parser { return lineParser{} }}
}

func TestDiscover(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"src/com/acme/Client.java":        "",
		"src/com/acme/Server.java":        "",
		"src/com/acme/package-info.java":  "",
		"src/module-info.java":            "",
		"src/com/acme/README.md":          "",
		"build/gen/Generated.java":        "",
		"target/classes/Compiled.java":    "",
		".hidden/Secret.java":             "",
		"gen/Ignored.java":                "",
		"src/com/acme/internal/Impl.java": "",
		"big/Huge.java":                   strings.Repeat("x", 200),
		".gitignore":                      "gen/\n",
	})

	opts := Options{RespectGitignore: true, Exclude: []string{"**/internal/**"}, MaxFileSizeBytes: 100}
	got, err := Discover(root, opts)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	want := []string{"src/com/acme/Client.java", "src/com/acme/Server.java"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}

	all, err := Discover(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Errorf("Discover() without filters = %v, want 5 files", all)
	}
}

func TestDetectKind(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"A.java":     "",
		"v1.apisnap": "",
		"index.scip": "",
		"notes.txt":  "",
	})
	tests := []struct {
		path string
		want Kind
		code errors.Code
	}{
		{root, KindDirectory, ""},
		{filepath.Join(root, "A.java"), KindJavaFile, ""},
		{filepath.Join(root, "v1.apisnap"), KindSnapshot, ""},
		{filepath.Join(root, "index.scip"), KindIndex, ""},
		{filepath.Join(root, "notes.txt"), "", errors.InvalidInput},
		{filepath.Join(root, "absent"), "", errors.MissingInput},
	}
	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			got, err := DetectKind(tt.path)
			if got != tt.want {
				t.Errorf("DetectKind() = %q, want %q", got, tt.want)
			}
			if errors.CodeOf(err) != tt.code {
				t.Errorf("DetectKind() error = %v, want code %q", err, tt.code)
			}
		})
	}
}

func TestLoadDirectory(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"a/Client.java": "package com.acme\nclass Client\nmethod send String Response\nfield timeout int\n",
		"b/Client.java": "package com.acme\nclass Client\nmethod send String void\nmethod close -\n",
		"c/Broken.java": "broken\n",
		"d/Other.java":  "package com.acme.other\nclass Other\nmethod run -\n",
	})

	rev, err := Load(context.Background(), root, "old", testOptions())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !rev.Table.Frozen() {
		t.Error("table should be frozen")
	}
	st := rev.Stats
	if st.Kind != KindDirectory || st.Files != 4 || st.Failed != 1 {
		t.Errorf("Stats = %+v, want directory with 4 files and 1 failure", st)
	}
	if st.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", st.Duplicates)
	}
	if got, want := rev.Table.FQNs(), []string{"com.acme.Client", "com.acme.other.Other"}; !reflect.DeepEqual(got, want) {
		t.Errorf("FQNs() = %v, want %v", got, want)
	}

	c, _ := rev.Table.Class("com.acme.Client")
	send := c.MethodsBySignature["com.acme.Client#send(String)"]
	if send == nil || send.ReturnType != "Response" {
		t.Errorf("send = %+v, want the declaration from the first path", send)
	}
	if _, ok := c.MethodsBySignature["com.acme.Client#close()"]; !ok {
		t.Error("close() from the second file should be merged")
	}
}

func TestLoadCountsIntraFileDuplicateOnce(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"Client.java": "package com.acme\nclass Client\nmethod send String Response\nmethod send String void\n",
	})

	rev, err := Load(context.Background(), root, "old", testOptions())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rev.Stats.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", rev.Stats.Duplicates)
	}
	c, _ := rev.Table.Class("com.acme.Client")
	if got := c.MethodsBySignature["com.acme.Client#send(String)"].ReturnType; got != "Response" {
		t.Errorf("send(String) return = %q, want Response", got)
	}
}

func TestLoadIndependentOfWorkers(t *testing.T) {
	files := make(map[string]string)
	for i := 0; i < 40; i++ {
		files[fmt.Sprintf("p%02d/C.java", i)] = fmt.Sprintf("package com.acme\nclass Shared\nmethod m%d - T%d\nmethod common - R%d\n", i%7, i, i)
	}
	root := testutil.WriteTree(t, files)

	serial := testOptions()
	serial.Workers = 1
	parallel := testOptions()
	parallel.Workers = 8

	a, err := Load(context.Background(), root, "a", serial)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Load(context.Background(), root, "b", parallel)
	if err != nil {
		t.Fatal(err)
	}
	if changes := breaking.Diff(a.Table, b.Table, breaking.DiffOptions{}); len(changes) != 0 {
		t.Errorf("worker count changed the table: %v", changes)
	}
	c, _ := b.Table.Class("com.acme.Shared")
	if common := c.MethodsBySignature["com.acme.Shared#common()"]; common.ReturnType != "R0" {
		t.Errorf("common() return = %q, want R0 from the first path", common.ReturnType)
	}
}

func TestLoadSurface(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"SURFACE.toml":     "version = 1\nexclude = [\"com.acme.internal\"]\n",
		"api/Client.java":  "package com.acme\nclass Client\n",
		"impl/Helper.java": "package com.acme.internal.util\nclass Helper\n",
	})
	rev, err := Load(context.Background(), root, "new", testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got := rev.Table.FQNs(); !reflect.DeepEqual(got, []string{"com.acme.Client"}) {
		t.Errorf("FQNs() = %v, want only com.acme.Client", got)
	}
	if rev.Stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", rev.Stats.Skipped)
	}
}

func TestLoadSnapshot(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"Client.java": "package com.acme\nclass Client\nmethod send String\n"})
	src, err := Load(context.Background(), filepath.Join(root, "Client.java"), "v1", testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if src.Stats.Kind != KindJavaFile {
		t.Errorf("Kind = %q, want java", src.Stats.Kind)
	}
	snap := filepath.Join(t.TempDir(), "v1"+snapshot.Ext)
	if _, err := snapshot.Write(snap, src.Table); err != nil {
		t.Fatal(err)
	}

	rev, err := Load(context.Background(), snap, "old", Options{})
	if err != nil {
		t.Fatalf("Load(snapshot) error = %v", err)
	}
	if rev.Stats.Kind != KindSnapshot || rev.Stats.Fingerprint == "" {
		t.Errorf("Stats = %+v", rev.Stats)
	}
	if changes := breaking.Diff(src.Table, rev.Table, breaking.DiffOptions{}); len(changes) != 0 {
		t.Errorf("snapshot differs from source: %v", changes)
	}
}

func TestLoadPair(t *testing.T) {
	oldRoot := testutil.WriteTree(t, map[string]string{"C.java": "package p\nclass C\nmethod a -\n"})
	newRoot := testutil.WriteTree(t, map[string]string{"C.java": "package p\nclass C\nmethod b -\n"})

	oldRev, newRev, err := LoadPair(context.Background(), oldRoot, newRoot, testOptions())
	if err != nil {
		t.Fatalf("LoadPair() error = %v", err)
	}
	if oldRev.Table.Revision != "old" || newRev.Table.Revision != "new" {
		t.Errorf("revisions = %q, %q", oldRev.Table.Revision, newRev.Table.Revision)
	}
	if n := len(breaking.Diff(oldRev.Table, newRev.Table, breaking.DiffOptions{})); n != 2 {
		t.Errorf("Diff() = %d changes, want 2", n)
	}

	_, _, err = LoadPair(context.Background(), oldRoot, filepath.Join(newRoot, "missing"), testOptions())
	if !errors.Is(err, errors.MissingInput) {
		t.Errorf("LoadPair(missing) error = %v, want MISSING_INPUT", err)
	}
}

func TestLoadCancelled(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"C.java": "package p\nclass C\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, root, "old", testOptions()); err == nil {
		t.Error("Load() with cancelled context should fail")
	}
}
