package surface

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		pkg     string
		want    bool
	}{
		{"com.acme", "com.acme", true},
		{"com.acme", "com.acme.models", true},
		{"com.acme", "com.acmex", false},
		{"com.acme.models", "com.acme", false},
		{"com.*.impl", "com.acme.impl", true},
		{"com.*.impl", "com.acme.sub.impl", false},
		{"**.implementation", "com.azure.core.implementation", true},
		{"**.implementation", "com.azure.core.implementation.util", true},
		{"**.implementation", "com.azure.core", false},
		{"**", "", true},
		{"com", "", false},
	}
	for _, tt := range tests {
		if got := Match(tt.pattern, tt.pkg); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.pkg, got, tt.want)
		}
	}
}

func TestExcludes(t *testing.T) {
	s := &Surface{
		Include: []string{"com.acme"},
		Exclude: []string{"**.implementation"},
	}
	tests := map[string]bool{
		"com.acme":                true,
		"com.acme.models":         true,
		"com.acme.implementation": false,
		"org.other":               false,
	}
	for pkg, included := range tests {
		if got := s.Excludes(pkg); got == included {
			t.Errorf("Excludes(%q) = %v, want %v", pkg, got, !included)
		}
	}

	var none *Surface
	if none.Excludes("anything") {
		t.Error("nil surface should exclude nothing")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	s, err := Load(dir)
	if err != nil || s != nil {
		t.Fatalf("Load() on empty dir = %v, %v", s, err)
	}

	content := "exclude = [\"**.implementation\"]\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Version != 1 || len(s.Exclude) != 1 {
		t.Errorf("surface = %+v", s)
	}
}

func TestParseInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"syntax":  "exclude = [",
		"pattern": "exclude = [\"com..acme\"]",
		"empty":   "include = [\" \"]",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Parse(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}
