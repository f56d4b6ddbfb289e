// Package surface reads SURFACE.toml, the per-revision declaration of which
// Java packages make up the published API.
//
//	version = 1
//	include = ["com.acme.**"]
//	exclude = ["**.implementation"]
//
// A pattern is a dot-separated package pattern where `*` matches one
// segment and `**` any number of segments. A pattern that matches a
// package also matches its subpackages.
package surface

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// FileName is looked up at the root of a source revision.
const FileName = "SURFACE.toml"

// Surface selects packages. With no include patterns every package is
// included; exclusions always win.
type Surface struct {
	Version int      `toml:"version"`
	Include []string `toml:"include,omitempty"`
	Exclude []string `toml:"exclude,omitempty"`
}

// Load reads dir/SURFACE.toml. A missing file yields nil and no error.
func Load(dir string) (*Surface, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return Parse(path)
}

// Parse reads a surface file at path.
func Parse(path string) (*Surface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var s Surface
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	if s.Version < 1 {
		s.Version = 1
	}
	for _, p := range append(append([]string{}, s.Include...), s.Exclude...) {
		if strings.TrimSpace(p) == "" || strings.Contains(p, "..") {
			return nil, fmt.Errorf("invalid package pattern %q in %s", p, path)
		}
	}
	return &s, nil
}

// Excludes reports whether pkg is outside the surface. A nil Surface
// excludes nothing.
func (s *Surface) Excludes(pkg string) bool {
	if s == nil {
		return false
	}
	for _, p := range s.Exclude {
		if Match(p, pkg) {
			return true
		}
	}
	if len(s.Include) == 0 {
		return false
	}
	for _, p := range s.Include {
		if Match(p, pkg) {
			return false
		}
	}
	return true
}

// Match reports whether pattern matches pkg or one of its parent packages.
func Match(pattern, pkg string) bool {
	var pkgSegs []string
	if pkg != "" {
		pkgSegs = strings.Split(pkg, ".")
	}
	return matchPrefix(strings.Split(pattern, "."), pkgSegs)
}

// matchPrefix reports whether pat matches some prefix of segs.
func matchPrefix(pat, segs []string) bool {
	if len(pat) == 0 {
		return true
	}
	if pat[0] == "**" {
		for i := 0; i <= len(segs); i++ {
			if matchPrefix(pat[1:], segs[i:]) {
				return true
			}
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	if pat[0] != "*" && pat[0] != segs[0] {
		return false
	}
	return matchPrefix(pat[1:], segs[1:])
}
