package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	".gradle":      {},
	".idea":        {},
	"build":        {},
	"target":       {},
	"out":          {},
	"bin":          {},
	"node_modules": {},
}

// skipFiles are compilation units that declare no API types.
var skipFiles = map[string]struct{}{
	"module-info.java":  {},
	"package-info.java": {},
}

// Discover returns the Java sources under root as slash-separated paths
// relative to root, sorted. Build output, hidden directories, files matched
// by .gitignore (when enabled) or opts.Exclude, and files above the size
// limit are skipped.
func Discover(root string, opts Options) ([]string, error) {
	logger := opts.logger()

	var gi *ignore.GitIgnore
	if opts.RespectGitignore {
		gi = loadGitignore(root)
	}
	var excl *ignore.GitIgnore
	if len(opts.Exclude) > 0 {
		excl = ignore.CompileIgnoreLines(opts.Exclude...)
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			logger.Debug("Skipping unreadable path", "path", path, "error", err.Error())
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".java") || strings.HasPrefix(name, ".") {
			return nil
		}
		if _, skip := skipFiles[name]; skip {
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if excl != nil && excl.MatchesPath(rel) {
			return nil
		}
		if opts.MaxFileSizeBytes > 0 {
			if info, err := d.Info(); err == nil && info.Size() > opts.MaxFileSizeBytes {
				logger.Warn("Skipping oversized file", "path", rel, "size", info.Size(), "limit", opts.MaxFileSizeBytes)
				return nil
			}
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
