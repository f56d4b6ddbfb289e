// Package scan loads a revision of a Java library into a frozen symbol
// table. A revision is a source directory, a single .java file, an
// .apisnap baseline or a .scip index.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"apidiff/internal/decl"
	"apidiff/internal/errors"
	"apidiff/internal/javaparse"
	"apidiff/internal/scipindex"
	"apidiff/internal/slogutil"
	"apidiff/internal/snapshot"
	"apidiff/internal/surface"
	"apidiff/internal/symbols"
)

// Kind is the form a revision is supplied in.
type Kind string

const (
	KindDirectory Kind = "directory"
	KindJavaFile  Kind = "java"
	KindSnapshot  Kind = "snapshot"
	KindIndex     Kind = "scip"
)

// Parser turns Java source into a declaration tree.
type Parser interface {
	Parse(ctx context.Context, path string, source []byte) (*decl.File, error)
}

// Options configures a load. The zero value is usable.
type Options struct {
	// Workers bounds parallel parsing; <= 0 means GOMAXPROCS.
	Workers          int
	MaxFileSizeBytes int64
	RespectGitignore bool
	// Exclude holds gitignore-style patterns relative to the source root.
	Exclude []string
	// Surface overrides the SURFACE.toml found at the source root.
	Surface *surface.Surface

	Logger *slog.Logger
	// NewParser creates one parser per worker. Defaults to the tree-sitter
	// Java parser.
	NewParser func() Parser
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slogutil.NewDiscardLogger()
}

func (o Options) newParser() Parser {
	if o.NewParser != nil {
		return o.NewParser()
	}
	return javaparse.NewParser()
}

func (o Options) workers(n int) int {
	w := o.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Stats describes one load.
type Stats struct {
	Kind        Kind
	Files       int
	Failed      int
	Skipped     int // files whose package the surface excludes
	Dropped     int // members without a resolvable owner
	Duplicates  int
	Classes     int
	Fields      int
	Methods     int
	Fingerprint string // snapshots only
	Duration    time.Duration
}

// Revision is a loaded, frozen table and how it was obtained.
type Revision struct {
	Path  string
	Table *symbols.Table
	Stats Stats
}

// DetectKind classifies path. A missing path is MISSING_INPUT; an
// unrecognised file type is INVALID_INPUT.
func DetectKind(path string) (Kind, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Missing("revision", path, err)
	}
	if info.IsDir() {
		return KindDirectory, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".java":
		return KindJavaFile, nil
	case snapshot.Ext:
		return KindSnapshot, nil
	case scipindex.Ext:
		return KindIndex, nil
	}
	return "", errors.New(errors.InvalidInput,
		fmt.Sprintf("unsupported revision source %q (want a directory, .java, %s or %s)", filepath.Base(path), snapshot.Ext, scipindex.Ext),
		nil).WithPath(path)
}

// Load reads the revision at path and labels its table with revision.
// Snapshots keep the revision they were written with.
// Per-file parse failures are logged and counted; they never fail the
// load.
func Load(ctx context.Context, path, revision string, opts Options) (*Revision, error) {
	kind, err := DetectKind(path)
	if err != nil {
		return nil, err
	}
	if kind != KindSnapshot && opts.NewParser == nil && !javaparse.Available() {
		return nil, errors.New(errors.InvalidInput, "this build cannot parse Java sources; rebuild with CGO_ENABLED=1 or use a snapshot", nil).WithPath(path)
	}
	start := time.Now()
	logger := opts.logger().With("revision", revision)

	var rev *Revision
	switch kind {
	case KindSnapshot:
		rev, err = loadSnapshot(path)
	case KindIndex:
		rev, err = loadIndex(ctx, path, revision, opts, logger)
	case KindJavaFile:
		rev, err = loadSources(ctx, filepath.Dir(path), []string{filepath.Base(path)}, revision, opts, nil, logger)
	default:
		rev, err = loadDirectory(ctx, path, revision, opts, logger)
	}
	if err != nil {
		return nil, err
	}

	rev.Path = path
	rev.Stats.Kind = kind
	rev.Stats.Classes, rev.Stats.Fields, rev.Stats.Methods = rev.Table.Counts()
	rev.Stats.Duration = time.Since(start)
	rev.Table.Freeze()

	logger.Info("Revision loaded",
		"path", path,
		"kind", string(kind),
		"files", rev.Stats.Files,
		"failed", rev.Stats.Failed,
		"classes", rev.Stats.Classes,
		"methods", rev.Stats.Methods,
		"duration", rev.Stats.Duration.Round(time.Millisecond).String(),
	)
	return rev, nil
}

// LoadPair loads the old and new revisions concurrently and returns once
// both are frozen. Both paths are checked before any extraction starts.
func LoadPair(ctx context.Context, oldPath, newPath string, opts Options) (oldRev, newRev *Revision, err error) {
	if _, err := DetectKind(oldPath); err != nil {
		return nil, nil, err
	}
	if _, err := DetectKind(newPath); err != nil {
		return nil, nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := Load(gctx, oldPath, "old", opts)
		oldRev = r
		return err
	})
	g.Go(func() error {
		r, err := Load(gctx, newPath, "new", opts)
		newRev = r
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return oldRev, newRev, nil
}

func loadSnapshot(path string) (*Revision, error) {
	t, h, err := snapshot.Read(path)
	if err != nil {
		return nil, err
	}
	return &Revision{Table: t, Stats: Stats{Fingerprint: h.Fingerprint}}, nil
}

func loadIndex(ctx context.Context, path, revision string, opts Options, logger *slog.Logger) (*Revision, error) {
	idx, err := scipindex.Load(ctx, path, opts.newParser())
	if err != nil {
		return nil, err
	}
	for _, ferr := range idx.Failures {
		logger.Warn("Skipping unparseable index document", "error", ferr.Error())
	}
	logger.Debug("SCIP index read", "tool", idx.Tool, "documents", len(idx.Files))

	table := symbols.NewTable(revision)
	st := Stats{Files: len(idx.Files) + len(idx.Failures), Failed: len(idx.Failures)}
	for _, f := range idx.Files {
		x := symbols.Extract(table, f, symbols.ExtractOptions{SkipPackage: opts.Surface.Excludes})
		st.add(x, logger)
	}
	return &Revision{Table: table, Stats: st}, nil
}

func loadDirectory(ctx context.Context, root, revision string, opts Options, logger *slog.Logger) (*Revision, error) {
	surf := opts.Surface
	if surf == nil {
		s, err := surface.Load(root)
		if err != nil {
			return nil, err
		}
		surf = s
	}
	if surf != nil {
		logger.Debug("Surface declaration applied", "include", len(surf.Include), "exclude", len(surf.Exclude))
	}

	files, err := Discover(root, opts)
	if err != nil {
		return nil, errors.New(errors.InvalidInput, "failed to walk source tree", err).WithPath(root)
	}
	return loadSources(ctx, root, files, revision, opts, surf, logger)
}

type fragment struct {
	table *symbols.Table
	stats symbols.ExtractStats
	err   error
}

// loadSources parses files on a worker pool. Each file is extracted into
// its own fragment; fragments are merged in path order after every worker
// has finished, so the table does not depend on scheduling.
func loadSources(ctx context.Context, root string, files []string, revision string, opts Options, surf *surface.Surface, logger *slog.Logger) (*Revision, error) {
	if surf == nil {
		surf = opts.Surface
	}
	frags := make([]fragment, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < opts.workers(len(files)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := opts.newParser()
			for i := range jobs {
				frags[i] = parseFile(ctx, p, root, files[i], revision, surf)
			}
		}()
	}
	for i := range files {
		if ctx.Err() != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table := symbols.NewTable(revision)
	st := Stats{Files: len(files)}
	for i, fr := range frags {
		if fr.err != nil {
			st.Failed++
			logger.Warn("Skipping unparseable file", "path", files[i], "error", fr.err.Error())
			continue
		}
		st.add(fr.stats, logger)
		for _, d := range table.MergeFrom(fr.table) {
			st.Duplicates++
			logDuplicate(logger, d)
		}
	}
	return &Revision{Table: table, Stats: st}, nil
}

func parseFile(ctx context.Context, p Parser, root, rel, revision string, surf *surface.Surface) fragment {
	src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return fragment{err: err}
	}
	f, err := p.Parse(ctx, rel, src)
	if err != nil {
		return fragment{err: err}
	}
	t := symbols.NewTable(revision)
	return fragment{table: t, stats: symbols.Extract(t, f, symbols.ExtractOptions{SkipPackage: surf.Excludes})}
}

func (s *Stats) add(x symbols.ExtractStats, logger *slog.Logger) {
	if x.Skipped {
		s.Skipped++
	}
	s.Dropped += x.Dropped
	for _, d := range x.Duplicates {
		s.Duplicates++
		logDuplicate(logger, d)
	}
}

func logDuplicate(logger *slog.Logger, d symbols.Duplicate) {
	kind := "method"
	if d.Field {
		kind = "field"
	}
	logger.Warn("Duplicate declaration, keeping first", "class", d.FQN, "kind", kind, "member", d.Member)
}
