package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"apidiff/internal/breaking"
	"apidiff/internal/config"
	"apidiff/internal/errors"
	"apidiff/internal/history"
	"apidiff/internal/policy"
	"apidiff/internal/report"
	"apidiff/internal/scan"
	"apidiff/internal/surface"
	"apidiff/internal/version"
)

// errBreakingChanges ends a --fail-on-breaking run that found unwaived
// breaking changes.
var errBreakingChanges = stderrors.New("breaking changes found")

var (
	diffOut            string
	diffFormat         string
	diffSummary        bool
	diffReconcile      bool
	diffAPIOnly        bool
	diffPolicy         string
	diffSurface        string
	diffFailOnBreaking bool
	diffNoHistory      bool
)

var diffCmd = &cobra.Command{
	Use:   "diff OLD NEW",
	Short: "Compare the API of two revisions",
	Long: `Compare the API surface of two revisions and report every change.

OLD and NEW may each be a source directory, a .java file, a .scip index or
an .apisnap snapshot. The default output is the JSON change document.

Examples:
  apidiff diff v1/src v2/src
  apidiff diff baseline.apisnap src --format human
  apidiff diff v1/src v2/src --summary --out changes.json
  apidiff diff v1/src v2/src --policy policy.toml --fail-on-breaking`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().StringVarP(&diffOut, "out", "o", "", "Write the report to a file instead of stdout")
	diffCmd.Flags().StringVarP(&diffFormat, "format", "f", "", "Output format: json, yaml, human, listing (default from config)")
	diffCmd.Flags().BoolVar(&diffSummary, "summary", false, "Include the summary block in json/yaml output")
	diffCmd.Flags().BoolVar(&diffReconcile, "reconcile-param-types", false, "Fold unambiguous remove/add pairs into parameter type changes")
	diffCmd.Flags().BoolVar(&diffAPIOnly, "api-only", false, "Ignore private and package-private symbols")
	diffCmd.Flags().StringVar(&diffPolicy, "policy", "", "Waiver policy file (default from config)")
	diffCmd.Flags().StringVar(&diffSurface, "surface", "", "SURFACE.toml applied to both revisions")
	diffCmd.Flags().BoolVar(&diffFailOnBreaking, "fail-on-breaking", false, "Exit with status 1 when unwaived breaking changes exist")
	diffCmd.Flags().BoolVar(&diffNoHistory, "no-history", false, "Do not record this run in the history database")

	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := cmd.Context()

	format := diffFormat
	if format == "" {
		format = cfg.Diff.Format
	}
	renderer, err := report.For(format)
	if err != nil {
		return err
	}
	waiver, err := loadPolicy(cfg, diffPolicy)
	if err != nil {
		return err
	}

	opts := scanOptions(cfg, logger)
	if diffSurface != "" {
		s, err := surface.Parse(diffSurface)
		if err != nil {
			return errors.New(errors.ConfigInvalid, "invalid surface declaration", err).WithPath(diffSurface)
		}
		opts.Surface = s
	}

	oldRev, newRev, err := scan.LoadPair(ctx, args[0], args[1], opts)
	if err != nil {
		return err
	}

	compare := breaking.CompareOptions{Diff: breaking.DiffOptions{
		ReconcileParameterTypes: diffReconcile || cfg.Diff.ReconcileParameterTypes,
		APIOnly:                 diffAPIOnly,
	}}
	if waiver != nil {
		compare.Waiver = waiver
	}
	result := breaking.Compare(oldRev.Table, newRev.Table, compare)

	rep := &report.Report{Result: result, Old: oldRev.Table, New: newRev.Table, IncludeSummary: diffSummary}
	if err := writeReport(renderer, rep, diffOut); err != nil {
		return err
	}

	s := result.Summary
	logger.Info("Diff complete",
		"changes", s.TotalChanges,
		"breaking", s.Breaking,
		"waived", s.Waived,
		"semver", s.SemverAdvice,
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)

	if cfg.History.Enabled && !diffNoHistory {
		run := history.NewRun(args[0], args[1], s)
		run.Duration = time.Since(start)
		run.ToolVersion = version.Info()
		recordRun(cmd, cfg.History.Path, run)
	}

	if diffFailOnBreaking && result.HasBreakingChanges() {
		fmt.Fprintf(os.Stderr, "%d breaking change(s) found; suggested version bump: %s\n", s.Breaking, s.SemverAdvice)
		return errBreakingChanges
	}
	return nil
}

// loadPolicy loads the waiver file named by flag, or by the configuration
// when flag is empty. A configured file that does not exist is ignored.
func loadPolicy(c *config.Config, flag string) (*policy.Policy, error) {
	path := flag
	if path == "" {
		path = c.Policy.Path
	}
	if path == "" {
		return nil, nil
	}
	p, err := policy.Load(path)
	if err != nil {
		if flag == "" && errors.Is(err, errors.MissingInput) {
			logger.Debug("No waiver policy", "path", path)
			return nil, nil
		}
		return nil, err
	}
	logger.Debug("Waiver policy loaded", "path", path, "waivers", len(p.Waivers))
	return p, nil
}

func writeReport(r report.Renderer, rep *report.Report, out string) error {
	if out == "" {
		return render(r, rep, os.Stdout)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return errors.New(errors.StorageFailure, "failed to create output directory", err).WithPath(out)
	}
	f, err := os.Create(out)
	if err != nil {
		return errors.New(errors.StorageFailure, "failed to create output file", err).WithPath(out)
	}
	if err := renderAndClose(r, rep, f); err != nil {
		return errors.New(errors.StorageFailure, "failed to write report", err).WithPath(out)
	}
	return nil
}

// renderAndClose renders into wc and closes it, returning the first error.
func renderAndClose(r report.Renderer, rep *report.Report, wc io.WriteCloser) error {
	err := render(r, rep, wc)
	if cerr := wc.Close(); err == nil {
		err = cerr
	}
	return err
}

func render(r report.Renderer, rep *report.Report, w io.Writer) error {
	if err := r.Render(w, rep); err != nil {
		return fmt.Errorf("rendering %s report: %w", r.Format(), err)
	}
	return nil
}

// recordRun stores run in the history database. Failures are logged and
// never fail the diff.
func recordRun(cmd *cobra.Command, path string, run *history.Run) {
	if path == "" {
		path = filepath.Join(config.Dir, history.FileName)
	}
	store, err := history.Open(path, logger)
	if err != nil {
		logger.Warn("History unavailable", "error", err.Error())
		return
	}
	defer store.Close()
	if err := store.Record(cmd.Context(), run); err != nil {
		logger.Warn("Failed to record run", "error", err.Error())
		return
	}
	logger.Debug("Run recorded", "runId", run.ID)
}
