package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"apidiff/internal/config"
	"apidiff/internal/errors"
	"apidiff/internal/scan"
	"apidiff/internal/slogutil"
	"apidiff/internal/version"
)

var (
	verbosity  int
	quiet      bool
	configPath string

	// Set by the root pre-run for every subcommand.
	cfg       *config.Config
	logger    = slogutil.NewDiscardLogger()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "apidiff",
	Short: "apidiff - Java API change detection",
	Long: `apidiff compares two revisions of a Java library's public API and reports
every added, removed and modified class, field and method, classified as
breaking or non-breaking.

A revision is a directory of .java sources, a single .java file, a SCIP
index (.scip) or a baseline snapshot (.apisnap).`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.SetVersionTemplate("apidiff version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress log output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default .apidiff/config.json)")
}

// setup loads configuration and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	c, err := config.Load(wd, configPath)
	if err != nil {
		return errors.New(errors.ConfigInvalid, "failed to load configuration", err)
	}
	cfg = c

	l, closer, err := slogutil.Setup(os.Stderr, slogutil.LevelFromVerbosity(verbosity, quiet), slogutil.FileOptions{
		Path:       cfg.Logging.File,
		Level:      slogutil.LevelFromString(cfg.Logging.Level),
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	logger, logCloser = l, closer
	if err != nil {
		logger.Warn("Log file unavailable, logging to console only", "path", cfg.Logging.File, "error", err.Error())
	}
	logger.Debug("Configuration loaded", "workers", cfg.Scan.Workers, "history", cfg.History.Enabled)
	return nil
}

func closeLogger() {
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
}

// scanOptions maps the scan section of the configuration onto loader
// options.
func scanOptions(c *config.Config, l *slog.Logger) scan.Options {
	return scan.Options{
		Workers:          c.Scan.Workers,
		MaxFileSizeBytes: c.Scan.MaxFileSizeBytes,
		RespectGitignore: c.Scan.RespectGitignore,
		Exclude:          c.Scan.Exclude,
		Logger:           l,
	}
}
