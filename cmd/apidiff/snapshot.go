package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"apidiff/internal/errors"
	"apidiff/internal/scan"
	"apidiff/internal/snapshot"
)

var snapshotOut string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot SRC",
	Short: "Save a revision's API as a baseline snapshot",
	Long: `Extract the API of a revision and write it as a compressed .apisnap
baseline that later diffs can load without re-parsing.

Examples:
  apidiff snapshot src --out baseline.apisnap
  apidiff snapshot index.scip --out release-1.4.apisnap`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "", "Snapshot file to write (required)")
	_ = snapshotCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	out := snapshotOut
	if !strings.HasSuffix(out, snapshot.Ext) {
		return errors.New(errors.InvalidInput, "snapshot file must end in "+snapshot.Ext, nil).WithPath(out)
	}

	rev, err := scan.Load(cmd.Context(), args[0], "snapshot", scanOptions(cfg, logger))
	if err != nil {
		return err
	}
	h, err := snapshot.Write(out, rev.Table)
	if err != nil {
		return err
	}

	abs, _ := filepath.Abs(out)
	logger.Info("Snapshot written", "path", abs, "classes", rev.Stats.Classes)
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d classes, %d fields, %d methods)\n",
		h.Fingerprint, out, rev.Stats.Classes, rev.Stats.Fields, rev.Stats.Methods)
	return nil
}
