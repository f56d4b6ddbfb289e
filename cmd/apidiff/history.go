package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"apidiff/internal/config"
	"apidiff/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [RUN_ID]",
	Short: "Show recorded diff runs",
	Long: `List recent diff runs from the history database, newest first, or show
a single run by ID.

Examples:
  apidiff history
  apidiff history --limit 50
  apidiff history 3f2a9c1e-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := cfg.History.Path
	if path == "" {
		path = filepath.Join(config.Dir, history.FileName)
	}
	store, err := history.Open(path, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var runs []history.Run
	if len(args) == 1 {
		r, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("run %q not found", args[0])
		}
		runs = append(runs, *r)
	} else {
		runs, err = store.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tOLD\tNEW\tCHANGES\tBREAKING\tWAIVED\tBUMP")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			shortID(r.ID), r.CreatedAt.Local().Format(time.DateTime),
			r.OldPath, r.NewPath, r.Total, r.Breaking, r.Waived, r.SemverAdvice)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
