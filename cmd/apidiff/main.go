package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"apidiff/internal/errors"
)

// Exit codes. Breaking changes only fail the run with --fail-on-breaking.
const (
	exitOK       = 0
	exitBreaking = 1
	exitError    = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	closeLogger()
	if err == nil {
		return exitOK
	}
	if stderrors.Is(err, errBreakingChanges) {
		return exitBreaking
	}
	printError(err)
	return exitError
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var coded *errors.Error
	if stderrors.As(err, &coded) && len(coded.SuggestedFixes) > 0 {
		fmt.Fprintln(os.Stderr, "\nSuggested fixes:")
		for _, fix := range coded.SuggestedFixes {
			if fix.Command != "" {
				fmt.Fprintf(os.Stderr, "  %s\n    %s\n", fix.Description, fix.Command)
			} else {
				fmt.Fprintf(os.Stderr, "  %s\n", fix.Description)
			}
		}
	}
}
