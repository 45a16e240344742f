package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"audiocheck/internal/job"
)

// exitError carries a process exit code for outcomes already reported on
// stdout.
type exitError struct {
	code int
	msg  string
}

func (e exitError) Error() string { return e.msg }

func exitCode(err error) int {
	var exit exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	return 1
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// colorEnabled reports whether w is an interactive terminal that should get
// ANSI colours. NO_COLOR disables them.
func colorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func statusLabel(status job.Status, color bool) string {
	label := status.String()
	if !color {
		return label
	}
	switch status {
	case job.StatusPassed:
		return text.FgGreen.Sprint(label)
	case job.StatusWarnings:
		return text.FgYellow.Sprint(label)
	case job.StatusFailed, job.StatusError:
		return text.FgRed.Sprint(label)
	default:
		return label
	}
}

func failuresError(failed, total int) error {
	return exitError{code: 1, msg: fmt.Sprintf("%d of %d files did not pass", failed, total)}
}
