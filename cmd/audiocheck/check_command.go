package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"audiocheck/internal/job"
	"audiocheck/internal/report"
)

type checkOptions struct {
	showReport bool
	showInfo   bool
	jsonOutput bool
	htmlDir    string
	timeout    time.Duration
}

// checkResult is the per-source outcome printed as a table row or JSON.
type checkResult struct {
	Source   string `json:"source"`
	JobID    string `json:"job_id,omitempty"`
	Status   string `json:"status"`
	Validity string `json:"validity,omitempty"`
	Warnings int    `json:"warnings"`
	Errors   int    `json:"errors"`
	Fatal    string `json:"fatal,omitempty"`
	Report   string `json:"report,omitempty"`
	Info     string `json:"information,omitempty"`
	HTML     string `json:"html,omitempty"`

	status job.Status
	failed bool
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check <path|url>...",
		Short: "Analyse audio files and print their verdicts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, ctx, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.showReport, "report", false, "Print the validation report of every file")
	cmd.Flags().BoolVar(&opts.showInfo, "info", false, "Print the information document of every file")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().StringVar(&opts.htmlDir, "html-dir", "", "Write an HTML validation report per file into this directory")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Give up on files still running after this long (0 waits forever)")
	return cmd
}

func runCheck(cmd *cobra.Command, cc *commandContext, sources []string, opts checkOptions) error {
	ctx := commandCtx(cmd.Context())
	eng, err := cc.newRuntime(nil)
	if err != nil {
		return err
	}
	defer eng.shutdown()

	type submitted struct {
		source string
		job    *job.Job
		err    error
	}
	jobs := make([]submitted, 0, len(sources))
	for _, source := range sources {
		j, err := eng.manager.Submit(source)
		jobs = append(jobs, submitted{source: source, job: j, err: err})
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	notifier := cc.notifier()
	htmlNames := map[string]bool{}
	results := make([]checkResult, 0, len(jobs))
	failed := 0
	for _, s := range jobs {
		var res checkResult
		if s.err != nil {
			res = checkResult{Source: s.source, Status: job.StatusError.String(), Fatal: s.err.Error(), status: job.StatusError, failed: true}
		} else {
			res = collect(ctx, s.job, opts)
			publishVerdict(ctx, notifier, eng.logger, s.job)
		}
		if res.failed {
			failed++
		}
		if opts.htmlDir != "" && s.job != nil {
			if path, err := writeHTML(opts.htmlDir, s.job, htmlNames); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "write html report for %s: %v\n", s.source, err)
			} else {
				res.HTML = path
			}
		}
		results = append(results, res)
	}

	if opts.jsonOutput {
		if err := writeJSON(cmd, results); err != nil {
			return err
		}
	} else {
		printCheckResults(cmd, results, opts)
	}
	if err := cmd.Context().Err(); err != nil {
		return err
	}
	if failed > 0 {
		return failuresError(failed, len(results))
	}
	return nil
}

// collect waits for j within ctx and snapshots its outcome.
func collect(ctx context.Context, j *job.Job, opts checkOptions) checkResult {
	done := make(chan struct{})
	go func() {
		j.WaitForCompletion(0)
		close(done)
	}()
	res := checkResult{Source: j.Source(), JobID: j.ID()}
	select {
	case <-done:
	case <-ctx.Done():
		res.Status = "timeout"
		res.Fatal = ctx.Err().Error()
		res.status = j.Status()
		res.failed = true
		return res
	}

	res.status = j.Status()
	res.Status = res.status.String()
	res.failed = res.status != job.StatusPassed && res.status != job.StatusWarnings
	rep := j.Report()
	if rep == nil {
		return res
	}
	summary := rep.Summary()
	res.Validity = summary.Validity.String()
	res.Warnings = summary.Warnings
	res.Errors = summary.Errors
	res.Fatal = summary.Fatal
	if opts.showReport {
		res.Report = rep.Text(report.Validation)
	}
	if opts.showInfo {
		res.Info = rep.Text(report.Information)
	}
	return res
}

// writeHTML writes the validation document as <name>.html. Names already
// used in this invocation get the job id appended.
func writeHTML(dir string, j *job.Job, used map[string]bool) (string, error) {
	rep := j.Report()
	if rep == nil {
		return "", errors.New("no report")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := strings.TrimSuffix(j.Name(), filepath.Ext(j.Name()))
	if name == "" {
		name = j.ID()
	}
	if used[name] {
		name += "-" + j.ID()
	}
	used[name] = true
	path := filepath.Join(dir, name+".html")
	if err := os.WriteFile(path, []byte(rep.HTML(report.Validation)), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func printCheckResults(cmd *cobra.Command, results []checkResult, opts checkOptions) {
	out := cmd.OutOrStdout()
	color := colorEnabled(out)
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := r.Status
		if r.Status != "timeout" {
			status = statusLabel(r.status, color)
		}
		rows = append(rows, []string{
			r.Source,
			status,
			strconv.Itoa(r.Warnings),
			strconv.Itoa(r.Errors),
			r.Fatal,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Source", "Status", "Warnings", "Errors", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
	for _, r := range results {
		if r.Report != "" {
			fmt.Fprintf(out, "\n== %s ==\n%s", r.Source, r.Report)
		}
		if r.Info != "" {
			fmt.Fprintf(out, "\n== %s (information) ==\n%s", r.Source, r.Info)
		}
		if r.HTML != "" {
			fmt.Fprintf(out, "HTML report: %s\n", r.HTML)
		}
	}
}
