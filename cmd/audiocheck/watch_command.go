package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"audiocheck/internal/job"
	"audiocheck/internal/logging"
	"audiocheck/internal/notifications"
	"audiocheck/internal/preflight"
	"audiocheck/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var (
		scanExisting bool
		skipChecks   bool
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Analyse every audio file that lands in a folder until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx := commandCtx(cmd.Context())
			out := cmd.OutOrStdout()

			if !skipChecks {
				if failed := preflight.Failed(preflight.RunAll(runCtx, cfg)); len(failed) > 0 {
					parts := make([]string, 0, len(failed))
					for _, r := range failed {
						parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
					}
					return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
				}
			}

			logger, err := ctx.loggerValue()
			if err != nil {
				return err
			}
			eng, err := ctx.newRuntime(func(j *job.Job) {
				logger.Debug("job changed",
					logging.String(logging.FieldJobID, j.ID()),
					logging.String("status", j.Status().String()),
					logging.Float64("progress", j.Progress()),
				)
			})
			if err != nil {
				return err
			}
			defer eng.shutdown()

			w, err := watch.New(watch.OptionsFromConfig(cfg, args[0], watch.Options{
				ScanExisting: scanExisting,
				Submitter:    eng.manager,
				OnJob:        retire(runCtx, out, colorEnabled(out), ctx.notifier(), eng.logger),
				Logger:       eng.logger,
			}))
			if err != nil {
				return err
			}
			dir, _ := filepath.Abs(args[0])
			fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", dir)
			err = w.Run(runCtx)
			if errors.Is(err, watch.ErrAlreadyRunning) {
				return fmt.Errorf("%w (lock %s)", err, cfg.LockPath())
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&scanExisting, "scan-existing", false, "Also analyse matching files already in the folder")
	cmd.Flags().BoolVar(&skipChecks, "skip-preflight", false, "Start without checking binaries and directories")
	return cmd
}

// retire prints and publishes the verdict of a watched job and then disposes
// it so a long-running watcher does not accumulate jobs. The run history keeps
// the outcome.
func retire(ctx context.Context, out io.Writer, color bool, svc notifications.Service, logger *slog.Logger) func(*job.Job) {
	var mu sync.Mutex
	return func(j *job.Job) {
		go func() {
			j.WaitForCompletion(0)
			status := j.Status()
			if !status.Verdict() {
				return
			}
			mu.Lock()
			fmt.Fprintf(out, "%s  %s\n", statusLabel(status, color), j.Source())
			mu.Unlock()
			publishVerdict(ctx, svc, logger, j)
			j.Dispose()
			logger.Debug("retired watched job", logging.String(logging.FieldJobID, j.ID()))
		}()
	}
}
