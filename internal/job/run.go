package job

import (
	"context"
	"errors"
	"os"
	"time"

	"audiocheck/internal/analysis"
	"audiocheck/internal/audio"
	"audiocheck/internal/logging"
	"audiocheck/internal/report"
	"audiocheck/internal/scheduler"
	"audiocheck/internal/services"
	"audiocheck/internal/settings"
	"audiocheck/internal/store"
	"audiocheck/internal/validator"
)

func (j *Job) task(gen uint64, download bool) scheduler.Task {
	return func(ctx context.Context) error {
		ctx = services.WithJobID(ctx, j.id)
		started := time.Now()
		if download {
			if !j.transition(gen, StatusDownloading) {
				return nil
			}
			dctx := services.WithStage(ctx, "download")
			if err := j.download(dctx, gen); err != nil {
				return j.fail(ctx, gen, report.New(j.source), started, err, settings.MsgDownloadFailed)
			}
		}
		if !j.transition(gen, StatusAnalyzing) {
			return nil
		}
		return j.analyze(services.WithStage(ctx, "analysis"), gen, started)
	}
}

func (j *Job) analyze(ctx context.Context, gen uint64, started time.Time) error {
	m := j.manager
	path := j.LocalPath()
	rep := report.New(j.source)

	info, err := os.Stat(path)
	if err != nil {
		return j.fail(ctx, gen, rep, started, services.Wrap(services.ErrTransient, "analysis", "stat", path, err), settings.MsgReadFailed)
	}

	stream, err := m.opts.Decoder.Open(ctx, path)
	if err != nil {
		var formatErr *audio.FormatError
		if errors.As(err, &formatErr) {
			guess := formatErr.Guess
			if guess == "" {
				guess = "unknown"
			}
			return j.failWith(ctx, gen, rep, started, err, m.opts.Settings.Text(settings.MsgUnsupported, guess))
		}
		return j.fail(ctx, gen, rep, started, err, settings.MsgReadFailed)
	}
	defer stream.Close()

	validators, err := m.opts.Registry.Active(ctx)
	if err != nil {
		return j.fail(ctx, gen, rep, started, err, settings.MsgReadFailed)
	}

	res, err := analysis.Run(ctx, analysis.Input{
		File: validator.File{
			Path:   path,
			Name:   j.name,
			Size:   info.Size(),
			Source: j.source,
		},
		Stream:     stream,
		Validators: validators,
		Report:     rep,
		Settings:   m.opts.Settings,
		Progress: func(current, total int64) {
			j.setProgress(gen, current, total)
		},
		Logger: j.logger,
	})
	if services.IsCancellation(err) {
		j.settleQueued(gen)
		j.logger.Debug("analysis cancelled", logging.Int64("frames", res.Frames))
		return err
	}
	j.complete(ctx, gen, rep, started)
	return err
}

// fail files err as the fatal message of rep, or settles back to queued when
// err is a cancellation.
func (j *Job) fail(ctx context.Context, gen uint64, rep *report.Report, started time.Time, err error, key string) error {
	return j.failWith(ctx, gen, rep, started, err, j.manager.opts.Settings.Text(key, err))
}

func (j *Job) failWith(ctx context.Context, gen uint64, rep *report.Report, started time.Time, err error, message string) error {
	if services.IsCancellation(err) || ctx.Err() != nil {
		j.settleQueued(gen)
		return err
	}
	_ = rep.SetFatal(message)
	if closeErr := rep.Close(); closeErr != nil {
		j.logger.Warn("close report failed", logging.Error(closeErr))
	}
	j.complete(ctx, gen, rep, started)
	return err
}

func (j *Job) complete(ctx context.Context, gen uint64, rep *report.Report, started time.Time) {
	status, ok := j.finish(gen, rep)
	if !ok {
		return
	}
	summary := rep.Summary()
	attrs := []logging.Attr{
		logging.String("status", status.String()),
		logging.String("validity", summary.Validity.String()),
		logging.Int("warnings", summary.Warnings),
		logging.Int("errors", summary.Errors),
		logging.Duration("elapsed", time.Since(started)),
	}
	if status == StatusError {
		logging.WarnWithContext(j.logger, "analysis ended in error", "analysis_error", attrs...)
	} else {
		j.logger.Info("analysis finished", logging.Args(attrs...)...)
	}

	history := j.manager.opts.History
	if history == nil {
		return
	}
	run := store.Run{
		JobID:      j.id,
		Source:     j.source,
		Status:     status.String(),
		Validity:   summary.Validity.String(),
		Warnings:   summary.Warnings,
		Errors:     summary.Errors,
		Fatal:      summary.Fatal,
		ReportText: rep.Text(report.Validation),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err := history.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		logging.WarnWithContext(j.logger, "record run history failed", "history_write", logging.Error(err))
	}
}
