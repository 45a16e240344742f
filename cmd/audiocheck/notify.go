package main

import (
	"context"
	"log/slog"

	"audiocheck/internal/job"
	"audiocheck/internal/logging"
	"audiocheck/internal/notifications"
)

func verdictOf(j *job.Job) notifications.Verdict {
	v := notifications.Verdict{Source: j.Source(), Status: j.Status().String()}
	if rep := j.Report(); rep != nil {
		summary := rep.Summary()
		v.Validity = summary.Validity.String()
		v.Warnings = summary.Warnings
		v.Errors = summary.Errors
		v.Fatal = summary.Fatal
	}
	return v
}

// publishVerdict sends the verdict of a finished job. Delivery failures are
// logged and never change the command outcome.
func publishVerdict(ctx context.Context, svc notifications.Service, logger *slog.Logger, j *job.Job) {
	if !j.Status().Verdict() {
		return
	}
	if err := svc.NotifyVerdict(context.WithoutCancel(ctx), verdictOf(j)); err != nil {
		logging.WarnWithContext(logger, "verdict notification failed", "notification_failed",
			logging.String(logging.FieldJobID, j.ID()),
			logging.Error(err),
		)
	}
}
