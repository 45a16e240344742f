package store

import (
	"context"
	"fmt"
	"time"
)

// Run is one finished analysis.
type Run struct {
	ID         int64     `json:"id"`
	JobID      string    `json:"job_id"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	Validity   string    `json:"validity"`
	Warnings   int       `json:"warnings"`
	Errors     int       `json:"errors"`
	Fatal      string    `json:"fatal,omitempty"`
	ReportText string    `json:"report,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RecordRun appends a run to the history.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	_, err := s.exec(ctx,
		`INSERT INTO runs (job_id, source, status, validity, warnings, errors, fatal, report_text, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.JobID, run.Source, run.Status, run.Validity, run.Warnings, run.Errors, run.Fatal, run.ReportText,
		run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record run for %s: %w", run.Source, err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := `SELECT id, job_id, source, status, validity, warnings, errors, fatal, report_text, started_at, finished_at
		FROM runs ORDER BY finished_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run             Run
			started, finish string
		)
		if err := rows.Scan(&run.ID, &run.JobID, &run.Source, &run.Status, &run.Validity,
			&run.Warnings, &run.Errors, &run.Fatal, &run.ReportText, &started, &finish); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, _ = time.Parse(timeLayout, started)
		run.FinishedAt, _ = time.Parse(timeLayout, finish)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// PruneRuns keeps the newest keep runs and deletes the rest.
func (s *Store) PruneRuns(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.exec(ctx,
		`DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY finished_at DESC, id DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
