package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"audiocheck/internal/store"
	"audiocheck/internal/testsupport"
)

func TestValidatorStateRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, found, err := s.ValidatorEnabled(ctx, "noise"); err != nil || found {
		t.Fatalf("fresh state found=%v err=%v", found, err)
	}
	if err := s.SetValidatorEnabled(ctx, "noise", false); err != nil {
		t.Fatalf("set: %v", err)
	}
	enabled, found, err := s.ValidatorEnabled(ctx, "noise")
	if err != nil || !found || enabled {
		t.Fatalf("after disable enabled=%v found=%v err=%v", enabled, found, err)
	}
	if err := s.SetValidatorEnabled(ctx, "noise", true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if enabled, _, _ := s.ValidatorEnabled(ctx, "noise"); !enabled {
		t.Fatal("upsert did not update flag")
	}
	if err := s.ResetValidator(ctx, "noise"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, found, _ := s.ValidatorEnabled(ctx, "noise"); found {
		t.Fatal("reset left state behind")
	}
}

func TestRunsListNewestFirstAndPrune(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, source := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		run := store.Run{
			JobID:      "job-" + source,
			Source:     source,
			Status:     "passed",
			Validity:   "PASS",
			Warnings:   i,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + time.Second),
		}
		if err := s.RecordRun(ctx, run); err != nil {
			t.Fatalf("record %s: %v", source, err)
		}
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].Source != "c.mp3" || runs[1].Source != "b.mp3" {
		t.Fatalf("runs = %+v", runs)
	}
	if !runs[0].FinishedAt.Equal(base.Add(2*time.Minute + time.Second)) || runs[0].Warnings != 2 {
		t.Fatalf("run fields = %+v", runs[0])
	}

	removed, err := s.PruneRuns(ctx, 1)
	if err != nil || removed != 2 {
		t.Fatalf("prune removed=%d err=%v", removed, err)
	}
	all, err := s.ListRuns(ctx, 0)
	if err != nil || len(all) != 1 || all[0].Source != "c.mp3" {
		t.Fatalf("after prune = %+v, %v", all, err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetValidatorEnabled(context.Background(), "filename", true); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	again, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	if enabled, found, _ := again.ValidatorEnabled(context.Background(), "filename"); !enabled || !found {
		t.Fatal("state lost across reopen")
	}
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := store.OpenPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ForceSchemaVersion(context.Background(), 99); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()
	if _, err := store.OpenPath(path); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
