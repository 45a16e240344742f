package preflight

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"audiocheck/internal/deps"
	"audiocheck/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if r := CheckFreeSpace("cache", dir, 0); !r.Passed || !strings.Contains(r.Detail, "free") {
		t.Fatalf("zero minimum = %+v", r)
	}
	if r := CheckFreeSpace("cache", dir, math.MaxUint64); r.Passed || !strings.Contains(r.Detail, "need") {
		t.Fatalf("impossible minimum = %+v", r)
	}
	if r := CheckFreeSpace("cache", filepath.Join(dir, "missing"), 0); r.Passed {
		t.Fatal("missing path must fail")
	}
}

func TestRunAllWithStubbedBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	results := RunAll(context.Background(), cfg)
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	if got := strings.Join(names, ","); got != "Cache directory,State directory,Cache free space,FFmpeg,FFprobe" {
		t.Fatalf("checks = %s", got)
	}
}

func TestRunAllReportsMissingBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Decoder.FFmpeg = "clearly-not-present-ffmpeg"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	failed := Failed(RunAll(context.Background(), cfg))
	if len(failed) == 0 || failed[0].Name != "FFmpeg" {
		t.Fatalf("failed = %+v", failed)
	}
}

func TestFromStatusOptional(t *testing.T) {
	r := fromStatus(deps.Status{Name: "x", Optional: true, Detail: "binary \"x\" not found"})
	if !r.Passed || !strings.HasSuffix(r.Detail, "(optional)") {
		t.Fatalf("result = %+v", r)
	}
	if RunAll(context.Background(), nil) != nil {
		t.Fatal("nil config must produce no results")
	}
}
