package preflight

import (
	"context"
	"fmt"

	"audiocheck/internal/config"
	"audiocheck/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory and binary checks for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckFreeSpace("Cache free space", cfg.Paths.CacheDir, uint64(cfg.Download.MinFreeMiB)*1024*1024),
	}
	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, fromStatus(status))
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

func fromStatus(status deps.Status) Result {
	r := Result{Name: status.Name, Passed: status.Available || status.Optional}
	switch {
	case status.Available && status.Version != "":
		r.Detail = fmt.Sprintf("%s (%s)", status.Command, status.Version)
	case status.Available:
		r.Detail = status.Command
	case status.Optional:
		r.Detail = status.Detail + " (optional)"
	default:
		r.Detail = status.Detail
	}
	return r
}
