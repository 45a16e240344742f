package job

import (
	"fmt"

	"audiocheck/internal/report"
)

// Status is the lifecycle state of a Job.
type Status int

const (
	StatusQueued Status = iota
	StatusDownloading
	StatusAnalyzing
	StatusPassed
	StatusWarnings
	StatusFailed
	StatusError
	StatusDisposed
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusDownloading:
		return "downloading"
	case StatusAnalyzing:
		return "analyzing"
	case StatusPassed:
		return "passed"
	case StatusWarnings:
		return "warnings"
	case StatusFailed:
		return "failed"
	case StatusError:
		return "error"
	case StatusDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Verdict reports whether s is one of the terminal analysis outcomes.
func (s Status) Verdict() bool {
	return s >= StatusPassed && s <= StatusError
}

// Active reports whether a run is pending or in progress.
func (s Status) Active() bool {
	return s == StatusQueued || s == StatusDownloading || s == StatusAnalyzing
}

// statusFor maps a closed report onto a verdict. A fatal override or an
// INCOMPLETE aggregate is an error.
func statusFor(rep *report.Report) Status {
	if _, fatal := rep.Fatal(); fatal {
		return StatusError
	}
	switch rep.Validity() {
	case report.Pass:
		return StatusPassed
	case report.Warn:
		return StatusWarnings
	case report.Fail:
		return StatusFailed
	default:
		return StatusError
	}
}
