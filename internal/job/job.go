package job

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"audiocheck/internal/fileutil"
	"audiocheck/internal/logging"
	"audiocheck/internal/report"
	"audiocheck/internal/scheduler"
)

// ErrDisposed is returned by operations on a disposed job.
var ErrDisposed = errors.New("job: already disposed")

// Job is one audio file under test.
type Job struct {
	id       string
	source   string
	name     string
	remote   bool
	created  time.Time
	manager  *Manager
	logger   *slog.Logger
	notifier *notifier

	// submitMu serializes resubmission so at most one run is live.
	submitMu sync.Mutex

	mu        sync.Mutex
	status    Status
	current   int64
	max       int64
	handle    *scheduler.Handle
	gen       uint64
	rep       *report.Report
	localPath string
	cachePath string
}

// ID returns the job's UUID.
func (j *Job) ID() string { return j.id }

// Source returns the path or URL the job was created from.
func (j *Job) Source() string { return j.source }

// Name returns the display file name.
func (j *Job) Name() string { return j.name }

// Remote reports whether the source is downloaded.
func (j *Job) Remote() bool { return j.remote }

// Created returns the construction time.
func (j *Job) Created() time.Time { return j.created }

// Status returns the current state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Progress returns the completed fraction of the current stage in [0,1], or
// -1 when the total is unknown or no stage is running.
func (j *Job) Progress() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.max <= 0 {
		return -1
	}
	f := float64(j.current) / float64(j.max)
	return min(max(f, 0), 1)
}

// Report returns the report of the last finished run, or nil.
func (j *Job) Report() *report.Report {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.rep
}

// LocalPath returns the file being analyzed; empty for remote jobs until the
// download completes.
func (j *Job) LocalPath() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.localPath
}

// WaitForCompletion blocks until the live run finishes or timeout elapses and
// reports whether it finished. A timeout of zero or less waits indefinitely.
func (j *Job) WaitForCompletion(timeout time.Duration) bool {
	j.mu.Lock()
	h := j.handle
	j.mu.Unlock()
	if h == nil {
		return true
	}
	if timeout <= 0 {
		h.Wait()
		return true
	}
	return h.WaitTimeout(timeout)
}

// Reanalyze runs the analysis again on the cached file. It is a no-op while a
// run is pending or downloading. Any live run is cancelled and awaited first.
func (j *Job) Reanalyze() error {
	j.submitMu.Lock()
	defer j.submitMu.Unlock()

	j.mu.Lock()
	switch {
	case j.status == StatusDisposed:
		j.mu.Unlock()
		return ErrDisposed
	case j.status == StatusDownloading:
		j.mu.Unlock()
		return nil
	case j.status == StatusQueued && j.handle != nil && !j.handle.IsDone():
		j.mu.Unlock()
		return nil
	}
	prev := j.handle
	j.mu.Unlock()

	if prev != nil {
		prev.Cancel()
		prev.Wait()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status == StatusDisposed {
		return ErrDisposed
	}
	j.submitLocked(j.remote && j.localPath == "")
	j.logger.Debug("reanalysis scheduled")
	return nil
}

// Dispose cancels any live run without waiting, deletes the downloaded copy,
// and moves the job to disposed. Calling it again does nothing.
func (j *Job) Dispose() {
	j.mu.Lock()
	if j.status == StatusDisposed {
		j.mu.Unlock()
		return
	}
	prev := j.handle
	cache := j.cachePath
	j.cachePath = ""
	j.gen++
	j.setStatusLocked(StatusDisposed)
	j.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
	if err := fileutil.RemoveIfExists(cache); err != nil {
		logging.WarnWithContext(j.logger, "remove cached download failed", "cache_cleanup",
			logging.String("path", cache), logging.Error(err))
	}
	j.manager.forget(j)
	j.logger.Debug("job disposed")
}

func (j *Job) start(download bool) {
	j.submitMu.Lock()
	defer j.submitMu.Unlock()
	j.mu.Lock()
	defer j.mu.Unlock()
	j.submitLocked(download)
}

func (j *Job) submitLocked(download bool) {
	j.gen++
	j.setStatusLocked(StatusQueued)
	j.setProgressLocked(0, -1)
	j.handle = j.manager.opts.Pool.Submit(j.task(j.gen, download))
}

func (j *Job) setStatusLocked(s Status) {
	if j.status == s {
		return
	}
	j.status = s
	j.notifier.notify(j)
}

func (j *Job) setProgressLocked(current, max int64) {
	if j.current == current && j.max == max {
		return
	}
	j.current, j.max = current, max
	j.notifier.notify(j)
}

// transition moves a live run into s. It reports false when the run was
// superseded or the job disposed.
func (j *Job) transition(gen uint64, s Status) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if gen != j.gen || j.status == StatusDisposed {
		return false
	}
	j.setStatusLocked(s)
	j.setProgressLocked(0, -1)
	return true
}

func (j *Job) setProgress(gen uint64, current, max int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if gen != j.gen || j.status == StatusDisposed {
		return
	}
	j.setProgressLocked(current, max)
}

// settleQueued returns a cancelled run to queued.
func (j *Job) settleQueued(gen uint64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if gen != j.gen || j.status == StatusDisposed {
		return
	}
	j.setStatusLocked(StatusQueued)
	j.setProgressLocked(0, -1)
}

// finish stores a closed report and its verdict. It reports false for
// superseded runs.
func (j *Job) finish(gen uint64, rep *report.Report) (Status, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if gen != j.gen || j.status == StatusDisposed {
		return j.status, false
	}
	j.rep = rep
	status := statusFor(rep)
	j.setStatusLocked(status)
	j.setProgressLocked(0, -1)
	return status, true
}

// trackCache registers a download target so Dispose can remove it.
func (j *Job) trackCache(gen uint64, path string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if gen != j.gen || j.status == StatusDisposed {
		return false
	}
	j.cachePath = path
	return true
}

// adoptDownload makes a completed download the analysis input.
func (j *Job) adoptDownload(gen uint64, path string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if gen != j.gen || j.status == StatusDisposed {
		return false
	}
	j.localPath = path
	return true
}

func (j *Job) dropCache(path string) {
	j.mu.Lock()
	if j.cachePath == path {
		j.cachePath = ""
	}
	j.mu.Unlock()
	_ = fileutil.RemoveIfExists(path)
}
