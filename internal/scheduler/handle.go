package scheduler

import (
	"context"
	"sync"
	"time"
)

type handleState int

const (
	statePending handleState = iota
	stateRunning
	stateDone
)

// Handle is a cancellable reference to one submitted task.
type Handle struct {
	id   uint64
	task Task

	mu        sync.Mutex
	state     handleState
	cancelled bool
	cancel    context.CancelFunc
	err       error
	done      chan struct{}
}

func newHandle(id uint64, task Task) *Handle {
	return &Handle{id: id, task: task, done: make(chan struct{})}
}

// ID returns the submission sequence number.
func (h *Handle) ID() uint64 {
	return h.id
}

// start moves a pending handle to running. It reports false when the handle
// was cancelled before a worker picked it up.
func (h *Handle) start(parent context.Context) (context.Context, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != statePending {
		return nil, false
	}
	ctx, cancel := context.WithCancel(parent)
	h.state = stateRunning
	h.cancel = cancel
	return ctx, true
}

func (h *Handle) finish(err error, cancelled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.finishLocked(err, cancelled)
}

func (h *Handle) finishLocked(err error, cancelled bool) {
	if h.state == stateDone {
		return
	}
	h.state = stateDone
	h.err = err
	if cancelled {
		h.cancelled = true
	}
	if h.cancel != nil {
		h.cancel()
	}
	close(h.done)
}

// Cancel prevents a pending task from running, or cancels the context of a
// running one. It does not wait.
func (h *Handle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.state {
	case statePending:
		h.finishLocked(context.Canceled, true)
	case stateRunning:
		h.cancelled = true
		h.cancel()
	}
}

// IsCancelled reports whether Cancel was called before the task completed.
func (h *Handle) IsCancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

// IsDone reports whether the task finished, failed, or was cancelled.
func (h *Handle) IsDone() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Done is closed once the handle completes.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the task completes. Task errors are logged by the pool
// and never returned here.
func (h *Handle) Wait() {
	<-h.done
}

// WaitTimeout waits up to d and reports whether the task completed.
func (h *Handle) WaitTimeout(d time.Duration) bool {
	if d <= 0 {
		return h.IsDone()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-h.done:
		return true
	case <-timer.C:
		return false
	}
}

// Err returns the task result once done.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}
