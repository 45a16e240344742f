package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"audiocheck/internal/logging"
	"audiocheck/internal/services"
)

// DefaultIdleTimeout is how long an idle worker waits before exiting.
const DefaultIdleTimeout = 15 * time.Minute

// ErrPoolClosed is recorded on handles submitted after Shutdown.
var ErrPoolClosed = errors.New("scheduler: pool closed")

// Task is one unit of background work.
type Task func(ctx context.Context) error

// Options configure a pool.
type Options struct {
	// Workers caps concurrent tasks. Zero means DefaultWorkers().
	Workers     int
	IdleTimeout time.Duration
	Logger      *slog.Logger
}

// DefaultWorkers returns max(2, NumCPU).
func DefaultWorkers() int {
	return max(2, runtime.NumCPU())
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Workers   int
	Idle      int
	Queued    int
	Running   int
	Completed uint64
	Max       int
}

// Pool runs submitted tasks on lazily started workers.
type Pool struct {
	mu          sync.Mutex
	queue       []*Handle
	workers     int
	idle        int
	running     int
	completed   uint64
	nextID      uint64
	closed      bool
	max         int
	idleTimeout time.Duration

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
}

// New returns an empty pool. No goroutines start until the first Submit.
func New(opts Options) *Pool {
	size := opts.Workers
	if size <= 0 {
		size = DefaultWorkers()
	}
	idle := opts.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		max:         size,
		idleTimeout: idle,
		wake:        make(chan struct{}, size),
		ctx:         ctx,
		cancel:      cancel,
		logger:      logging.NewComponentLogger(opts.Logger, "scheduler"),
	}
}

// Size returns the worker cap.
func (p *Pool) Size() int {
	return p.max
}

// Submit queues task and returns its handle.
func (p *Pool) Submit(task Task) *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	h := newHandle(p.nextID, task)
	if p.closed {
		h.finish(ErrPoolClosed, true)
		return h
	}
	p.queue = append(p.queue, h)
	if p.idle > 0 {
		select {
		case p.wake <- struct{}{}:
		default:
		}
	}
	// idle only drops once a woken worker runs, so a burst can outnumber
	// the idle workers before any of them has picked up a task.
	if len(p.queue) > p.idle && p.workers < p.max {
		p.workers++
		p.wg.Add(1)
		go p.worker(p.workers)
	}
	return h
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	logger := p.logger.With(logging.Int("worker_id", id))
	logger.Debug("worker started")
	for {
		p.mu.Lock()
		if len(p.queue) > 0 {
			h := p.queue[0]
			p.queue[0] = nil
			p.queue = p.queue[1:]
			p.mu.Unlock()
			p.execute(logger, h)
			continue
		}
		if p.closed {
			p.workers--
			p.mu.Unlock()
			return
		}
		p.idle++
		p.mu.Unlock()

		timer := time.NewTimer(p.idleTimeout)
		timedOut := false
		select {
		case <-p.wake:
		case <-timer.C:
			timedOut = true
		case <-p.ctx.Done():
		}
		timer.Stop()

		p.mu.Lock()
		p.idle--
		if (timedOut && len(p.queue) == 0) || p.closed {
			p.workers--
			p.mu.Unlock()
			logger.Debug("worker exiting", logging.Bool("idle_timeout", timedOut))
			return
		}
		p.mu.Unlock()
	}
}

func (p *Pool) execute(logger *slog.Logger, h *Handle) {
	ctx, ok := h.start(p.ctx)
	if !ok {
		return
	}
	p.mu.Lock()
	p.running++
	p.mu.Unlock()

	err := run(ctx, h.task)
	h.finish(err, false)

	p.mu.Lock()
	p.running--
	p.completed++
	p.mu.Unlock()

	switch {
	case err == nil:
	case services.IsCancellation(err):
		logger.Debug("task cancelled", logging.Any("handle", h.id))
	default:
		logging.WarnWithContext(logger, "task failed", "task_failed",
			logging.Any("handle", h.id),
			logging.Error(err),
		)
	}
}

func run(ctx context.Context, task Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return task(ctx)
}

// Stats reports current pool occupancy.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Workers:   p.workers,
		Idle:      p.idle,
		Queued:    len(p.queue),
		Running:   p.running,
		Completed: p.completed,
		Max:       p.max,
	}
}

// Shutdown cancels queued and running tasks and waits for workers to exit
// or ctx to end.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pending := p.queue
	p.queue = nil
	p.mu.Unlock()

	for _, h := range pending {
		h.Cancel()
	}
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler shutdown: %w", ctx.Err())
	}
}
