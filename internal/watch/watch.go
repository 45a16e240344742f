package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"

	"audiocheck/internal/config"
	"audiocheck/internal/job"
	"audiocheck/internal/logging"
)

// ErrAlreadyRunning is returned by Run when another watcher holds the lock.
var ErrAlreadyRunning = errors.New("watch: another watcher is already running")

// DefaultDebounce applies when Options.Debounce is zero.
const DefaultDebounce = 2 * time.Second

// Submitter accepts settled files. job.Manager implements it.
type Submitter interface {
	Submit(source string) (*job.Job, error)
}

// Options configure a Watcher.
type Options struct {
	Dir        string
	Extensions []string
	Debounce   time.Duration
	LockPath   string
	// ScanExisting submits matching files already present when Run starts.
	ScanExisting bool
	Submitter    Submitter
	// OnJob, when set, is called with every submitted job.
	OnJob  func(*job.Job)
	Logger *slog.Logger
}

// OptionsFromConfig fills the watch settings of opts from cfg.
func OptionsFromConfig(cfg *config.Config, dir string, opts Options) Options {
	opts.Dir = dir
	opts.Extensions = cfg.Watch.Extensions
	opts.Debounce = cfg.WatchDebounce()
	opts.LockPath = cfg.LockPath()
	return opts
}

type pending struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

type seen struct {
	size    int64
	modTime time.Time
}

// Watcher observes one directory.
type Watcher struct {
	opts   Options
	logger *slog.Logger
	lock   *flock.Flock

	mu        sync.Mutex
	closed    bool
	pending   map[string]*pending
	submitted map[string]seen
}

// New validates opts. The directory is not touched until Run.
func New(opts Options) (*Watcher, error) {
	if opts.Submitter == nil {
		return nil, errors.New("watch: submitter is required")
	}
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("watch: directory is required")
	}
	if opts.LockPath == "" {
		return nil, errors.New("watch: lock path is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	exts := make([]string, 0, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	opts.Extensions = exts
	abs, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", opts.Dir, err)
	}
	opts.Dir = abs
	return &Watcher{
		opts:      opts,
		logger:    logging.NewComponentLogger(opts.Logger, "watch").With(logging.String("dir", abs)),
		lock:      flock.New(opts.LockPath),
		pending:   make(map[string]*pending),
		submitted: make(map[string]seen),
	}, nil
}

// Run acquires the single-instance lock and watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(w.opts.LockPath), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := w.lock.Unlock(); err != nil {
			w.logger.Warn("failed to release watch lock", logging.Error(err))
		}
	}()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.opts.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.opts.Dir, err)
	}
	defer w.stopTimers()

	w.logger.Info("watching folder",
		logging.String("lock", w.opts.LockPath),
		logging.Duration("debounce", w.opts.Debounce),
		logging.Any("extensions", w.opts.Extensions),
	)
	if w.opts.ScanExisting {
		w.scan()
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped")
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "fsnotify error", "watch_error", logging.Error(err))
		}
	}
}

func (w *Watcher) scan() {
	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		logging.WarnWithContext(w.logger, "scan watch folder failed", "watch_scan", logging.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			w.settle(filepath.Join(w.opts.Dir, entry.Name()))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := event.Name
	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		w.forget(path)
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		w.settle(path)
	}
}

// Matches reports whether path has one of the configured extensions. An
// empty list matches everything.
func (w *Watcher) Matches(path string) bool {
	if len(w.opts.Extensions) == 0 {
		return true
	}
	return slices.Contains(w.opts.Extensions, strings.ToLower(filepath.Ext(path)))
}

// settle (re)starts the debounce timer for path.
func (w *Watcher) settle(path string) {
	if !w.Matches(path) || strings.HasPrefix(filepath.Base(path), ".") {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
	}
	p := &pending{size: info.Size(), modTime: info.ModTime()}
	p.timer = time.AfterFunc(w.opts.Debounce, func() { w.check(path) })
	w.pending[path] = p
}

func (w *Watcher) check(path string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if !ok || w.closed {
		w.mu.Unlock()
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		delete(w.pending, path)
		w.mu.Unlock()
		return
	}
	if info.Size() != p.size || !info.ModTime().Equal(p.modTime) {
		p.size, p.modTime = info.Size(), info.ModTime()
		p.timer = time.AfterFunc(w.opts.Debounce, func() { w.check(path) })
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	current := seen{size: info.Size(), modTime: info.ModTime()}
	if prev, ok := w.submitted[path]; ok && prev.size == current.size && prev.modTime.Equal(current.modTime) {
		w.mu.Unlock()
		return
	}
	w.submitted[path] = current
	w.mu.Unlock()

	j, err := w.opts.Submitter.Submit(path)
	if err != nil {
		logging.WarnWithContext(w.logger, "submit watched file failed", "watch_submit",
			logging.String("path", path), logging.Error(err))
		return
	}
	w.logger.Info("queued watched file",
		logging.String("path", path),
		logging.String(logging.FieldJobID, j.ID()),
	)
	if w.opts.OnJob != nil {
		w.opts.OnJob(j)
	}
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
		delete(w.pending, path)
	}
	delete(w.submitted, path)
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	for _, p := range w.pending {
		p.timer.Stop()
	}
	clear(w.pending)
}
