package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"audiocheck/internal/job"
	"audiocheck/internal/scheduler"
	"audiocheck/internal/testsupport"
	"audiocheck/internal/validator"
)

type recorder struct {
	manager *job.Manager

	mu    sync.Mutex
	paths []string
}

func (r *recorder) Submit(source string) (*job.Job, error) {
	r.mu.Lock()
	r.paths = append(r.paths, source)
	r.mu.Unlock()
	return r.manager.Submit(source)
}

func (r *recorder) submitted() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func newRecorder(t *testing.T) *recorder {
	t.Helper()
	registry, err := validator.NewRegistry(validator.Builtins()[:1], validator.Options{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	pool := scheduler.New(scheduler.Options{Workers: 1})
	m, err := job.NewManager(job.Options{
		Pool:     pool,
		Registry: registry,
		Decoder: &testsupport.Decoder{
			Header:  testsupport.Header(44100, 2),
			Samples: testsupport.Constant(44100, 2, 1000, 1),
		},
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() {
		m.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = pool.Shutdown(ctx)
	})
	return &recorder{manager: m}
}

func startWatcher(t *testing.T, opts Options) (context.CancelFunc, <-chan error) {
	t.Helper()
	w, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	return cancel, done
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	rec := newRecorder(t)
	if _, err := New(Options{Dir: t.TempDir(), LockPath: "x.lock"}); err == nil {
		t.Fatal("missing submitter must fail")
	}
	if _, err := New(Options{Submitter: rec, LockPath: "x.lock"}); err == nil {
		t.Fatal("missing dir must fail")
	}
	if _, err := New(Options{Submitter: rec, Dir: t.TempDir()}); err == nil {
		t.Fatal("missing lock path must fail")
	}
}

func TestMatchesNormalizesExtensions(t *testing.T) {
	w, err := New(Options{
		Dir:        t.TempDir(),
		LockPath:   filepath.Join(t.TempDir(), "w.lock"),
		Extensions: []string{"MP3", " .wav ", ""},
		Submitter:  newRecorder(t),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for path, want := range map[string]bool{
		"/a/b.mp3":  true,
		"/a/b.MP3":  true,
		"/a/b.wav":  true,
		"/a/b.flac": false,
		"/a/mp3":    false,
	} {
		if got := w.Matches(path); got != want {
			t.Errorf("Matches(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestSubmitsSettledMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder(t)
	var (
		mu   sync.Mutex
		jobs []*job.Job
	)
	startWatcher(t, Options{
		Dir:        dir,
		LockPath:   filepath.Join(t.TempDir(), "watch.lock"),
		Extensions: []string{".mp3"},
		Debounce:   50 * time.Millisecond,
		Submitter:  rec,
		OnJob: func(j *job.Job) {
			mu.Lock()
			jobs = append(jobs, j)
			mu.Unlock()
		},
	})
	time.Sleep(50 * time.Millisecond)

	target := filepath.Join(dir, "episode.mp3")
	f, err := os.Create(target)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for range 3 {
		if _, err := f.Write(make([]byte, 512)); err != nil {
			t.Fatalf("write: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	_ = f.Close()
	testsupport.WriteFile(t, filepath.Join(dir, "notes.txt"), 10)
	testsupport.WriteFile(t, filepath.Join(dir, ".hidden.mp3"), 10)

	waitFor(t, "submission", func() bool { return len(rec.submitted()) >= 1 })
	time.Sleep(200 * time.Millisecond)
	got := rec.submitted()
	if len(got) != 1 || got[0] != target {
		t.Fatalf("submitted = %v", got)
	}

	mu.Lock()
	j := jobs[0]
	mu.Unlock()
	if !j.WaitForCompletion(5 * time.Second) {
		t.Fatal("job did not finish")
	}
	if j.Status() != job.StatusPassed {
		t.Fatalf("status = %s", j.Status())
	}
}

func TestScanExistingSubmitsPresentFiles(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "a.mp3"), 10)
	testsupport.WriteFile(t, filepath.Join(dir, "b.mp3"), 10)
	rec := newRecorder(t)
	startWatcher(t, Options{
		Dir:          dir,
		LockPath:     filepath.Join(t.TempDir(), "watch.lock"),
		Extensions:   []string{".mp3"},
		Debounce:     20 * time.Millisecond,
		ScanExisting: true,
		Submitter:    rec,
	})
	waitFor(t, "both files", func() bool { return len(rec.submitted()) == 2 })
}

func TestSecondWatcherIsRefused(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "state", "watch.lock")
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	held := flock.New(lockPath)
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	defer held.Unlock()

	w, err := New(Options{Dir: t.TempDir(), LockPath: lockPath, Submitter: newRecorder(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("Run = %v, want ErrAlreadyRunning", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	opts := OptionsFromConfig(cfg, "/srv/inbox", Options{})
	if opts.Dir != "/srv/inbox" || opts.LockPath != cfg.LockPath() || opts.Debounce != cfg.WatchDebounce() {
		t.Fatalf("opts = %+v", opts)
	}
}
