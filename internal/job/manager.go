package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"audiocheck/internal/audio"
	"audiocheck/internal/config"
	"audiocheck/internal/logging"
	"audiocheck/internal/scheduler"
	"audiocheck/internal/settings"
	"audiocheck/internal/store"
	"audiocheck/internal/validator"
)

// HistoryRecorder persists finished runs. store.Store implements it.
type HistoryRecorder interface {
	RecordRun(ctx context.Context, run store.Run) error
}

// Options wire a Manager to its collaborators.
type Options struct {
	Pool     *scheduler.Pool
	Registry *validator.Registry
	Decoder  audio.Decoder
	Settings *settings.Settings
	Sink     Sink
	History  HistoryRecorder
	Logger   *slog.Logger

	HTTPClient *http.Client
	CacheDir   string
	// ChunkSize is the download read size in bytes.
	ChunkSize int
	// RateLimit caps download bandwidth in bytes per second; zero disables it.
	RateLimit    int
	MinFreeBytes uint64
	UserAgent    string
}

// OptionsFromConfig fills the download settings of opts from cfg.
func OptionsFromConfig(cfg *config.Config, opts Options) Options {
	opts.CacheDir = cfg.Paths.CacheDir
	opts.ChunkSize = cfg.Download.ChunkKiB * 1024
	opts.RateLimit = cfg.Download.RateLimitKiB * 1024
	opts.MinFreeBytes = uint64(cfg.Download.MinFreeMiB) * 1024 * 1024
	opts.UserAgent = cfg.Download.UserAgent
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: cfg.DownloadTimeout()}
	}
	return opts
}

// Manager creates jobs and runs them on the shared pool.
type Manager struct {
	opts   Options
	logger *slog.Logger

	mu   sync.Mutex
	jobs map[string]*Job
}

const defaultChunkSize = 32 * 1024

// NewManager validates opts and returns a manager.
func NewManager(opts Options) (*Manager, error) {
	switch {
	case opts.Pool == nil:
		return nil, errors.New("job manager: pool is required")
	case opts.Registry == nil:
		return nil, errors.New("job manager: registry is required")
	case opts.Decoder == nil:
		return nil, errors.New("job manager: decoder is required")
	}
	if opts.Settings == nil {
		opts.Settings = settings.Default()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	return &Manager{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "job"),
		jobs:   make(map[string]*Job),
	}, nil
}

// FromLocal creates a job for a file on disk and schedules its analysis.
func (m *Manager) FromLocal(path string) (*Job, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("job: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	j := m.newJob(abs, false)
	j.localPath = abs
	j.name = filepath.Base(abs)
	j.start(false)
	return j, nil
}

// FromRemote creates a job for an http(s) URL and schedules download then
// analysis.
func (m *Manager) FromRemote(rawURL string) (*Job, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("job: unsupported url scheme %q", u.Scheme)
	}
	if m.opts.CacheDir == "" {
		return nil, errors.New("job: remote sources need a cache directory")
	}
	j := m.newJob(u.String(), true)
	j.name = nameFromURL(u)
	j.start(true)
	return j, nil
}

// Submit dispatches on the source: http(s) URLs are remote, everything else
// is a local path.
func (m *Manager) Submit(source string) (*Job, error) {
	lower := strings.ToLower(strings.TrimSpace(source))
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return m.FromRemote(source)
	}
	return m.FromLocal(source)
}

// Jobs returns every job that has not been disposed.
func (m *Manager) Jobs() []*Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j)
	}
	return out
}

// Close disposes every job.
func (m *Manager) Close() {
	for _, j := range m.Jobs() {
		j.Dispose()
	}
}

func (m *Manager) newJob(source string, remote bool) *Job {
	j := &Job{
		id:       uuid.NewString(),
		source:   source,
		remote:   remote,
		manager:  m,
		status:   StatusQueued,
		max:      -1,
		notifier: newNotifier(m.opts.Sink),
		created:  time.Now(),
	}
	j.logger = m.logger.With(
		logging.String(logging.FieldJobID, j.id),
		logging.String("source", source),
	)
	m.mu.Lock()
	m.jobs[j.id] = j
	m.mu.Unlock()
	return j
}

func (m *Manager) forget(j *Job) {
	m.mu.Lock()
	delete(m.jobs, j.id)
	m.mu.Unlock()
}

func (m *Manager) limiter() *rate.Limiter {
	if m.opts.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(m.opts.RateLimit), max(m.opts.ChunkSize, m.opts.RateLimit))
}

func nameFromURL(u *url.URL) string {
	base := filepath.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return u.Host
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		return unescaped
	}
	return base
}
