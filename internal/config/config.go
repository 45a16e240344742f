package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Scheduler controls the background worker pool.
type Scheduler struct {
	// Workers caps concurrently running jobs. Zero means max(2, NumCPU).
	Workers            int `toml:"workers"`
	IdleTimeoutSeconds int `toml:"idle_timeout_seconds"`
}

// Download controls how remote sources are fetched into the cache.
type Download struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	ChunkKiB       int `toml:"chunk_kib"`
	// RateLimitKiB caps download bandwidth per job. Zero disables limiting.
	RateLimitKiB int `toml:"rate_limit_kib"`
	// MinFreeMiB is the free space that must remain in cache_dir before a download starts.
	MinFreeMiB int    `toml:"min_free_mib"`
	UserAgent  string `toml:"user_agent"`
}

// Decoder names the external binaries used to decode audio.
type Decoder struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Validation contains the strictness policy and presentation settings.
type Validation struct {
	// Profile selects a column of the built-in strictness table: standard, strict, lenient.
	Profile     string `toml:"profile"`
	Locale      string `toml:"locale"`
	HelpBaseURL string `toml:"help_base_url"`
	// Strictness overrides the class-level strictness per validator identity.
	Strictness map[string]string `toml:"strictness"`
	// Rules overrides strictness per rule identifier (e.g. "amplitude.clipping").
	Rules map[string]string `toml:"rules"`
}

// Watch configures folder ingestion.
type Watch struct {
	Extensions []string `toml:"extensions"`
	DebounceMS int      `toml:"debounce_ms"`
}

// Notifications configures ntfy delivery of verdicts.
type Notifications struct {
	// NtfyTopic is the full topic URL. Empty disables notifications.
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	// NotifyOn is "failures" (failed and errored jobs only) or "all".
	NotifyOn string `toml:"notify_on"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for audiocheck.
//
// Configuration sections by subsystem:
//   - Paths: cache, log, and state directories
//   - Scheduler: worker pool size and idle reclaim
//   - Download: remote fetch limits
//   - Decoder: ffmpeg/ffprobe binaries
//   - Validation: strictness profile, overrides, locale, and help links
//   - Validators: free-form per-validator settings tables
//   - Watch: folder ingestion
//   - Notifications: ntfy verdict delivery
//   - Logging: log format and level
type Config struct {
	Paths         Paths                     `toml:"paths"`
	Scheduler     Scheduler                 `toml:"scheduler"`
	Download      Download                  `toml:"download"`
	Decoder       Decoder                   `toml:"decoder"`
	Validation    Validation                `toml:"validation"`
	Validators    map[string]map[string]any `toml:"validators"`
	Watch         Watch                     `toml:"watch"`
	Notifications Notifications             `toml:"notifications"`
	Logging       Logging                   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("audiocheck.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache, log, and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StatePath returns the SQLite database location.
func (c *Config) StatePath() string {
	return filepath.Join(c.Paths.StateDir, "audiocheck.db")
}

// LockPath returns the single-instance lock file used by watch mode.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "watch.lock")
}

// IdleTimeout returns the worker reclaim timeout.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Scheduler.IdleTimeoutSeconds) * time.Second
}

// DownloadTimeout returns the per-request download timeout; zero means none.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Download.TimeoutSeconds) * time.Second
}

// WatchDebounce returns how long a watched file must stay quiet before analysis.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// ValidatorSettings returns the free-form settings table for a validator.
// The returned map is never nil.
func (c *Config) ValidatorSettings(id string) map[string]any {
	if c.Validators == nil {
		return map[string]any{}
	}
	if values, ok := c.Validators[id]; ok && values != nil {
		return values
	}
	return map[string]any{}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
