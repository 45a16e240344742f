package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"audiocheck/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Download.MinFreeMiB = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithProfile selects a strictness profile.
func WithProfile(profile string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Validation.Profile = profile
	}
}

// WithStrictness overrides the class strictness of one validator.
func WithStrictness(id, strictness string) ConfigOption {
	return func(b *configBuilder) {
		if b.cfg.Validation.Strictness == nil {
			b.cfg.Validation.Strictness = map[string]string{}
		}
		b.cfg.Validation.Strictness[id] = strictness
	}
}

// WithRule overrides the strictness of one rule.
func WithRule(rule, strictness string) ConfigOption {
	return func(b *configBuilder) {
		if b.cfg.Validation.Rules == nil {
			b.cfg.Validation.Rules = map[string]string{}
		}
		b.cfg.Validation.Rules[rule] = strictness
	}
}

// WithValidatorSetting sets one key in a validator settings table.
func WithValidatorSetting(id, key string, value any) ConfigOption {
	return func(b *configBuilder) {
		if b.cfg.Validators == nil {
			b.cfg.Validators = map[string]map[string]any{}
		}
		if b.cfg.Validators[id] == nil {
			b.cfg.Validators[id] = map[string]any{}
		}
		b.cfg.Validators[id][key] = value
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CacheDir)
}
