package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"audiocheck/internal/config"
	"audiocheck/internal/metadata"
	"audiocheck/internal/notifications"
	"audiocheck/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	hooks      runtimeHooks
}

type staticTags struct{}

func (staticTags) Read(context.Context, string) (*metadata.Tags, error) {
	return &metadata.Tags{Artist: "Host", Title: "Episode", Major: 4}, nil
}

func passingDecoder() *testsupport.Decoder {
	return &testsupport.Decoder{
		Header:  testsupport.Header(44100, 2),
		Samples: testsupport.Constant(44100, 2, 1000, 2),
	}
}

// setupCLITestEnv writes a config that only runs the format validator so
// synthetic PCM gives predictable verdicts.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	home := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("NO_COLOR", "1")

	base := []testsupport.ConfigOption{
		testsupport.WithStrictness("amplitude", "ignore"),
		testsupport.WithStrictness("noise", "ignore"),
		testsupport.WithStrictness("metadata", "ignore"),
	}
	cfg := testsupport.NewConfig(t, append(base, opts...)...)
	cfg.Logging.Level = "error"
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		hooks:      runtimeHooks{decoder: passingDecoder(), metadata: staticTags{}},
	}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommandWith(e.hooks)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func (e *cliTestEnv) audioFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(testsupport.BaseDir(e.cfg), name)
	testsupport.WriteFile(t, path, 128)
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitShowAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	out, err = env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[validation]")
	requireContains(t, out, env.cfg.Paths.CacheDir)

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, err = env.run(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite must fail")
	}
	if _, err := env.run(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("init --overwrite: %v", err)
	}
}

func TestCheckPassingFileRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.audioFile(t, "episode.mp3")

	out, err := env.run(t, "check", "--report", path)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, path)
	requireContains(t, out, "passed")

	out, err = env.run(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, path)
	requireContains(t, out, "passed")

	out, err = env.run(t, "history", "--json")
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var runs []struct {
		ID     int64  `json:"id"`
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].Status != "passed" || runs[0].JobID == "" {
		t.Fatalf("runs = %+v", runs)
	}

	out, err = env.run(t, "history", "--report", runs[0].JobID)
	if err != nil {
		t.Fatalf("history --report: %v", err)
	}
	requireContains(t, out, "PASS")

	out, err = env.run(t, "history", "--prune", "0")
	if err != nil {
		t.Fatalf("history --prune: %v", err)
	}
	requireContains(t, out, "Removed 1 runs")
	out, err = env.run(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestCheckFailingFileExitsNonZero(t *testing.T) {
	env := setupCLITestEnv(t)
	env.hooks.decoder = &testsupport.Decoder{
		Header:  testsupport.Header(22050, 2),
		Samples: testsupport.Constant(22050, 2, 1000, 2),
	}
	good := env.audioFile(t, "a.mp3")
	missing := filepath.Join(t.TempDir(), "missing.mp3")

	out, err := env.run(t, "check", "--json", good, missing)
	var exit exitError
	if !errors.As(err, &exit) || exitCode(err) != 1 {
		t.Fatalf("err = %v, want exit code 1", err)
	}
	var results []checkResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Status != "failed" || results[0].Errors == 0 {
		t.Fatalf("first = %+v", results[0])
	}
	if results[1].Status != "error" || results[1].Fatal == "" {
		t.Fatalf("second = %+v", results[1])
	}
}

func TestCheckWritesHTMLReports(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.audioFile(t, "show.mp3")
	htmlDir := filepath.Join(t.TempDir(), "html")

	out, err := env.run(t, "check", "--html-dir", htmlDir, path)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, out, "HTML report:")
	data, err := os.ReadFile(filepath.Join(htmlDir, "show.html"))
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	requireContains(t, string(data), "<html")
}

func TestCheckHTMLReportsDoNotCollide(t *testing.T) {
	env := setupCLITestEnv(t)
	first := env.audioFile(t, filepath.Join("a", "show.mp3"))
	second := env.audioFile(t, filepath.Join("b", "show.mp3"))
	htmlDir := filepath.Join(t.TempDir(), "html")

	out, err := env.run(t, "check", "--json", "--html-dir", htmlDir, first, second)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	var results []checkResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(results) != 2 || results[0].HTML == "" || results[1].HTML == "" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].HTML == results[1].HTML {
		t.Fatalf("both reports written to %s", results[0].HTML)
	}
	if results[0].HTML != filepath.Join(htmlDir, "show.html") {
		t.Fatalf("first report = %s", results[0].HTML)
	}
	if !strings.Contains(results[1].HTML, results[1].JobID) {
		t.Fatalf("second report %s lacks job id %s", results[1].HTML, results[1].JobID)
	}
	entries, err := os.ReadDir(htmlDir)
	if err != nil || len(entries) != 2 {
		t.Fatalf("html dir entries = %d, %v", len(entries), err)
	}
}

func TestValidatorsListToggleAndReset(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "validators", "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var rows []validatorRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	byID := map[string]validatorRow{}
	for _, r := range rows {
		byID[r.ID] = r
	}
	if len(rows) != 5 {
		t.Fatalf("rows = %+v", rows)
	}
	if byID["filename"].Enabled || !byID["format"].Runs {
		t.Fatalf("defaults wrong: %+v", rows)
	}
	if byID["amplitude"].Runs || byID["amplitude"].Strictness != "ignore" {
		t.Fatalf("ignored validator must not run: %+v", byID["amplitude"])
	}

	if out, err := env.run(t, "validators", "enable", "filename"); err != nil {
		t.Fatalf("enable: %v", err)
	} else {
		requireContains(t, out, "filename: enabled")
	}
	if _, err := env.run(t, "validators", "disable", "format"); err != nil {
		t.Fatalf("disable: %v", err)
	}
	out, err = env.run(t, "validators", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "filename")

	out, err = env.run(t, "validators", "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	rows = nil
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, r := range rows {
		if r.ID == "filename" && !r.Enabled {
			t.Fatal("filename should be enabled")
		}
		if r.ID == "format" && r.Enabled {
			t.Fatal("format should be disabled")
		}
	}

	if _, err := env.run(t, "validators", "reset", "format", "filename"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	out, _ = env.run(t, "validators", "list", "--json")
	rows = nil
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, r := range rows {
		if r.Enabled != r.Default {
			t.Fatalf("%s not back to default: %+v", r.ID, r)
		}
	}

	if _, err := env.run(t, "validators", "enable", "bogus"); err == nil {
		t.Fatal("unknown validator must fail")
	}
	if _, err := env.run(t, "validators", "reset", "bogus"); err == nil {
		t.Fatal("unknown validator must fail")
	}
}

func TestDoctorWithStubbedBinaries(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	out, err := env.run(t, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "FFmpeg")
	requireContains(t, out, "FFprobe")
	requireContains(t, out, "Cache directory")
}

type notifySpy struct {
	mu       sync.Mutex
	verdicts []notifications.Verdict
	tests    int
}

func (s *notifySpy) NotifyVerdict(_ context.Context, v notifications.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verdicts = append(s.verdicts, v)
	return nil
}

func (s *notifySpy) TestNotification(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tests++
	return nil
}

func TestCheckPublishesVerdicts(t *testing.T) {
	env := setupCLITestEnv(t)
	spy := &notifySpy{}
	env.hooks.notifier = spy
	path := env.audioFile(t, "episode.mp3")

	if _, err := env.run(t, "check", path); err != nil {
		t.Fatalf("check: %v", err)
	}
	spy.mu.Lock()
	defer spy.mu.Unlock()
	if len(spy.verdicts) != 1 {
		t.Fatalf("verdicts = %+v", spy.verdicts)
	}
	if v := spy.verdicts[0]; v.Source != path || v.Status != "passed" || v.Validity != "PASS" {
		t.Fatalf("verdict = %+v", v)
	}
}

func TestTestNotify(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := env.run(t, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications disabled")

	spy := &notifySpy{}
	env.hooks.notifier = spy
	out, err = env.run(t, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if spy.tests != 1 {
		t.Fatalf("tests = %d", spy.tests)
	}
}

func TestExitCode(t *testing.T) {
	if exitCode(errors.New("boom")) != 1 {
		t.Fatal("plain errors exit 1")
	}
	if exitCode(exitError{code: 3}) != 3 {
		t.Fatal("exitError code not honoured")
	}
}
