package settings

import (
	"strings"
	"testing"

	"audiocheck/internal/config"
	"audiocheck/internal/report"
)

func TestNewParsesOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Validation.Profile = "strict"
	cfg.Validation.Strictness = map[string]string{"Noise": "ignore"}
	cfg.Validation.Rules = map[string]string{"amplitude.clipping": "optional"}
	s, err := New(&cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Profile() != ProfileStrict {
		t.Fatalf("profile = %q", s.Profile())
	}
	if v, ok := s.ClassStrictness("noise"); !ok || v != report.Ignore {
		t.Fatalf("class strictness = %v, %v", v, ok)
	}
	if v, ok := s.RuleStrictness("AMPLITUDE.clipping"); !ok || v != report.Optional {
		t.Fatalf("rule strictness = %v, %v", v, ok)
	}
	if _, ok := s.RuleStrictness("format.codec"); ok {
		t.Fatal("unexpected rule override")
	}
}

func TestNewRejectsUnknownStrictness(t *testing.T) {
	cfg := config.Default()
	cfg.Validation.Rules = map[string]string{"format.codec": "sometimes"}
	if _, err := New(&cfg); err == nil {
		t.Fatal("expected error for unknown strictness")
	}
}

func TestValuesAccessors(t *testing.T) {
	v := Values{
		"rates":   []any{int64(44100), int64(48000)},
		"exts":    []any{".mp3", " .MP3 "},
		"target":  89.5,
		"run":     int64(3),
		"allow":   false,
		"pattern": "^x$",
	}
	if got := v.Ints("rates", nil); len(got) != 2 || got[1] != 48000 {
		t.Fatalf("Ints = %v", got)
	}
	if got := v.Strings("exts", nil); len(got) != 2 || got[1] != ".MP3" {
		t.Fatalf("Strings = %v", got)
	}
	if v.Number("target", 0) != 89.5 || v.Number("run", 0) != 3 || v.Number("missing", 7) != 7 {
		t.Fatal("Number mismatch")
	}
	if v.Int("run", 0) != 3 || v.Int("missing", 2) != 2 {
		t.Fatal("Int mismatch")
	}
	if v.Bool("allow", true) || !v.Bool("missing", true) {
		t.Fatal("Bool mismatch")
	}
	if v.String("pattern", "") != "^x$" || v.String("target", "d") != "d" {
		t.Fatal("String mismatch")
	}
	var empty Values
	if empty.Has("x") || empty.Int("x", 5) != 5 {
		t.Fatal("nil Values must read as defaults")
	}
}

func TestForReadsValidatorTables(t *testing.T) {
	cfg := config.Default()
	cfg.Validators = map[string]map[string]any{"format": {"min_bitrate_kbps": int64(192)}}
	s, err := New(&cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := s.For("format").Int("min_bitrate_kbps", 128); got != 192 {
		t.Fatalf("min bitrate = %d", got)
	}
	if got := s.For("noise").Number("min_snr_db", 40); got != 40 {
		t.Fatalf("default = %v", got)
	}
}

func TestTextLocalizes(t *testing.T) {
	s := Default()
	if got := s.Text(MsgChannels, 6); got != "6 channels are not supported" {
		t.Fatalf("english text = %q", got)
	}
	cfg := config.Default()
	cfg.Validation.Locale = "de"
	de, err := New(&cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := de.Text(MsgChannels, 6); got != "6 Kanäle werden nicht unterstützt" {
		t.Fatalf("german text = %q", got)
	}
	if got := de.Text("untranslated %d", 1); got != "untranslated 1" {
		t.Fatalf("fallback = %q", got)
	}
}

func TestHelpLink(t *testing.T) {
	s := Default()
	if got := s.HelpLink("amplitude.clipping"); !strings.HasSuffix(got, "/amplitude/clipping") || !strings.HasPrefix(got, "https://") {
		t.Fatalf("help link = %q", got)
	}
	if s.HelpLink("") != "" {
		t.Fatal("empty rule must have no link")
	}
}

func TestGermanCatalogCoversEveryKey(t *testing.T) {
	for key, msg := range german {
		if strings.Count(key, "%") != strings.Count(msg, "%") {
			t.Fatalf("verb count mismatch for %q", key)
		}
	}
}
