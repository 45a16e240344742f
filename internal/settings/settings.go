package settings

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"audiocheck/internal/config"
	"audiocheck/internal/report"
)

// Profile names accepted by the registry.
const (
	ProfileStandard = "standard"
	ProfileStrict   = "strict"
	ProfileLenient  = "lenient"
)

// Settings is immutable after New.
type Settings struct {
	profile    string
	locale     language.Tag
	helpBase   string
	classes    map[string]report.Strictness
	rules      map[string]report.Strictness
	validators map[string]map[string]any
}

// New builds settings from a validated configuration. A nil config yields
// repository defaults.
func New(cfg *config.Config) (*Settings, error) {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	s := &Settings{
		profile:    strings.ToLower(strings.TrimSpace(cfg.Validation.Profile)),
		locale:     parseLocale(cfg.Validation.Locale),
		helpBase:   strings.TrimRight(strings.TrimSpace(cfg.Validation.HelpBaseURL), "/"),
		classes:    make(map[string]report.Strictness, len(cfg.Validation.Strictness)),
		rules:      make(map[string]report.Strictness, len(cfg.Validation.Rules)),
		validators: make(map[string]map[string]any, len(cfg.Validators)),
	}
	if s.profile == "" {
		s.profile = ProfileStandard
	}
	for id, value := range cfg.Validation.Strictness {
		parsed, err := report.ParseStrictness(value)
		if err != nil {
			return nil, fmt.Errorf("validation.strictness.%s: %w", id, err)
		}
		s.classes[strings.ToLower(id)] = parsed
	}
	for rule, value := range cfg.Validation.Rules {
		parsed, err := report.ParseStrictness(value)
		if err != nil {
			return nil, fmt.Errorf("validation.rules.%s: %w", rule, err)
		}
		s.rules[strings.ToLower(rule)] = parsed
	}
	for id, table := range cfg.Validators {
		s.validators[strings.ToLower(id)] = table
	}
	return s, nil
}

// Default returns settings for the built-in configuration.
func Default() *Settings {
	s, err := New(nil)
	if err != nil {
		panic(err)
	}
	return s
}

func parseLocale(value string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return language.English
	}
	return tag
}

// Profile returns the strictness profile name.
func (s *Settings) Profile() string {
	return s.profile
}

// Locale returns the message language.
func (s *Settings) Locale() language.Tag {
	return s.locale
}

// ClassStrictness returns the configured override for a validator identity.
func (s *Settings) ClassStrictness(id string) (report.Strictness, bool) {
	v, ok := s.classes[strings.ToLower(id)]
	return v, ok
}

// RuleStrictness returns the configured override for a rule identifier.
func (s *Settings) RuleStrictness(rule string) (report.Strictness, bool) {
	v, ok := s.rules[strings.ToLower(rule)]
	return v, ok
}

// RuleOverrides lists configured rule overrides sorted by rule.
func (s *Settings) RuleOverrides() []string {
	out := make([]string, 0, len(s.rules))
	for rule := range s.rules {
		out = append(out, rule)
	}
	sort.Strings(out)
	return out
}

// For returns the settings table of one validator. Missing tables read as empty.
func (s *Settings) For(id string) Values {
	return Values(s.validators[strings.ToLower(id)])
}

// Text formats a catalog message in the configured locale. Unknown keys are
// used verbatim as format strings.
func (s *Settings) Text(key string, args ...any) string {
	return message.NewPrinter(s.locale).Sprintf(key, args...)
}

// HelpLink returns the help page for a rule, or "" when no base is configured.
func (s *Settings) HelpLink(rule string) string {
	if s.helpBase == "" || rule == "" {
		return ""
	}
	return s.helpBase + "/" + strings.ReplaceAll(rule, ".", "/")
}
