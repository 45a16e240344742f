package validator

import (
	"log/slog"

	"audiocheck/internal/logging"
	"audiocheck/internal/report"
	"audiocheck/internal/settings"
)

// Base carries the identity, strictness, and report binding shared by every
// validator.
type Base struct {
	id         string
	strictness report.Strictness
	settings   *settings.Settings
	logger     *slog.Logger

	report *report.Report
	file   File
	worst  report.Validity
}

func newBase(id string, deps Deps) Base {
	s := deps.Settings
	if s == nil {
		s = settings.Default()
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return Base{
		id:         id,
		strictness: deps.Strictness,
		settings:   s,
		logger:     logger.With(logging.String(logging.FieldValidator, id)),
		worst:      report.Pass,
	}
}

// ID returns the validator identity.
func (b *Base) ID() string {
	return b.id
}

// Strictness returns the class strictness the registry assigned.
func (b *Base) Strictness() report.Strictness {
	return b.strictness
}

// Worst returns the worst outcome recorded so far, after rule overrides and
// before class strictness.
func (b *Base) Worst() report.Validity {
	return b.worst
}

func (b *Base) bind(file File, rep *report.Report) {
	b.file = file
	b.report = rep
}

// Record files one outcome. A per-rule override is applied first and its
// result feeds the running worst outcome; class strictness then decides what
// reaches the report. PASS is never written.
func (b *Base) Record(rule string, category report.Category, validity report.Validity, key string, args ...any) error {
	if override, ok := b.settings.RuleStrictness(rule); ok {
		validity = override.Apply(validity)
	}
	b.worst = report.Worse(b.worst, validity)
	validity = b.strictness.Apply(validity)
	if validity == report.Pass || b.report == nil {
		return nil
	}
	msg := b.settings.Text(key, args...)
	b.logger.Debug("finding recorded",
		logging.String("rule", rule),
		logging.String("validity", validity.String()),
		logging.String("message", msg),
	)
	return b.report.Add(report.Finding{
		Category:  category,
		Validity:  validity,
		Rule:      rule,
		Validator: b.id,
		Message:   msg,
		HelpLink:  b.settings.HelpLink(rule),
	})
}

// Info adds an informational line.
func (b *Base) Info(category report.Category, label, format string, args ...any) error {
	if b.report == nil {
		return nil
	}
	return b.report.Info(category, label, format, args...)
}
