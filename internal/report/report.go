package report

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrClosed is returned when a closed report is modified.
var ErrClosed = errors.New("report: already closed")

// Finding is one recorded validation outcome.
type Finding struct {
	Category  Category
	Validity  Validity
	Rule      string
	Validator string
	Message   string
	HelpLink  string
}

// Fact is one informational line.
type Fact struct {
	Category Category
	Label    string
	Value    string
}

// Entry is a rendered row in either document. Seq is the emission order
// within its document.
type Entry struct {
	Seq       int
	Category  Category
	Validity  Validity
	Rule      string
	Validator string
	Label     string
	Message   string
	HelpLink  string
}

// Report collects the findings of one analysis run.
type Report struct {
	mu sync.Mutex

	source    string
	createdAt time.Time

	docs [2][numCategories][]Entry
	seq  [2]int

	warnings int
	errors   int
	running  Validity

	fatal    string
	hasFatal bool

	closed   bool
	closedAt time.Time
	validity Validity
	text     [2]string
	html     [2]string
}

// New starts an empty report for source.
func New(source string) *Report {
	return &Report{source: source, createdAt: time.Now(), running: Pass, validity: Pass}
}

// Source returns the file or locator the report describes.
func (r *Report) Source() string {
	return r.source
}

// Add records a validation finding. PASS findings are ignored.
func (r *Report) Add(f Finding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if !f.Category.valid() {
		return fmt.Errorf("report: invalid category %d", int(f.Category))
	}
	if f.Validity == Pass {
		return nil
	}
	r.appendLocked(Validation, Entry{
		Category:  f.Category,
		Validity:  f.Validity,
		Rule:      f.Rule,
		Validator: f.Validator,
		Message:   strings.TrimSpace(f.Message),
		HelpLink:  f.HelpLink,
	})
	switch f.Validity {
	case Warn:
		r.warnings++
	case Fail, Incomplete:
		r.errors++
	}
	r.running = Worse(r.running, f.Validity)
	return nil
}

// AddFact records an informational line.
func (r *Report) AddFact(f Fact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if !f.Category.valid() {
		return fmt.Errorf("report: invalid category %d", int(f.Category))
	}
	r.appendLocked(Information, Entry{
		Category: f.Category,
		Validity: Pass,
		Label:    f.Label,
		Message:  strings.TrimSpace(f.Value),
	})
	return nil
}

// Info is shorthand for AddFact with a formatted value.
func (r *Report) Info(category Category, label, format string, args ...any) error {
	return r.AddFact(Fact{Category: category, Label: label, Value: fmt.Sprintf(format, args...)})
}

// SetFatal records the fatal error that overrides the whole validation
// document. Only the first message becomes the override; later ones are filed
// as ordinary error findings.
func (r *Report) SetFatal(message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = "analysis failed"
	}
	if !r.hasFatal {
		r.fatal = message
		r.hasFatal = true
	}
	r.appendLocked(Validation, Entry{Category: CategoryError, Validity: Fail, Message: message})
	r.errors++
	return nil
}

func (r *Report) appendLocked(doc Document, e Entry) {
	e.Seq = r.seq[doc]
	r.seq[doc]++
	r.docs[doc][e.Category] = append(r.docs[doc][e.Category], e)
}

// Close freezes the report, computes its validity, and renders both
// documents. Closing twice is a no-op. A render failure leaves the report
// open and unrendered.
func (r *Report) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.validity = r.running
	if r.hasFatal {
		r.validity = Incomplete
	}
	var text, html [2]string
	for _, doc := range []Document{Validation, Information} {
		view := r.viewLocked(doc)
		rendered, err := htmlRenderer(view)
		if err != nil {
			return fmt.Errorf("render %s document: %w", doc, err)
		}
		text[doc] = renderText(view)
		html[doc] = rendered
	}
	r.text, r.html = text, html
	r.closedAt = time.Now()
	r.closed = true
	return nil
}

// Closed reports whether Close has run.
func (r *Report) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Validity returns the final validity after Close, or the running aggregate
// before it.
func (r *Report) Validity() Validity {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return r.validity
	}
	if r.hasFatal {
		return Incomplete
	}
	return r.running
}

// Fatal returns the fatal override message, if any.
func (r *Report) Fatal() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fatal, r.hasFatal
}

// Warnings returns the number of WARN findings.
func (r *Report) Warnings() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warnings
}

// Errors returns the number of FAIL and INCOMPLETE findings.
func (r *Report) Errors() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors
}

// Entries returns the visible rows of one category. Once a fatal error is set
// only the error category of the validation document stays visible.
func (r *Report) Entries(doc Document, category Category) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !category.valid() {
		return nil
	}
	if doc == Validation && r.hasFatal && category != CategoryError {
		return nil
	}
	return append([]Entry(nil), r.docs[doc][category]...)
}

// Text returns the rendered plain text document, empty before Close.
func (r *Report) Text(doc Document) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text[doc]
}

// HTML returns the rendered HTML document, empty before Close.
func (r *Report) HTML(doc Document) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.html[doc]
}

// Summary is a compact snapshot for listings and persistence.
type Summary struct {
	Source   string
	Validity Validity
	Warnings int
	Errors   int
	Fatal    string
	Closed   bool
}

// Summary returns a snapshot of the report counters.
func (r *Report) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	validity := r.running
	if r.closed {
		validity = r.validity
	} else if r.hasFatal {
		validity = Incomplete
	}
	return Summary{
		Source:   r.source,
		Validity: validity,
		Warnings: r.warnings,
		Errors:   r.errors,
		Fatal:    r.fatal,
		Closed:   r.closed,
	}
}
