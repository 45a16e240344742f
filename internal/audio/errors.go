package audio

import (
	"fmt"

	"audiocheck/internal/services"
)

// FormatError reports a file the decoder does not recognise. Guess carries a
// best-effort content type derived from the file's leading bytes.
type FormatError struct {
	Path  string
	Guess string
	Err   error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("unsupported audio format: %s", e.Path)
	if e.Guess != "" {
		msg += fmt.Sprintf(" (looks like %s)", e.Guess)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrUnsupportedFormat}
	}
	return []error{services.ErrUnsupportedFormat, e.Err}
}
