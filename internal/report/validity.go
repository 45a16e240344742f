package report

import (
	"fmt"
	"strings"
)

// Validity is the outcome of a single check or of a whole report.
type Validity int

const (
	Fail Validity = iota
	Warn
	Pass
	Incomplete
)

func (v Validity) String() string {
	switch v {
	case Fail:
		return "FAIL"
	case Warn:
		return "WARN"
	case Pass:
		return "PASS"
	case Incomplete:
		return "INCOMPLETE"
	default:
		return fmt.Sprintf("Validity(%d)", int(v))
	}
}

// Worse combines two outcomes: INCOMPLETE on either side wins, otherwise the
// lower (worse) of the two.
func Worse(current, next Validity) Validity {
	if current == Incomplete || next == Incomplete {
		return Incomplete
	}
	if next < current {
		return next
	}
	return current
}

// Strictness controls how a raw outcome is rendered.
type Strictness int

const (
	Required Strictness = iota
	Optional
	Ignore
)

func (s Strictness) String() string {
	switch s {
	case Required:
		return "required"
	case Optional:
		return "optional"
	case Ignore:
		return "ignore"
	default:
		return fmt.Sprintf("Strictness(%d)", int(s))
	}
}

// ParseStrictness accepts required, optional, or ignore in any case.
func ParseStrictness(value string) (Strictness, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "required":
		return Required, nil
	case "optional":
		return Optional, nil
	case "ignore":
		return Ignore, nil
	default:
		return Required, fmt.Errorf("unknown strictness %q", value)
	}
}

// Apply modulates a raw outcome: OPTIONAL turns FAIL into WARN, IGNORE turns
// everything into PASS.
func (s Strictness) Apply(v Validity) Validity {
	switch s {
	case Optional:
		if v == Fail {
			return Warn
		}
	case Ignore:
		return Pass
	}
	return v
}
