package settings

import (
	"fmt"
	"strings"
)

// Values is one validator's settings table as decoded from TOML. Integers
// arrive as int64, floats as float64, and arrays as []any.
type Values map[string]any

// Has reports whether key is set.
func (v Values) Has(key string) bool {
	_, ok := v[key]
	return ok
}

// Number returns a numeric value or def.
func (v Values) Number(key string, def float64) float64 {
	if f, ok := toFloat(v[key]); ok {
		return f
	}
	return def
}

// Int returns an integer value or def. Floats are truncated.
func (v Values) Int(key string, def int) int {
	if f, ok := toFloat(v[key]); ok {
		return int(f)
	}
	return def
}

// Bool returns a boolean value or def.
func (v Values) Bool(key string, def bool) bool {
	if b, ok := v[key].(bool); ok {
		return b
	}
	return def
}

// String returns a string value or def.
func (v Values) String(key, def string) string {
	if s, ok := v[key].(string); ok {
		return s
	}
	return def
}

// Strings returns a string list or def.
func (v Values) Strings(key string, def []string) []string {
	switch raw := v[key].(type) {
	case []string:
		return append([]string(nil), raw...)
	case []any:
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok {
				out = append(out, strings.TrimSpace(s))
			} else {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	}
	return def
}

// Ints returns an integer list or def. Non-numeric items are skipped.
func (v Values) Ints(key string, def []int) []int {
	switch raw := v[key].(type) {
	case []int:
		return append([]int(nil), raw...)
	case []any:
		out := make([]int, 0, len(raw))
		for _, item := range raw {
			if f, ok := toFloat(item); ok {
				out = append(out, int(f))
			}
		}
		return out
	}
	return def
}

func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
