// Package dates normalizes the partial date strings used by the registry.
// The API reports dates as "YYYY", "YYYY-MM", or "YYYY-MM-DD" depending on
// what the sponsor filed.
package dates

import "time"

// layouts are tried in order of decreasing precision.
var layouts = []string{"2006-01-02", "2006-01", "2006"}

// Parse converts a registry date string to a UTC calendar date. Missing
// month and day default to 1. Returns nil for empty or unparseable input;
// it never fails.
func Parse(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// Format renders a date in full precision. Format(Parse(s)) round-trips for
// any full-precision input. Returns "" for nil.
func Format(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// FormatMonth renders a year-month label for presentation.
func FormatMonth(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01")
}
