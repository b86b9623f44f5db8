package format

import (
	"fmt"
	"strings"
	"time"
)

// DateFormatter renders a model date for display.
type DateFormatter interface {
	FormatDate(t time.Time) string
}

// DateFormatterFunc adapts a function to DateFormatter.
type DateFormatterFunc func(t time.Time) string

// FormatDate calls fn.
func (fn DateFormatterFunc) FormatDate(t time.Time) string { return fn(t) }

// Layout renders dates with a Go reference layout.
type Layout string

// ISODate is the canonical date layout, also used for the model value.
const ISODate Layout = "2006-01-02"

// FormatDate formats t with the layout.
func (l Layout) FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	layout := string(l)
	if layout == "" {
		layout = string(ISODate)
	}
	return t.Format(layout)
}

// Minutes renders a duration held as integer minutes, e.g. 90 → "1h 30m".
func Minutes(total int) string {
	if total <= 0 {
		return "0m"
	}
	hours, minutes := Split(total)
	parts := make([]string, 0, 2)
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	return strings.Join(parts, " ")
}

// Split breaks total minutes into hours and minutes.
func Split(total int) (hours, minutes int) {
	if total < 0 {
		total = 0
	}
	return total / 60, total % 60
}

// Join combines hours and minutes into total minutes.
func Join(hours, minutes int) int {
	return hours*60 + minutes
}
