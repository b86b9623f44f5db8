// Package format holds the display projections used by number, date and
// duration fields. The model always stores canonical values; the strings
// produced here are for rendering only.
package format

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ErrInvalidNumber is returned when text cannot be read as a number.
var ErrInvalidNumber = errors.New("format: invalid number")

// NumberFormatter converts between model numbers and locale text.
type NumberFormatter interface {
	Format(value float64) string
	Parse(text string) (float64, error)
	DecimalSeparator() string
}

// DefaultMaxFractionDigits bounds the decimals shown for a number field.
const DefaultMaxFractionDigits = 6

// LocaleNumber formats numbers with the separators of a language tag.
type LocaleNumber struct {
	printer   *message.Printer
	decimal   string
	group     string
	digits    map[rune]rune
	fractions int
}

// NumberOption customises a LocaleNumber.
type NumberOption func(*LocaleNumber)

// WithMaxFractionDigits limits the decimals printed by Format.
func WithMaxFractionDigits(digits int) NumberOption {
	return func(n *LocaleNumber) {
		if digits >= 0 {
			n.fractions = digits
		}
	}
}

// NewLocaleNumber builds a formatter for tag. The separators are derived
// from how the locale prints a reference number.
func NewLocaleNumber(tag language.Tag, opts ...NumberOption) *LocaleNumber {
	n := &LocaleNumber{
		printer:   message.NewPrinter(tag),
		fractions: DefaultMaxFractionDigits,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}

	n.decimal, n.group = separators(n.printer.Sprint(number.Decimal(1234567.5, number.MaxFractionDigits(1))))
	n.digits = localDigits(n.printer)
	return n
}

// separators reads the decimal and group separators off a printed sample.
// The last non-digit rune is the decimal separator; the first one is the
// group separator when it differs. Grouping patterns vary ("1,234,567.5",
// "12,34,567.5"), so positions are never assumed.
func separators(sample string) (decimal, group string) {
	var marks []rune
	for _, r := range sample {
		if unicode.IsDigit(r) || unicode.Is(unicode.Cf, r) {
			continue
		}
		marks = append(marks, r)
	}
	if len(marks) == 0 {
		return ".", ""
	}
	decimal = string(marks[len(marks)-1])
	if first := string(marks[0]); first != decimal {
		group = first
	}
	return decimal, group
}

// localDigits maps the digits the locale prints to ASCII, when they differ.
func localDigits(printer *message.Printer) map[rune]rune {
	var digits map[rune]rune
	for d := 0; d <= 9; d++ {
		printed := []rune(printer.Sprint(number.Decimal(d)))
		for _, r := range printed {
			if !unicode.IsDigit(r) || r == rune('0'+d) {
				continue
			}
			if digits == nil {
				digits = make(map[rune]rune, 10)
			}
			digits[r] = rune('0' + d)
		}
	}
	return digits
}

// ParseLocaleNumber builds a formatter from a BCP 47 string such as "es-ES".
func ParseLocaleNumber(locale string, opts ...NumberOption) (*LocaleNumber, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("format: locale %q: %w", locale, err)
	}
	return NewLocaleNumber(tag, opts...), nil
}

// DecimalSeparator returns the locale decimal separator.
func (n *LocaleNumber) DecimalSeparator() string { return n.decimal }

// GroupSeparator returns the locale thousands separator, or "".
func (n *LocaleNumber) GroupSeparator() string { return n.group }

// Format prints value with locale separators.
func (n *LocaleNumber) Format(value float64) string {
	return n.printer.Sprint(number.Decimal(value, number.MaxFractionDigits(n.fractions)))
}

// Parse reads locale text. Group separators are ignored and a trailing
// decimal separator is accepted ("12," reads as 12).
func (n *LocaleNumber) Parse(text string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Cf, r) {
			return -1
		}
		if ascii, ok := n.digits[r]; ok {
			return ascii
		}
		return r
	}, strings.TrimSpace(text))
	if cleaned == "" {
		return 0, ErrInvalidNumber
	}
	if n.group != "" {
		cleaned = strings.ReplaceAll(cleaned, n.group, "")
		// Some locales group with no-break spaces.
		cleaned = strings.ReplaceAll(cleaned, "\u00a0", "")
		cleaned = strings.ReplaceAll(cleaned, "\u202f", "")
	}
	cleaned = strings.TrimSuffix(cleaned, n.decimal)
	if n.decimal != "." {
		cleaned = strings.ReplaceAll(cleaned, n.decimal, ".")
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, text)
	}
	return value, nil
}

// HasTrailingSeparator reports whether the user is mid-way through typing a
// decimal number, e.g. "12,".
func HasTrailingSeparator(f NumberFormatter, text string) bool {
	sep := f.DecimalSeparator()
	return sep != "" && strings.HasSuffix(text, sep)
}
