package format

import (
	"errors"
	"testing"
	"time"
	"unicode"

	"golang.org/x/text/language"
)

func TestLocaleNumber_English(t *testing.T) {
	t.Parallel()

	f := NewLocaleNumber(language.English)
	if got := f.DecimalSeparator(); got != "." {
		t.Fatalf("decimal separator = %q", got)
	}
	if got := f.Format(1234.5); got != "1,234.5" {
		t.Fatalf("Format = %q", got)
	}
	value, err := f.Parse("1,234.5")
	if err != nil || value != 1234.5 {
		t.Fatalf("Parse = %v, %v", value, err)
	}
}

func TestLocaleNumber_Spanish(t *testing.T) {
	t.Parallel()

	f, err := ParseLocaleNumber("es")
	if err != nil {
		t.Fatalf("ParseLocaleNumber: %v", err)
	}
	if got := f.DecimalSeparator(); got != "," {
		t.Fatalf("decimal separator = %q", got)
	}
	value, err := f.Parse("12,5")
	if err != nil || value != 12.5 {
		t.Fatalf("Parse = %v, %v", value, err)
	}
}

func TestLocaleNumber_IndianGrouping(t *testing.T) {
	t.Parallel()

	f := NewLocaleNumber(language.MustParse("en-IN"))
	if got := f.Format(1234567.5); got != "12,34,567.5" {
		t.Fatalf("Format = %q", got)
	}
	if f.GroupSeparator() != "," || f.DecimalSeparator() != "." {
		t.Fatalf("separators = %q %q", f.GroupSeparator(), f.DecimalSeparator())
	}

	tests := map[string]float64{
		"22":          22,
		"1234":        1234,
		"1,234":       1234,
		"12,34,567.5": 1234567.5,
	}
	for text, want := range tests {
		got, err := f.Parse(text)
		if err != nil || got != want {
			t.Fatalf("Parse(%q) = %v, %v; want %v", text, got, err, want)
		}
	}
}

func TestLocaleNumber_NativeDigitsRoundTrip(t *testing.T) {
	t.Parallel()

	for _, locale := range []string{"ar", "fa", "de-CH", "fr", "en-IN"} {
		f, err := ParseLocaleNumber(locale)
		if err != nil {
			t.Fatalf("ParseLocaleNumber(%q): %v", locale, err)
		}
		if f.GroupSeparator() == "" || unicode.IsDigit([]rune(f.GroupSeparator())[0]) {
			t.Fatalf("%s: group separator = %q", locale, f.GroupSeparator())
		}
		for _, value := range []float64{0, 22, 1234, 1234567.25} {
			text := f.Format(value)
			got, err := f.Parse(text)
			if err != nil || got != value {
				t.Fatalf("%s: Parse(Format(%v) = %q) = %v, %v", locale, value, text, got, err)
			}
		}
	}
}

func TestLocaleNumber_TrailingSeparator(t *testing.T) {
	t.Parallel()

	f := NewLocaleNumber(language.English)
	if !HasTrailingSeparator(f, "12.") {
		t.Fatalf("expected trailing separator")
	}
	value, err := f.Parse("12.")
	if err != nil || value != 12 {
		t.Fatalf("Parse = %v, %v", value, err)
	}
}

func TestLocaleNumber_Invalid(t *testing.T) {
	t.Parallel()

	f := NewLocaleNumber(language.English)
	for _, text := range []string{"", "abc", "1.2.3"} {
		if _, err := f.Parse(text); !errors.Is(err, ErrInvalidNumber) {
			t.Fatalf("Parse(%q) error = %v", text, err)
		}
	}
}

func TestDateAndDuration(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	if got := ISODate.FormatDate(day); got != "2024-03-09" {
		t.Fatalf("ISODate = %q", got)
	}
	if got := Layout("02/01/2006").FormatDate(day); got != "09/03/2024" {
		t.Fatalf("Layout = %q", got)
	}
	if got := ISODate.FormatDate(time.Time{}); got != "" {
		t.Fatalf("zero date = %q", got)
	}

	cases := map[int]string{0: "0m", 45: "45m", 60: "1h", 90: "1h 30m"}
	for minutes, want := range cases {
		if got := Minutes(minutes); got != want {
			t.Fatalf("Minutes(%d) = %q, want %q", minutes, got, want)
		}
	}
	if got := Join(Split(135)); got != 135 {
		t.Fatalf("Join(Split) = %d", got)
	}
}
