// Package common carries the small shared contracts and French-format value
// parsers used by every extraction component: amounts with space grouping and
// k€/M€ suffixes, the accepted date layouts, reference cleaning, and the
// minimal Logger interface components depend on so the zap-backed
// implementation stays injectable.
package common

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ---------------------------------------------------------------------------
// Logger contract
// ---------------------------------------------------------------------------

// Logger is the minimal logging interface required by extraction components.
// It is intentionally tiny so any structured logger can be adapted.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

// NoopLogger returns a Logger that discards everything.  Constructors
// substitute it when the caller passes nil.
func NoopLogger() Logger { return noopLogger{} }

// ---------------------------------------------------------------------------
// Amount parsing
// ---------------------------------------------------------------------------

// ParseAmount converts a French-formatted amount string to a float64.
// Accepted forms: "1 500 000", "1.500.000,50", "150000€", "250 k€", "1,2 M€".
// Space grouping (including NBSP and narrow NBSP) is removed, a decimal comma
// becomes a dot, and k€/M€ suffixes scale by 10³/10⁶.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	lower := strings.ToLower(s)
	multiplier := 1.0
	switch {
	case strings.Contains(lower, "m€"), strings.HasSuffix(lower, "m"):
		multiplier = 1_000_000
	case strings.Contains(lower, "k€"), strings.HasSuffix(lower, "k"):
		multiplier = 1_000
	}

	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ',':
			sb.WriteByte('.')
		case r == '.':
			sb.WriteByte('.')
		}
	}
	cleaned := sb.String()
	if cleaned == "" {
		return 0, false
	}

	// "1.500.000,50" style: every dot but the last is a grouping separator.
	if n := strings.Count(cleaned, "."); n > 1 {
		last := strings.LastIndex(cleaned, ".")
		cleaned = strings.ReplaceAll(cleaned[:last], ".", "") + cleaned[last:]
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f * multiplier, true
}

// FormatAmount renders an amount the way records store it: no grouping,
// decimals only when present.
func FormatAmount(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// ---------------------------------------------------------------------------
// Date parsing
// ---------------------------------------------------------------------------

// dateLayouts lists the accepted numeric date layouts in priority order.
var dateLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"2006-01-02",
	"02/01/06",
	"02-01-06",
}

// frenchMonths maps folded French month names to their number.
var frenchMonths = map[string]time.Month{
	"janvier": time.January, "fevrier": time.February, "mars": time.March,
	"avril": time.April, "mai": time.May, "juin": time.June,
	"juillet": time.July, "aout": time.August, "septembre": time.September,
	"octobre": time.October, "novembre": time.November, "decembre": time.December,
}

// ParseDate parses the date formats found in French tender documents:
// dd/mm/yyyy, dd-mm-yyyy, yyyy-mm-dd, the 2-digit-year variants, and spelled
// "15 décembre 2024".  Returns the zero time and false when nothing matches.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// "15 décembre 2024"
	parts := strings.Fields(foldASCII(s))
	if len(parts) == 3 {
		day, errD := strconv.Atoi(parts[0])
		year, errY := strconv.Atoi(parts[2])
		month, okM := frenchMonths[parts[1]]
		if errD == nil && errY == nil && okM && day >= 1 && day <= 31 {
			return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
		}
	}

	return time.Time{}, false
}

// foldASCII lowercases and maps the accented letters appearing in French month
// names to their ASCII base.
func foldASCII(s string) string {
	s = strings.ToLower(s)
	replacer := strings.NewReplacer("é", "e", "è", "e", "ê", "e", "û", "u", "î", "i", "à", "a", "ç", "c")
	return replacer.Replace(s)
}

// ---------------------------------------------------------------------------
// Misc cleaners
// ---------------------------------------------------------------------------

// CleanReference uppercases a procedure reference and strips everything but
// letters, digits and dashes.
func CleanReference(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// FirstInt returns the first integer found in s.
func FirstInt(s string) (int, bool) {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, err := strconv.Atoi(s[start:i])
			return n, err == nil
		}
	}
	if start >= 0 {
		n, err := strconv.Atoi(s[start:])
		return n, err == nil
	}
	return 0, false
}

//Personal.AI order the ending
