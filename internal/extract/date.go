package extract

import (
	"regexp"
	"strconv"
	"time"
)

// Date patterns tried in priority order. The ISO-like form is checked first
// because its ordering is unambiguous; the short form cannot misread
// day/month when the ISO form already matched.
var (
	isoDatePattern = regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
	// The year is exactly two or four digits; the boundary keeps a three-digit
	// run like "024" from half-matching as a valid year.
	shortDatePattern = regexp.MustCompile(`(\d{1,2})[-/](\d{1,2})[-/](\d{4}|\d{2})(?:\D|$)`)
)

// ExtractDate searches normalized text for a transaction date. It takes the
// first textual match of each pattern, in priority order, and returns the
// first one that is a valid calendar date at day precision. The second value
// is false when no valid date is present.
func ExtractDate(text string) (time.Time, bool) {
	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		if d, ok := buildDate(m[1], m[2], m[3]); ok {
			return d, true
		}
	}

	if m := shortDatePattern.FindStringSubmatch(text); m != nil {
		// Short form is DD-MM-YY or DD-MM-YYYY; a two-digit year is
		// interpreted as 2000+YY.
		if d, ok := buildDate(m[3], m[2], m[1]); ok {
			return d, true
		}
	}

	return time.Time{}, false
}

// buildDate assembles a UTC midnight date and rejects values that do not
// survive a calendar round-trip (e.g. month 13 or day 40, which time.Date
// would silently normalize away).
func buildDate(yearStr, monthStr, dayStr string) (time.Time, bool) {
	year, _ := strconv.Atoi(yearStr)
	month, _ := strconv.Atoi(monthStr)
	day, _ := strconv.Atoi(dayStr)

	if len(yearStr) == 2 {
		year += 2000
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}
