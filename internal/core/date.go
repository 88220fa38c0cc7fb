package core

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// BankDateLayout is the layout of the bank export timestamp, e.g. "07/Aug/2025 23:13".
const BankDateLayout = "02/Jan/2006 15:04"

var bankDate = regexp.MustCompile(`^\s*(\d{1,2})/([A-Za-z]{3})/(\d{4})\s+(\d{1,2}):(\d{2})\s*$`)

var monthAbbrev = map[string]time.Month{
	"Jan": time.January,
	"Feb": time.February,
	"Mar": time.March,
	"Apr": time.April,
	"May": time.May,
	"Jun": time.June,
	"Jul": time.July,
	"Aug": time.August,
	"Sep": time.September,
	"Oct": time.October,
	"Nov": time.November,
	"Dec": time.December,
}

// epoch is the instant used for unparseable dates wherever an ordering needs one.
var epoch = time.Unix(0, 0).UTC()

// ParseDate parses a transaction date string in UTC.
//
// The bank pattern "DD/Mon/YYYY HH:MM" is tried first. Month abbreviations are
// matched case-sensitively; an unknown abbreviation falls back to January.
// Out-of-range day or time components roll over the way time.Date normalizes
// them. Anything else goes through dateparse. The boolean is false when
// neither succeeds.
func ParseDate(s string) (time.Time, bool) {
	if m := bankDate.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		hour, _ := strconv.Atoi(m[4])
		minute, _ := strconv.Atoi(m[5])
		month, ok := monthAbbrev[m[2]]
		if !ok {
			month = time.January
		}
		return time.Date(year, month, day, hour, minute, 0, 0, time.UTC), true
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SortTime returns the parsed date, or the Unix epoch when s does not parse.
// Use it only where a comparison needs a definite instant.
func SortTime(s string) time.Time {
	if t, ok := ParseDate(s); ok {
		return t
	}
	return epoch
}

// FormatBankDate renders t in the bank export layout.
func FormatBankDate(t time.Time) string {
	return t.Format(BankDateLayout)
}
