package normalizer

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// CanonicalDateLayout is the only date shape in normalized output.
const CanonicalDateLayout = "02/01/2006"

// dayFirstLayouts are tried in order before the general parser.
var dayFirstLayouts = []string{
	"2/1/2006",       // 25/06/2024
	"2-1-2006",       // 25-06-2024
	"2.1.2006",       // 25.06.2024
	"2 Jan 2006",     // 25 Jun 2024
	"2 January 2006", // 25 June 2024
	"2/1/06",         // 25/06/24
	"2-1-06",         // 25-06-24
}

// NormalizeDate renders a date as DD/MM/YYYY. Explicit day-first layouts
// are tried first, then a general parser that never reads month first.
// Input that nothing understands comes back unchanged with ErrUnparseable.
func NormalizeDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", nil
	}

	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(CanonicalDateLayout), nil
		}
	}

	if t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false)); err == nil {
		return t.Format(CanonicalDateLayout), nil
	}

	return s, ErrUnparseable
}

// ParseCanonicalDate parses a DD/MM/YYYY string.
func ParseCanonicalDate(s string) (time.Time, bool) {
	t, err := time.Parse(CanonicalDateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
