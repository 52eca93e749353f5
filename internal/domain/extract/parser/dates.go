// Package parser turns page text and word geometry into transaction
// candidates. It contains the two independent row parsers (visual and
// text) plus the date, year and amount helpers they share.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// 25/06/2024, 25-06-24, 25 06 2024
	fullDatePattern = regexp.MustCompile(`(\d{1,2})[\s/-](\d{1,2})[\s/-](\d{2,4})`)
	// 25/06, 25 06
	shortDatePattern = regexp.MustCompile(`\b(\d{1,2})[\s/-](\d{1,2})\b`)
	// 25 Jun
	monthNamePattern = regexp.MustCompile(`(\d{1,2})\s+([A-Za-z]{3})`)

	yearPattern = regexp.MustCompile(`\b(\d{4})\b`)
)

var monthAbbreviations = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// yearWindow bounds the years accepted by InferYear relative to now.
const (
	yearsBack    = 5
	yearsForward = 1
)

// InferYear returns the most frequent plausible year mentioned in text.
// Ties go to the year seen first. Without any match the current year is used.
func InferYear(text string, now time.Time) int {
	current := now.Year()
	counts := make(map[int]int)
	var order []int

	for _, m := range yearPattern.FindAllStringSubmatch(text, -1) {
		year, err := strconv.Atoi(m[1])
		if err != nil || year < current-yearsBack || year > current+yearsForward {
			continue
		}
		if counts[year] == 0 {
			order = append(order, year)
		}
		counts[year]++
	}

	best, bestCount := current, 0
	for _, year := range order {
		if counts[year] > bestCount {
			best, bestCount = year, counts[year]
		}
	}
	return best
}

// ResolveDate reads a day-first date out of text and returns it as
// DD/MM/YYYY. Fragments without a year take defaultYear. Day and month
// are bounds-checked so transposed or garbled values are rejected.
func ResolveDate(text string, defaultYear int) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	if m := fullDatePattern.FindStringSubmatch(text); m != nil {
		day, month := atoi(m[1]), atoi(m[2])
		year := m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		if validDayMonth(day, month) {
			return fmt.Sprintf("%02d/%02d/%s", day, month, year), true
		}
	}

	if m := shortDatePattern.FindStringSubmatch(text); m != nil {
		day, month := atoi(m[1]), atoi(m[2])
		if validDayMonth(day, month) {
			return fmt.Sprintf("%02d/%02d/%d", day, month, defaultYear), true
		}
	}

	if m := monthNamePattern.FindStringSubmatch(text); m != nil {
		day := atoi(m[1])
		month, ok := monthAbbreviations[strings.ToLower(m[2])]
		if ok && validDayMonth(day, month) {
			return fmt.Sprintf("%02d/%02d/%d", day, month, defaultYear), true
		}
	}

	return "", false
}

func validDayMonth(day, month int) bool {
	return day >= 1 && day <= 31 && month >= 1 && month <= 12
}

// atoi parses a short digit run already validated by a pattern.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
