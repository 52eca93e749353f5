// Package normalizer turns raw transaction candidates into canonical
// records: amounts with two fraction digits, day-first DD/MM/YYYY dates,
// cleaned descriptions and references. It also holds the noise filter that
// runs before normalization and the validator that runs after it.
package normalizer

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnparseable is reported for a field whose raw value could not be read.
// The field is cleared (amounts, references) or passed through (dates).
var ErrUnparseable = errors.New("unparseable value")

var (
	currencyNoise  = regexp.MustCompile(`[R$£€\s]`)
	nonAmountChars = regexp.MustCompile(`[^\d,.]`)
	hasDigit       = regexp.MustCompile(`\d`)
)

// NormalizeAmount converts a locale-ambiguous amount into a signed decimal
// string with exactly two fraction digits, e.g. "1 200,00" -> "1200.00" and
// "100,00-" -> "-100.00". When both separators appear the later one is the
// decimal point. A lone comma is a decimal point only when followed by
// exactly two digits. Extra fraction digits round half away from zero on
// the exact decimal value, so "1.005" gives "1.01". Empty input returns ""
// without error.
func NormalizeAmount(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", nil
	}

	s = currencyNoise.ReplaceAllString(s, "")
	negative := strings.ContainsAny(s, "-(")
	s = nonAmountChars.ReplaceAllString(s, "")

	hasComma := strings.Contains(s, ",")
	hasPeriod := strings.Contains(s, ".")
	switch {
	case hasComma && hasPeriod:
		if strings.LastIndex(s, ".") > strings.LastIndex(s, ",") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
	case hasComma:
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) == 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	if !hasDigit.MatchString(s) {
		return "", ErrUnparseable
	}
	value, err := decimal.NewFromString(s)
	if err != nil {
		return "", ErrUnparseable
	}
	if negative && value.IsPositive() {
		value = value.Neg()
	}
	return value.StringFixed(2), nil
}
