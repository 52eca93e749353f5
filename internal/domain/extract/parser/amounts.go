package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyNoise = regexp.MustCompile(`[R$£€\s]`)

// amountValue reads the sign and magnitude of a raw amount token. Commas are
// read as decimal points and a trailing minus is moved to the front, so
// "100,00-" is -100. Tokens that still cannot be parsed count as zero.
func amountValue(token string) decimal.Decimal {
	c := currencyNoise.ReplaceAllString(token, "")
	c = strings.ReplaceAll(c, ",", ".")
	c = strings.ReplaceAll(c, "(", "-")
	c = strings.ReplaceAll(c, ")", "")
	if strings.HasSuffix(c, "-") {
		c = "-" + strings.TrimSuffix(c, "-")
	}

	v, err := decimal.NewFromString(c)
	if err != nil {
		return decimal.Zero
	}
	return v
}

// ClassifyAmounts splits the amount tokens of one row into debit, credit and
// balance. With two or more tokens the last one is the balance. Each
// remaining token goes to debit when negative and to credit when positive;
// a zero only lands in credit when neither slot is filled yet. Later tokens
// overwrite earlier ones of the same sign. Returned values are the raw tokens.
func ClassifyAmounts(tokens []string) (debit, credit, balance string) {
	if len(tokens) == 0 {
		return "", "", ""
	}

	parts := tokens
	if len(tokens) >= 2 {
		balance = tokens[len(tokens)-1]
		parts = tokens[:len(tokens)-1]
	}

	for _, token := range parts {
		switch amountValue(token).Sign() {
		case -1:
			debit = token
		case 1:
			credit = token
		default:
			if debit == "" && credit == "" {
				credit = token
			}
		}
	}
	return debit, credit, balance
}
