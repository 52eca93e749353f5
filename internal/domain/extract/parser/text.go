package parser

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
)

var (
	lineDatePattern   = regexp.MustCompile(`(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{1,2}\s+[A-Z][a-z]{2,3}|\d{2}\s\d{2})`)
	lineAmountPattern = regexp.MustCompile(`-?\d{1,3}(?:[,\s]\d{3})*(?:[.,]\d{2})-?`)
)

// ParseText scans the plain text of a document line by line. Every line with
// at least one amount token becomes a candidate; its description is the line
// with the date and amount substrings removed. Dates carry forward to later
// lines. Unlike ParseVisual there is no multi-line continuation.
func ParseText(text string, year int) []model.Candidate {
	var (
		candidates []model.Candidate
		lastDate   string
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		dateMatch := lineDatePattern.FindString(line)
		amounts := lineAmountPattern.FindAllString(line, -1)

		if dateMatch != "" {
			if date, ok := ResolveDate(dateMatch, year); ok {
				lastDate = date
			}
		}
		if len(amounts) == 0 {
			continue
		}

		debit, credit, balance := ClassifyAmounts(amounts)

		desc := line
		if dateMatch != "" {
			desc = strings.ReplaceAll(desc, dateMatch, "")
		}
		for _, a := range amounts {
			desc = strings.ReplaceAll(desc, a, "")
		}

		candidates = append(candidates, model.Candidate{
			Date:        lastDate,
			Description: strings.Join(strings.Fields(desc), " "),
			Debit:       debit,
			Credit:      credit,
			Balance:     balance,
		})
	}

	return candidates
}
