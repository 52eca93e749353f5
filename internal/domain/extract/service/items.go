package service

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
	"github.com/FACorreiaa/statement-converter/internal/domain/extract/parser"
)

// Rows from a structured producer that mention these and carry no amount
// are page furniture, not transactions.
var itemNoise = []string{"standard bank", "brought forward", "page"}

// AssembleItems turns structured producer rows into candidates. The literal
// date text is resolved day-first; the producer's typed date is used only
// when that fails. Dates carry forward to rows without one. A withdrawal,
// or any amount written with a minus or parentheses, is a debit. Rows
// without a description are dropped, as are exact repeats.
func AssembleItems(items []model.Item, year int) []model.Candidate {
	var (
		assembled []model.Candidate
		lastDate  string
	)

	for _, item := range items {
		date, ok := parser.ResolveDate(item.Date, year)
		if !ok && strings.TrimSpace(item.Date) != "" && item.DateValue != nil {
			date = typedDate(item, year)
		}
		if date != "" {
			lastDate = date
		} else {
			date = lastDate
		}

		desc := strings.TrimSpace(item.Description)
		raw := item.Withdrawal + item.Deposit
		amount := strings.TrimSpace(item.Withdrawal)
		if amount == "" {
			amount = strings.TrimSpace(item.Deposit)
		}
		if desc == "" && amount == "" {
			continue
		}

		c := model.Candidate{Date: date, Description: desc, Balance: item.Balance}
		if strings.ContainsAny(raw, "-(") || item.Withdrawal != "" {
			c.Debit = amount
		} else {
			c.Credit = amount
		}
		assembled = append(assembled, c)
	}

	return finalizeItems(assembled)
}

func typedDate(item model.Item, year int) string {
	t := *item.DateValue
	y := t.Year()
	if y == 0 {
		y = year
	}
	return fmt.Sprintf("%02d/%02d/%d", t.Day(), int(t.Month()), y)
}

func finalizeItems(candidates []model.Candidate) []model.Candidate {
	final := make([]model.Candidate, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))

	for _, c := range candidates {
		c.Date = padDate(c.Date)
		c.Description = strings.Join(strings.Fields(c.Description), " ")
		if c.Description == "" {
			continue
		}
		if !c.HasAmount() && containsAny(strings.ToLower(c.Description), itemNoise) {
			continue
		}

		key := c.Date + "|" + c.Description + "|" + c.Debit + "|" + c.Credit
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		final = append(final, c)
	}
	return final
}

// padDate rewrites "5-6-2024" or "5 6 2024" as "05/06/2024". Other shapes
// are left alone.
func padDate(date string) string {
	if date == "" {
		return ""
	}
	date = strings.NewReplacer("-", "/", " ", "/").Replace(date)
	parts := strings.Split(date, "/")
	if len(parts) != 3 {
		return date
	}
	return zeroPad(parts[0]) + "/" + zeroPad(parts[1]) + "/" + parts[2]
}

func zeroPad(s string) string {
	if len(s) >= 2 {
		return s
	}
	return strings.Repeat("0", 2-len(s)) + s
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
