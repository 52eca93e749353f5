package service

import (
	"time"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
	"github.com/FACorreiaa/statement-converter/internal/domain/extract/normalizer"
	"github.com/FACorreiaa/statement-converter/pkg/money"
)

// Summarize totals a transaction list. Debits are summed as absolute
// values and kept at the precision they were written with, whatever the
// currency's minor unit. Amounts that do not parse are skipped. The date range covers the
// dates that parse as DD/MM/YYYY and is nil when none do.
func Summarize(txs []model.Transaction, currency string) model.Summary {
	debits, credits := money.NewTotal(currency), money.NewTotal(currency)
	var first, last time.Time

	for _, tx := range txs {
		_ = debits.AddAbsString(tx.Debit())
		_ = credits.AddString(tx.Credit())

		t, ok := normalizer.ParseCanonicalDate(tx.Date)
		if !ok {
			continue
		}
		if first.IsZero() || t.Before(first) {
			first = t
		}
		if last.IsZero() || t.After(last) {
			last = t
		}
	}

	summary := model.Summary{
		TotalTransactions: len(txs),
		TotalDebits:       debits.String(),
		TotalCredits:      credits.String(),
	}
	if !first.IsZero() {
		r := first.Format(normalizer.CanonicalDateLayout) + " - " + last.Format(normalizer.CanonicalDateLayout)
		summary.DateRange = &r
	}
	return summary
}
