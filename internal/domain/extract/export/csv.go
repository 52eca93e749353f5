package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
)

// csvRow is one CSV line. Tags match Columns.
type csvRow struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Reference   string `csv:"Reference"`
	Debit       string `csv:"Debit"`
	Credit      string `csv:"Credit"`
	Balance     string `csv:"Balance"`
}

// WriteCSV writes transactions as CSV with a header row. Amounts keep
// their canonical text.
func WriteCSV(w io.Writer, txs []model.Transaction) error {
	rows := make([]csvRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, csvRow{
			Date:        tx.Date,
			Description: escapeFormula(tx.Description),
			Reference:   escapeFormula(tx.Reference),
			Debit:       tx.Debit(),
			Credit:      tx.Credit(),
			Balance:     tx.Balance,
		})
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// escapeFormula prefixes text that a spreadsheet would evaluate as a
// formula with a single quote. Amount columns are canonical decimals and
// are written as they are.
func escapeFormula(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
