package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
)

// SheetName is the name of the single worksheet.
const SheetName = "Bank Transactions"

// Built-in excelize number format 4 is "#,##0.00".
const amountNumFmt = 4

var columnWidths = map[string]float64{
	"A": 12,
	"B": 50,
	"C": 15,
	"D": 12,
	"E": 12,
	"F": 12,
}

// WriteExcel writes transactions as an XLSX workbook with one sheet. Debit,
// credit and balance are stored as numbers when they parse.
func WriteExcel(w io.Writer, txs []model.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, tx := range txs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			tx.Date,
			tx.Description,
			tx.Reference,
			amountCell(tx.Debit()),
			amountCell(tx.Credit()),
			amountCell(tx.Balance),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if len(txs) > 0 {
		style, err := f.NewStyle(&excelize.Style{NumFmt: amountNumFmt})
		if err != nil {
			return fmt.Errorf("failed to create amount style: %w", err)
		}
		if err := f.SetCellStyle(SheetName, "D2", fmt.Sprintf("F%d", len(txs)+1), style); err != nil {
			return fmt.Errorf("failed to style amounts: %w", err)
		}
	}

	for col, width := range columnWidths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// amountCell returns a float for numeric text, the text itself otherwise
// and nil for an empty value.
func amountCell(s string) interface{} {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	v, _ := d.Float64()
	return v
}
