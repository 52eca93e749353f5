package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
)

func sampleTransactions() []model.Transaction {
	return []model.Transaction{
		{Date: "25/06/2024", Description: "Payment To XYZ", Side: model.SideCredit, Amount: "1200.00", Balance: "250.00"},
		{Date: "26/06/2024", Description: "Coffee, Large", Reference: "REF1", Side: model.SideDebit, Amount: "-45.50", Balance: "204.50"},
		{Date: "27/06/2024", Description: "Balance Only", Balance: "204.50"},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"excel", FormatExcel, false},
		{"xlsx", FormatExcel, false},
		{" csv ", FormatCSV, false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatMetadata(t *testing.T) {
	assert.Equal(t, ".xlsx", FormatExcel.Extension())
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Equal(t, ".json", FormatJSON.Extension())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteCSV(&buf, sampleTransactions()))

	want := "Date,Description,Reference,Debit,Credit,Balance\n" +
		"25/06/2024,Payment To XYZ,,,1200.00,250.00\n" +
		"26/06/2024,\"Coffee, Large\",REF1,-45.50,,204.50\n" +
		"27/06/2024,Balance Only,,,,204.50\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_FormulaText(t *testing.T) {
	tests := []struct {
		description string
		reference   string
		wantRow     string
	}{
		{"=Hyperlink(A1)", "", "01/06/2024,'=Hyperlink(A1),,-10.00,,\n"},
		{"+27 82 555", "@ref", "01/06/2024,'+27 82 555,'@ref,-10.00,,\n"},
		{"-Reversal", "", "01/06/2024,'-Reversal,,-10.00,,\n"},
		{"Fee - Monthly", "A-1", "01/06/2024,Fee - Monthly,A-1,-10.00,,\n"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			var buf bytes.Buffer
			txs := []model.Transaction{{Date: "01/06/2024", Description: tt.description, Reference: tt.reference, Side: model.SideDebit, Amount: "-10.00"}}

			require.NoError(t, WriteCSV(&buf, txs))

			assert.Equal(t, "Date,Description,Reference,Debit,Credit,Balance\n"+tt.wantRow, buf.String())
		})
	}
}

func TestWriteExcel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, sampleTransactions()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, []string{"25/06/2024", "Payment To XYZ", "", "", "1200", "250"}, rows[1])
	assert.Equal(t, []string{"26/06/2024", "Coffee, Large", "REF1", "-45.5", "", "204.5"}, rows[2])

	cellType, err := f.GetCellType(SheetName, "E2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, cellType, "amounts are numbers")
}

func TestWriteExcel_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Columns, rows[0])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	rng := "25/06/2024 - 27/06/2024"
	summary := model.Summary{TotalTransactions: 3, TotalDebits: "45.50", TotalCredits: "1200.00", DateRange: &rng}

	require.NoError(t, Write(&buf, FormatJSON, sampleTransactions(), summary))

	var doc struct {
		Transactions []map[string]string `json:"transactions"`
		Summary      model.Summary       `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Transactions, 3)
	assert.Equal(t, "1200.00", doc.Transactions[0]["credit"])
	assert.Equal(t, "", doc.Transactions[0]["debit"])
	assert.Equal(t, "-45.50", doc.Transactions[1]["debit"])
	assert.Equal(t, summary, doc.Summary)
}

func TestWriteJSON_EmptyList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil, model.Summary{TotalDebits: "0.00", TotalCredits: "0.00"}))

	assert.Contains(t, buf.String(), `"transactions": []`)
	assert.Contains(t, buf.String(), `"date_range": null`)
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, Format("pdf"), nil, model.Summary{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
