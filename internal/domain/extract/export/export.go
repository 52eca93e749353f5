// Package export renders converted statements as JSON, XLSX or CSV.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
)

// Format is an output format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatExcel Format = "excel"
	FormatCSV   Format = "csv"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown output format")

// Columns is the header row shared by the tabular formats.
var Columns = []string{"Date", "Description", "Reference", "Debit", "Credit", "Balance"}

// ParseFormat reads a format name. Empty means JSON; "xlsx" is accepted
// for excel.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv"
	default:
		return "application/json"
	}
}

// Extension returns the file extension of the format, with the dot.
func (f Format) Extension() string {
	switch f {
	case FormatExcel:
		return ".xlsx"
	case FormatCSV:
		return ".csv"
	default:
		return ".json"
	}
}

// Document is the JSON shape of a converted statement.
type Document struct {
	Transactions []model.Transaction `json:"transactions"`
	Summary      model.Summary       `json:"summary"`
}

// Write renders transactions in the given format.
func Write(w io.Writer, format Format, txs []model.Transaction, summary model.Summary) error {
	switch format {
	case FormatExcel:
		return WriteExcel(w, txs)
	case FormatCSV:
		return WriteCSV(w, txs)
	case FormatJSON:
		return WriteJSON(w, txs, summary)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

// WriteJSON writes the transactions and summary as one indented document.
func WriteJSON(w io.Writer, txs []model.Transaction, summary model.Summary) error {
	if txs == nil {
		txs = []model.Transaction{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Document{Transactions: txs, Summary: summary}); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}
