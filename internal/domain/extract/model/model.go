// Package model holds the record types shared by every stage of the
// statement extraction pipeline.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Word is a single token detected on a page together with its horizontal
// extent and vertical position (distance from the top edge).
type Word struct {
	Text string  `json:"text"`
	X0   float64 `json:"x0"`
	X1   float64 `json:"x1"`
	Top  float64 `json:"top"`
}

// Page is the text/geometry provider output for one page.
type Page struct {
	Number  int     `json:"number"`
	Text    string  `json:"text"`
	Words   []Word  `json:"words"`
	Width   float64 `json:"width"`
	Scanned bool    `json:"scanned"` // Text was substituted by OCR
}

// JoinText concatenates the text of all pages, one page per block.
func JoinText(pages []Page) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n")
}

// Candidate is a transaction row as produced by one of the parsers. All
// fields are raw strings; amounts may still be locale-ambiguous.
type Candidate struct {
	Date        string
	Description string
	Reference   string
	Debit       string
	Credit      string
	Balance     string
}

// HasAmount reports whether the candidate carries a transaction amount.
func (c Candidate) HasAmount() bool {
	return c.Debit != "" || c.Credit != ""
}

// Signature is the deduplication key of a candidate.
func (c Candidate) Signature() string {
	amount := c.Debit
	if amount == "" {
		amount = c.Credit
	}
	return c.Date + "|" + strings.ToLower(c.Description) + "|" + amount + "|" + c.Balance
}

// Item is one row returned by a structured document producer. Fields hold
// the literal text found on the page; DateValue is the producer's own typed
// reading of the date, used only when the literal text cannot be resolved.
type Item struct {
	Date        string     `json:"date"`
	Description string     `json:"description"`
	Withdrawal  string     `json:"withdrawal"`
	Deposit     string     `json:"deposit"`
	Balance     string     `json:"balance"`
	DateValue   *time.Time `json:"date_value,omitempty"`
}

// Side tells which column a normalized amount belongs to.
type Side int

const (
	SideNone Side = iota
	SideDebit
	SideCredit
)

func (s Side) String() string {
	switch s {
	case SideDebit:
		return "debit"
	case SideCredit:
		return "credit"
	default:
		return "none"
	}
}

// Transaction is a normalized record. A transaction holds a single amount
// and the side it belongs to, so debit and credit can never both be set.
type Transaction struct {
	Date        string
	Description string
	Reference   string
	Side        Side
	Amount      string // canonical, e.g. "1234.50" or "-100.00"
	Balance     string
}

// Debit returns the debit amount, or "" when the transaction is not a debit.
func (t Transaction) Debit() string {
	if t.Side == SideDebit {
		return t.Amount
	}
	return ""
}

// Credit returns the credit amount, or "" when the transaction is not a credit.
func (t Transaction) Credit() string {
	if t.Side == SideCredit {
		return t.Amount
	}
	return ""
}

// HasAmount reports whether debit, credit or balance is present.
func (t Transaction) HasAmount() bool {
	return (t.Side != SideNone && t.Amount != "") || t.Balance != ""
}

type transactionJSON struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Reference   string `json:"reference"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Balance     string `json:"balance"`
}

// MarshalJSON renders the flat date/description/reference/debit/credit/balance shape.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		Date:        t.Date,
		Description: t.Description,
		Reference:   t.Reference,
		Debit:       t.Debit(),
		Credit:      t.Credit(),
		Balance:     t.Balance,
	})
}

// UnmarshalJSON accepts the flat shape. A record with both debit and
// credit set is rejected.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw transactionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Debit != "" && raw.Credit != "" {
		return fmt.Errorf("transaction has both debit %q and credit %q", raw.Debit, raw.Credit)
	}
	*t = Transaction{
		Date:        raw.Date,
		Description: raw.Description,
		Reference:   raw.Reference,
		Balance:     raw.Balance,
	}
	switch {
	case raw.Debit != "":
		t.Side, t.Amount = SideDebit, raw.Debit
	case raw.Credit != "":
		t.Side, t.Amount = SideCredit, raw.Credit
	}
	return nil
}

// Summary aggregates a final transaction list.
type Summary struct {
	TotalTransactions int     `json:"total_transactions"`
	TotalDebits       string  `json:"total_debits"`
	TotalCredits      string  `json:"total_credits"`
	DateRange         *string `json:"date_range"`
}

// ErrTooManyPages is returned for documents above the configured page limit.
var ErrTooManyPages = errors.New("document exceeds page limit")

// ExtractionError reports that the text/geometry provider could not read
// the source document. It is fatal for the request.
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("failed to extract text: %v", e.Err)
	}
	return fmt.Sprintf("failed to extract text from %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
