package normalizer

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
)

// FieldError reports one field that could not be normalized.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("field %s: %q: %v", e.Field, e.Value, e.Err)
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// Normalizer converts candidates into transactions.
type Normalizer struct{}

// NewNormalizer creates a normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize cleans every field of a candidate and settles which side the
// amount belongs to. Problems are returned per field; the transaction is
// always usable and carries empty values for the fields that failed.
func (n *Normalizer) Normalize(c model.Candidate) (model.Transaction, []FieldError) {
	var errs []FieldError
	amount := func(field, raw string) string {
		v, err := NormalizeAmount(raw)
		if err != nil {
			errs = append(errs, FieldError{Field: field, Value: raw, Err: err})
		}
		return v
	}

	debit := amount("debit", c.Debit)
	credit := amount("credit", c.Credit)
	balance := amount("balance", c.Balance)

	date, err := NormalizeDate(c.Date)
	if err != nil {
		errs = append(errs, FieldError{Field: "date", Value: c.Date, Err: err})
	}

	reference := CleanReference(c.Reference)
	if reference == "" && strings.TrimSpace(c.Reference) != "" {
		errs = append(errs, FieldError{Field: "reference", Value: c.Reference, Err: ErrUnparseable})
	}

	tx := model.Transaction{
		Date:        date,
		Description: CleanDescription(c.Description),
		Reference:   reference,
		Balance:     balance,
	}
	tx.Side, tx.Amount = settleSide(c.Debit, c.Credit, debit, credit)
	return tx, errs
}

// settleSide decides the final column from the raw and normalized values.
// A credit written as negative moves to debit, as does a lone debit.
// When both columns still hold a value the debit is kept.
func settleSide(rawDebit, rawCredit, debit, credit string) (model.Side, string) {
	negativeCredit := strings.ContainsAny(rawCredit, "-(")
	negativeDebit := strings.ContainsAny(rawDebit, "-(")

	switch {
	case (negativeCredit && credit != "") || (debit != "" && credit == ""):
		if debit != "" {
			return model.SideDebit, debit
		}
		return model.SideDebit, credit
	case negativeDebit && debit != "":
		return model.SideDebit, debit
	case debit != "":
		return model.SideDebit, debit
	case credit != "":
		return model.SideCredit, credit
	default:
		return model.SideNone, ""
	}
}

// Valid reports whether a transaction carries enough data to keep: a date
// with a description or an amount, or a description with an amount. The
// balance counts as an amount.
func Valid(tx model.Transaction) bool {
	hasDate := tx.Date != ""
	hasDesc := tx.Description != ""
	hasAmount := tx.HasAmount()
	return (hasDate && (hasDesc || hasAmount)) || (hasDesc && hasAmount)
}
