package model

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidate_Signature(t *testing.T) {
	t.Run("uses debit when present", func(t *testing.T) {
		c := Candidate{Date: "01/02/2024", Description: "Coffee SHOP", Debit: "-4,50", Balance: "100,00"}
		assert.Equal(t, "01/02/2024|coffee shop|-4,50|100,00", c.Signature())
	})

	t.Run("falls back to credit", func(t *testing.T) {
		c := Candidate{Date: "01/02/2024", Description: "Salary", Credit: "5000.00"}
		assert.Equal(t, "01/02/2024|salary|5000.00|", c.Signature())
	})
}

func TestTransaction_Sides(t *testing.T) {
	debit := Transaction{Side: SideDebit, Amount: "-10.00"}
	assert.Equal(t, "-10.00", debit.Debit())
	assert.Empty(t, debit.Credit())

	credit := Transaction{Side: SideCredit, Amount: "10.00"}
	assert.Empty(t, credit.Debit())
	assert.Equal(t, "10.00", credit.Credit())

	none := Transaction{Balance: "5.00"}
	assert.Empty(t, none.Debit())
	assert.Empty(t, none.Credit())
	assert.True(t, none.HasAmount())
	assert.False(t, Transaction{}.HasAmount())
}

func TestTransaction_JSON(t *testing.T) {
	tx := Transaction{Date: "25/06/2024", Description: "Payment To XYZ", Side: SideCredit, Amount: "1200.00", Balance: "250.00"}

	data, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"25/06/2024","description":"Payment To XYZ","reference":"","debit":"","credit":"1200.00","balance":"250.00"}`, string(data))

	var back Transaction
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, tx, back)

	err = json.Unmarshal([]byte(`{"debit":"1.00","credit":"2.00"}`), &back)
	assert.Error(t, err)
}

func TestExtractionError(t *testing.T) {
	err := error(&ExtractionError{Source: "statement.pdf", Err: io.ErrUnexpectedEOF})
	assert.Contains(t, err.Error(), "statement.pdf")
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	var extErr *ExtractionError
	assert.True(t, errors.As(err, &extErr))
}

func TestJoinText(t *testing.T) {
	pages := []Page{{Text: "first"}, {Text: "second"}}
	assert.Equal(t, "first\nsecond", JoinText(pages))
}
