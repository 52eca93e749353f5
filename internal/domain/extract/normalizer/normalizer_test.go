package normalizer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
	"github.com/FACorreiaa/statement-converter/pkg/money"
)

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"space thousands comma decimal", "1 200,00", "1200.00", false},
		{"comma thousands period decimal", "1,200.00", "1200.00", false},
		{"period thousands comma decimal", "1.200,00", "1200.00", false},
		{"trailing minus", "100,00-", "-100.00", false},
		{"parentheses", "(100.00)", "-100.00", false},
		{"currency symbol", "R 1 234,56", "1234.56", false},
		{"comma with three digits is thousands", "1,200", "1200.00", false},
		{"several commas are thousands", "1,234,567", "1234567.00", false},
		{"plain integer", "42", "42.00", false},
		{"rounds to two digits", "10.005", "10.01", false},
		{"half rounds away from zero", "1.005", "1.01", false},
		{"negative half rounds away from zero", "(1.005)", "-1.01", false},
		{"exact decimal, not binary float", "2.675", "2.68", false},
		{"negative zero stays zero", "-0,00", "0.00", false},
		{"empty", "", "", false},
		{"blank", "   ", "", false},
		{"no digits", "abc", "", true},
		{"several periods", "1.200.00", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeAmount(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnparseable)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeAmount_Idempotent(t *testing.T) {
	gen := money.NewTestDataGeneratorWithSeed(7)
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	for _, row := range gen.StatementRows(money.ZAR, start, 100) {
		for _, raw := range []string{money.FormatSpaced(row.Amount), money.FormatGrouped(row.Amount)} {
			once, err := NormalizeAmount(raw)
			require.NoError(t, err, raw)
			assert.Equal(t, row.Amount.String(), once, raw)

			twice, err := NormalizeAmount(once)
			require.NoError(t, err)
			assert.Equal(t, once, twice)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"canonical", "25/06/2024", "25/06/2024", false},
		{"unpadded", "5/6/2024", "05/06/2024", false},
		{"dashes", "25-06-2024", "25/06/2024", false},
		{"dots", "25.06.2024", "25/06/2024", false},
		{"month abbreviation", "25 Jun 2024", "25/06/2024", false},
		{"full month name", "25 June 2024", "25/06/2024", false},
		{"two digit year", "25/06/24", "25/06/2024", false},
		{"two digit year with dashes", "25-06-24", "25/06/2024", false},
		{"day first when ambiguous", "03/04/2024", "03/04/2024", false},
		{"iso falls through to general parser", "2024-06-25", "25/06/2024", false},
		{"empty", "", "", false},
		{"garbage passes through", "not a date", "not a date", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDate(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnparseable)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDate_Idempotent(t *testing.T) {
	gen := money.NewTestDataGeneratorWithSeed(11)
	start := time.Date(2023, time.December, 20, 0, 0, 0, 0, time.UTC)

	for _, row := range gen.StatementRows(money.ZAR, start, 60) {
		once, err := NormalizeDate(row.Date.Format("2/1/2006"))
		require.NoError(t, err)
		assert.Equal(t, row.Date.Format(CanonicalDateLayout), once)

		twice, err := NormalizeDate(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"capitalizes words", "Payment to XYZ", "Payment To XYZ"},
		{"collapses whitespace", "  card   purchase\tshop ", "Card Purchase Shop"},
		{"strips leading dash", "- Transfer", "Transfer"},
		{"strips trailing dash", "Transfer -", "Transfer"},
		{"strips leading asterisk", "* Fee", "Fee"},
		{"drops repeated words", "Netflix NETFLIX subscription", "Netflix Subscription"},
		{"keeps short repeats", "R to R to", "R To R To"},
		{"keeps inner casing", "eBay purchase", "EBay Purchase"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanDescription(tt.input))
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		once := CleanDescription("- payment payment to  the  shop *")
		assert.Equal(t, once, CleanDescription(once))
	})
}

func TestCleanReference(t *testing.T) {
	assert.Equal(t, "AB12CD", CleanReference(" ab-12/cd "))
	assert.Equal(t, "", CleanReference("--"))
	assert.Equal(t, "X9", CleanReference("x_9"))
}

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer()

	t.Run("statement row", func(t *testing.T) {
		tx, errs := n.Normalize(model.Candidate{
			Date:        "25/06/2024",
			Description: "Payment to XYZ",
			Credit:      "1 200,00",
			Balance:     "250,00",
		})

		assert.Empty(t, errs)
		assert.Equal(t, "25/06/2024", tx.Date)
		assert.Equal(t, "Payment To XYZ", tx.Description)
		assert.Empty(t, tx.Debit())
		assert.Equal(t, "1200.00", tx.Credit())
		assert.Equal(t, "250.00", tx.Balance)
	})

	t.Run("negative credit moves to debit", func(t *testing.T) {
		tx, _ := n.Normalize(model.Candidate{Description: "Fee", Credit: "(15,00)"})
		assert.Equal(t, model.SideDebit, tx.Side)
		assert.Equal(t, "-15.00", tx.Debit())
		assert.Empty(t, tx.Credit())
	})

	t.Run("lone debit stays debit", func(t *testing.T) {
		tx, _ := n.Normalize(model.Candidate{Description: "Fee", Debit: "100,00-"})
		assert.Equal(t, "-100.00", tx.Debit())
		assert.Empty(t, tx.Credit())
	})

	t.Run("debit wins when both are set", func(t *testing.T) {
		tx, _ := n.Normalize(model.Candidate{Description: "Odd", Debit: "5,00", Credit: "7,00"})
		assert.Equal(t, "5.00", tx.Debit())
		assert.Empty(t, tx.Credit())
	})

	t.Run("reports unparseable fields and clears them", func(t *testing.T) {
		tx, errs := n.Normalize(model.Candidate{
			Date:        "someday",
			Description: "Shop",
			Credit:      "n/a",
			Balance:     "1.2.3",
			Reference:   "***",
		})

		fields := make([]string, 0, len(errs))
		for _, e := range errs {
			assert.True(t, errors.Is(e, ErrUnparseable))
			fields = append(fields, e.Field)
		}
		assert.ElementsMatch(t, []string{"credit", "balance", "date", "reference"}, fields)
		assert.Equal(t, "someday", tx.Date)
		assert.Equal(t, model.SideNone, tx.Side)
		assert.Empty(t, tx.Balance)
		assert.Empty(t, tx.Reference)
	})
}

func TestNormalizer_MutualExclusivity(t *testing.T) {
	n := NewNormalizer()
	gen := money.NewTestDataGeneratorWithSeed(3)
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	for i, row := range gen.StatementRows(money.ZAR, start, 200) {
		c := model.Candidate{
			Date:        row.Date.Format(CanonicalDateLayout),
			Description: row.Description,
			Balance:     money.FormatSpaced(row.Balance),
		}
		// Put values in both columns on some rows.
		switch i % 3 {
		case 0:
			c.Credit = money.FormatSpaced(row.Amount)
		case 1:
			c.Debit = money.FormatGrouped(row.Amount)
		default:
			c.Debit = money.FormatSpaced(row.Amount)
			c.Credit = money.FormatGrouped(row.Amount.Abs())
		}

		tx, errs := n.Normalize(c)
		require.Empty(t, errs)
		assert.False(t, tx.Debit() != "" && tx.Credit() != "", "row %d has both sides", i)
		if row.Amount.IsNegative() {
			assert.Equal(t, model.SideDebit, tx.Side, "row %d", i)
		}
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		tx   model.Transaction
		want bool
	}{
		{"reference only", model.Transaction{Reference: "ABC123"}, false},
		{"description and credit without date", model.Transaction{Description: "Payment", Side: model.SideCredit, Amount: "50.00"}, true},
		{"date and description", model.Transaction{Date: "01/01/2024", Description: "Fee"}, true},
		{"date and balance", model.Transaction{Date: "01/01/2024", Balance: "10.00"}, true},
		{"date only", model.Transaction{Date: "01/01/2024"}, false},
		{"description only", model.Transaction{Description: "Fee"}, false},
		{"amount only", model.Transaction{Side: model.SideDebit, Amount: "-1.00"}, false},
		{"empty", model.Transaction{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.tx))
		})
	}
}

func TestNoiseFilter(t *testing.T) {
	f := NewNoiseFilter(DefaultNoiseKeywords())

	tests := []struct {
		name string
		c    model.Candidate
		want bool
	}{
		{"regular row", model.Candidate{Description: "Coffee Shop", Debit: "-4,50"}, true},
		{"empty description", model.Candidate{Debit: "-4,50"}, false},
		{"boilerplate keyword", model.Candidate{Description: "BALANCE BROUGHT FORWARD", Credit: "10,00"}, false},
		{"keyword anywhere in text", model.Candidate{Description: "Page 2 of 3", Credit: "1,00"}, false},
		{"balance without amount", model.Candidate{Description: "Available balance", Balance: "10,00"}, false},
		{"balance with amount", model.Candidate{Description: "Balance adjustment", Credit: "10,00"}, true},
		{"too long", model.Candidate{Description: strings.Repeat("x", MaxDescriptionLen+1), Credit: "1,00"}, false},
		{"at length limit", model.Candidate{Description: strings.Repeat("x", MaxDescriptionLen), Credit: "1,00"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Keep(tt.c))
		})
	}

	t.Run("filter keeps order", func(t *testing.T) {
		in := []model.Candidate{
			{Description: "A shop", Credit: "1,00"},
			{Description: "Page 1", Credit: "1,00"},
			{Description: "B shop", Credit: "2,00"},
		}
		out := f.Filter(in)
		require.Len(t, out, 2)
		assert.Equal(t, "A shop", out[0].Description)
		assert.Equal(t, "B shop", out[1].Description)
	})

	t.Run("custom keywords", func(t *testing.T) {
		custom := NewNoiseFilter([]string{" Promo ", ""})
		assert.Equal(t, []string{"promo"}, custom.Keywords())
		assert.False(t, custom.Keep(model.Candidate{Description: "PROMO code", Credit: "1,00"}))
		assert.True(t, custom.Keep(model.Candidate{Description: "Page 1", Credit: "1,00"}))
	})
}
