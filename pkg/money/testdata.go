package money

import (
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// TestDataGenerator generates realistic statement rows using gofakeit.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a new test data generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(0), // Random seed
	}
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(seed),
	}
}

// StatementRow is one generated statement line before any formatting.
type StatementRow struct {
	Date        time.Time
	Description string
	Amount      *Money // negative for money out
	Balance     *Money
}

// RandomAmount generates a random Money value within a cent range.
func (g *TestDataGenerator) RandomAmount(currency string, minCents, maxCents int64) *Money {
	if minCents > maxCents {
		minCents, maxCents = maxCents, minCents
	}
	cents := g.faker.Int64() % (maxCents - minCents + 1)
	if cents < 0 {
		cents = -cents
	}
	return New(minCents+cents, currency)
}

var expenseDescriptions = []string{
	"Card purchase", "Debit order", "Cash withdrawal", "Prepaid electricity",
	"Cellphone airtime", "Fuel purchase", "Insurance premium", "Online payment",
	"Pharmacy", "Grocery store", "Restaurant", "Gym membership",
}

var incomeDescriptions = []string{
	"Salary deposit", "Transfer received", "Refund", "Cash deposit",
	"Freelance payment", "Dividend payment",
}

// Description returns a random transaction description, optionally with a
// merchant name appended.
func (g *TestDataGenerator) Description(expense bool) string {
	pool := incomeDescriptions
	if expense {
		pool = expenseDescriptions
	}
	desc := pool[g.faker.Number(0, len(pool)-1)]
	if g.faker.Bool() {
		desc += " " + g.faker.Company()
	}
	return desc
}

// StatementRows generates count consecutive rows with a running balance.
// Dates ascend one day at a time from start.
func (g *TestDataGenerator) StatementRows(currency string, start time.Time, count int) []StatementRow {
	rows := make([]StatementRow, 0, count)
	balance := g.RandomAmount(currency, 100000, 5000000)

	for i := 0; i < count; i++ {
		expense := g.faker.Bool()
		amount := g.RandomAmount(currency, 100, 2500000)
		if expense {
			amount = New(-amount.Amount(), currency)
		}
		balance, _ = balance.Add(amount)

		rows = append(rows, StatementRow{
			Date:        start.AddDate(0, 0, i),
			Description: g.Description(expense),
			Amount:      amount,
			Balance:     balance,
		})
	}
	return rows
}

// FormatSpaced renders an amount the way many statements print it: a space
// as thousands separator, a comma decimal and a trailing minus for money
// out, e.g. "1 200,00" or "100,00-".
func FormatSpaced(m *Money) string {
	digits := m.Abs().ToDecimal().StringFixed(2)
	whole, frac, _ := strings.Cut(digits, ".")
	s := groupThousands(whole, " ") + "," + frac
	if m.IsNegative() {
		s += "-"
	}
	return s
}

// FormatGrouped renders an amount with comma thousands separators, a period
// decimal and parentheses for money out, e.g. "1,200.00" or "(100.00)".
func FormatGrouped(m *Money) string {
	digits := m.Abs().ToDecimal().StringFixed(2)
	whole, frac, _ := strings.Cut(digits, ".")
	s := groupThousands(whole, ",") + "." + frac
	if m.IsNegative() {
		s = "(" + s + ")"
	}
	return s
}

func groupThousands(whole, sep string) string {
	if len(whole) <= 3 {
		return whole
	}
	var b strings.Builder
	lead := len(whole) % 3
	if lead > 0 {
		b.WriteString(whole[:lead])
	}
	for i := lead; i < len(whole); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(whole[i : i+3])
	}
	return b.String()
}
