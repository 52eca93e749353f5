package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
)

func word(text string, x0, x1 float64) model.Word {
	return model.Word{Text: text, X0: x0, X1: x1, Top: 100}
}

func TestDetectColumns(t *testing.T) {
	t.Run("builds bands from headers", func(t *testing.T) {
		words := []model.Word{
			word("Date", 20, 45),
			word("Description", 80, 150),
			word("Debit", 350, 380),
			word("Credit", 400, 430),
			word("Balance", 460, 500),
		}

		columns := DetectColumns(words, 600)

		assert.True(t, columns.FromHeaders)
		assert.Equal(t, Gutter{X0: 20, X1: 45}, columns.Date)
		assert.Equal(t, Gutter{X0: 80, X1: 345}, columns.Desc)
		assert.Equal(t, Gutter{X0: 350, X1: 500}, columns.Amount)
	})

	t.Run("uses defaults without headers", func(t *testing.T) {
		words := []model.Word{word("Hello", 10, 40), word("World", 50, 90)}

		columns := DetectColumns(words, 600)

		assert.False(t, columns.FromHeaders)
		assert.Equal(t, DefaultColumns(), columns)
	})

	t.Run("clamps description to page ratio when nothing follows", func(t *testing.T) {
		words := []model.Word{word("Details", 80, 150)}

		columns := DetectColumns(words, 600)

		assert.Equal(t, Gutter{X0: 80, X1: 445}, columns.Desc)
		assert.Equal(t, Gutter{X0: 0, X1: 50}, columns.Date)
		assert.Equal(t, Gutter{X0: 310, X1: 1000}, columns.Amount)
	})

	t.Run("matching is case insensitive and by substring", func(t *testing.T) {
		words := []model.Word{
			word("TRANSACTION", 70, 160),
			word("AMOUNTS", 300, 340),
		}

		columns := DetectColumns(words, 600)

		assert.Equal(t, Gutter{X0: 300, X1: 340}, columns.Amount)
		assert.Equal(t, 295.0, columns.Desc.X1)
	})

	t.Run("description band does not overlap following bands", func(t *testing.T) {
		words := []model.Word{
			word("Date", 20, 45),
			word("Transaction", 60, 120),
			word("Details", 125, 200),
			word("Amount", 300, 340),
			word("Balance", 400, 440),
		}

		columns := DetectColumns(words, 600)

		assert.Less(t, columns.Desc.X1, columns.Amount.X0)
		assert.Less(t, columns.Date.X1, columns.Desc.X0)
	})
}

func TestGutter_Contains(t *testing.T) {
	g := Gutter{X0: 100, X1: 200}
	assert.True(t, g.Contains(96, 5))
	assert.True(t, g.Contains(205, 5))
	assert.False(t, g.Contains(94, 5))
	assert.False(t, g.Contains(206, 5))
}

func TestColumnMap_Gutter(t *testing.T) {
	columns := DefaultColumns()
	assert.Equal(t, columns.Date, columns.Gutter(RoleDate))
	assert.Equal(t, columns.Desc, columns.Gutter(RoleDesc))
	assert.Equal(t, columns.Amount, columns.Gutter(RoleAmount))
}
