// Package sniffer detects the column layout of a statement page.
// It locates header words and turns them into horizontal bands ("gutters")
// that the visual parser uses to assign words to the date, description and
// amount columns.
package sniffer

import (
	"math"
	"strings"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
)

// Role identifies a column.
type Role string

const (
	RoleDate   Role = "date"
	RoleDesc   Role = "desc"
	RoleAmount Role = "amt"
)

// Roles lists the column roles in matching priority order.
var Roles = []Role{RoleDate, RoleDesc, RoleAmount}

// Header keywords per role, matched as substrings of lowercased words.
var headerKeywords = map[Role][]string{
	RoleDate:   {"date"},
	RoleDesc:   {"details", "description", "transaction"},
	RoleAmount: {"debit", "amount", "payment", "balance"},
}

const (
	// descMargin is kept between the description band and the next header.
	descMargin = 5.0
	// descMaxRatio bounds the description band when no header follows it.
	descMaxRatio = 0.75
)

// Gutter is a horizontal band of x coordinates.
type Gutter struct {
	X0 float64
	X1 float64
}

// Contains reports whether x falls inside the band widened by tolerance.
func (g Gutter) Contains(x, tolerance float64) bool {
	return g.X0-tolerance <= x && x <= g.X1+tolerance
}

// ColumnMap holds one gutter per role. It is built once per document and
// never modified afterwards.
type ColumnMap struct {
	Date   Gutter
	Desc   Gutter
	Amount Gutter
	// FromHeaders is false when no header word was found and defaults apply.
	FromHeaders bool
}

// Gutter returns the band for a role.
func (m ColumnMap) Gutter(role Role) Gutter {
	switch role {
	case RoleDate:
		return m.Date
	case RoleDesc:
		return m.Desc
	default:
		return m.Amount
	}
}

func (m *ColumnMap) set(role Role, g Gutter) {
	switch role {
	case RoleDate:
		m.Date = g
	case RoleDesc:
		m.Desc = g
	default:
		m.Amount = g
	}
}

// DefaultColumns returns the layout used when a page has no recognizable headers.
func DefaultColumns() ColumnMap {
	return ColumnMap{
		Date:   Gutter{X0: 0, X1: 50},
		Desc:   Gutter{X0: 60, X1: 300},
		Amount: Gutter{X0: 310, X1: 1000},
	}
}

type headerHit struct {
	role Role
	x0   float64
	x1   float64
}

// DetectColumns builds the column map from the words of the first page.
func DetectColumns(words []model.Word, pageWidth float64) ColumnMap {
	columns := DefaultColumns()

	var hits []headerHit
	for _, w := range words {
		text := strings.ToLower(w.Text)
		for _, role := range Roles {
			if containsAny(text, headerKeywords[role]) {
				hits = append(hits, headerHit{role: role, x0: w.X0, x1: w.X1})
			}
		}
	}
	if len(hits) == 0 {
		return columns
	}
	columns.FromHeaders = true

	for _, role := range Roles {
		band := Gutter{X0: math.Inf(1), X1: math.Inf(-1)}
		matched := false
		for _, h := range hits {
			if h.role != role {
				continue
			}
			matched = true
			band.X0 = math.Min(band.X0, h.x0)
			band.X1 = math.Max(band.X1, h.x1)
		}
		if matched {
			columns.set(role, band)
		}
	}

	// Clamp the description band to the nearest header on its right.
	limit := pageWidth * descMaxRatio
	nearest := math.Inf(1)
	for _, h := range hits {
		if h.x0 > columns.Desc.X1 && h.x0 < nearest {
			nearest = h.x0
		}
	}
	if !math.IsInf(nearest, 1) {
		limit = nearest
	}
	columns.Desc.X1 = limit - descMargin

	return columns
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
