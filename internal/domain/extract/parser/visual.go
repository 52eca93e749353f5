package parser

import (
	"math"
	"sort"
	"strings"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
	"github.com/FACorreiaa/statement-converter/internal/domain/extract/sniffer"
)

const (
	// lineTolerance is the maximum vertical distance between words of one line.
	lineTolerance = 3.0
	// gutterTolerance widens every gutter when assigning words to columns.
	gutterTolerance = 5.0

	// Words outside every gutter but inside this horizontal range of the
	// page are read as description text.
	looseDescMin = 0.1
	looseDescMax = 0.7

	minContinuationLen = 3
)

var continuationStopWords = []string{"page", "account"}

// ParseVisual reads candidates from word geometry. Words are grouped into
// lines by vertical position and assigned to columns through the gutters.
// A line with amount words starts a new candidate; a line with only
// description words extends the previous candidate. The last date and the
// candidate list carry across pages.
func ParseVisual(pages []model.Page, columns sniffer.ColumnMap, year int) []model.Candidate {
	var (
		candidates []model.Candidate
		lastDate   string
	)

	for _, page := range pages {
		for _, line := range groupLines(page.Words) {
			row := assignColumns(line, columns, page.Width)

			date, found := ResolveDate(strings.TrimSpace(strings.Join(row.date, " ")), year)
			if found {
				lastDate = date
			}

			if len(row.amounts) > 0 {
				debit, credit, balance := ClassifyAmounts(row.amounts)

				desc := strings.TrimSpace(strings.Join(row.desc, " "))
				if desc == "" {
					desc = wordsExcluding(line, row.amounts)
				}

				if !found {
					date = lastDate
				}
				candidates = append(candidates, model.Candidate{
					Date:        date,
					Description: desc,
					Debit:       debit,
					Credit:      credit,
					Balance:     balance,
				})
				continue
			}

			if len(candidates) == 0 || len(row.desc) == 0 {
				continue
			}
			content := strings.TrimSpace(strings.Join(row.desc, " "))
			if isContinuation(content) {
				prev := &candidates[len(candidates)-1]
				prev.Description += " " + content
			}
		}
	}

	return candidates
}

type row struct {
	date    []string
	desc    []string
	amounts []string
}

// groupLines clusters words into lines ordered top to bottom. Each line is
// sorted left to right.
func groupLines(words []model.Word) [][]model.Word {
	if len(words) == 0 {
		return nil
	}

	sorted := make([]model.Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Top < sorted[j].Top })

	var lines [][]model.Word
	current := []model.Word{sorted[0]}
	for _, w := range sorted[1:] {
		if math.Abs(w.Top-current[len(current)-1].Top) <= lineTolerance {
			current = append(current, w)
			continue
		}
		lines = append(lines, current)
		current = []model.Word{w}
	}
	lines = append(lines, current)

	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].X0 < line[j].X0 })
	}
	return lines
}

func assignColumns(line []model.Word, columns sniffer.ColumnMap, pageWidth float64) row {
	var r row
	for _, w := range line {
		assigned := false
		for _, role := range sniffer.Roles {
			if !columns.Gutter(role).Contains(w.X0, gutterTolerance) {
				continue
			}
			switch role {
			case sniffer.RoleDate:
				r.date = append(r.date, w.Text)
			case sniffer.RoleDesc:
				r.desc = append(r.desc, w.Text)
			case sniffer.RoleAmount:
				r.amounts = append(r.amounts, w.Text)
			}
			assigned = true
			break
		}
		if !assigned && looseDescMin*pageWidth < w.X0 && w.X0 < looseDescMax*pageWidth {
			r.desc = append(r.desc, w.Text)
		}
	}
	return r
}

func wordsExcluding(line []model.Word, exclude []string) string {
	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		skip[e] = struct{}{}
	}
	parts := make([]string, 0, len(line))
	for _, w := range line {
		if _, ok := skip[w.Text]; ok {
			continue
		}
		parts = append(parts, w.Text)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func isContinuation(content string) bool {
	if len([]rune(content)) < minContinuationLen {
		return false
	}
	lower := strings.ToLower(content)
	for _, kw := range continuationStopWords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}
