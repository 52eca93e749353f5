package service

import (
	"sort"
	"time"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
	"github.com/FACorreiaa/statement-converter/internal/domain/extract/normalizer"
)

// Merge combines visual and text candidates. Only rows with a debit or
// credit survive. Visual rows come first and a row whose signature was
// already accepted is dropped, so visual rows win ties. The result is
// ordered by date; rows without a readable DD/MM/YYYY date keep their
// relative order after all dated rows.
func Merge(visual, text []model.Candidate) []model.Candidate {
	merged := make([]model.Candidate, 0, len(visual)+len(text))
	seen := make(map[string]struct{}, len(visual)+len(text))

	for _, list := range [][]model.Candidate{visual, text} {
		for _, c := range list {
			if !c.HasAmount() {
				continue
			}
			sig := c.Signature()
			if _, dup := seen[sig]; dup {
				continue
			}
			seen[sig] = struct{}{}
			merged = append(merged, c)
		}
	}

	sortByDate(merged)
	return merged
}

type datedCandidate struct {
	c     model.Candidate
	date  time.Time
	dated bool
}

func sortByDate(candidates []model.Candidate) {
	keyed := make([]datedCandidate, len(candidates))
	for i, c := range candidates {
		t, ok := normalizer.ParseCanonicalDate(c.Date)
		keyed[i] = datedCandidate{c: c, date: t, dated: ok}
	}

	sort.SliceStable(keyed, func(i, j int) bool {
		a, b := keyed[i], keyed[j]
		switch {
		case a.dated && b.dated:
			return a.date.Before(b.date)
		case a.dated != b.dated:
			return a.dated
		default:
			return false
		}
	})

	for i := range keyed {
		candidates[i] = keyed[i].c
	}
}
