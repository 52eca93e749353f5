package normalizer

import (
	"strings"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
)

// MaxDescriptionLen is the longest description a transaction row can have.
// Longer text is almost always legal boilerplate swept into a row.
const MaxDescriptionLen = 200

// DefaultNoiseKeywords are footer, header and regulatory phrases that never
// appear in a real transaction description.
func DefaultNoiseKeywords() []string {
	return []string{
		"total", "vat", "branch", "account", "statement", "opening", "closing",
		"page", "reg no", "fsp", "interest", "monthly service", "month-end",
		"details service", "debits fee", "brought forward", "carried forward",
		"please visit our website", "south africa limited", "registered bank",
		"directors:", "company secretary", "authorised financial services",
	}
}

// NoiseFilter drops boilerplate rows. Keywords are matched in a single pass
// over the lowercased description.
type NoiseFilter struct {
	matcher  *ahocorasick.Matcher
	keywords []string
}

// NewNoiseFilter builds a filter from a keyword list. Keywords are matched
// case-insensitively as substrings. An empty list disables keyword matching.
func NewNoiseFilter(keywords []string) *NoiseFilter {
	f := &NoiseFilter{}
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			f.keywords = append(f.keywords, kw)
		}
	}
	if len(f.keywords) > 0 {
		f.matcher = ahocorasick.NewStringMatcher(f.keywords)
	}
	return f
}

// Keep reports whether a candidate survives the filter.
func (f *NoiseFilter) Keep(c model.Candidate) bool {
	desc := strings.TrimSpace(c.Description)
	if desc == "" {
		return false
	}
	if utf8.RuneCountInString(desc) > MaxDescriptionLen {
		return false
	}

	lower := strings.ToLower(desc)
	if f.matcher != nil && len(f.matcher.MatchThreadSafe([]byte(lower))) > 0 {
		return false
	}
	if strings.Contains(lower, "balance") && !c.HasAmount() {
		return false
	}
	return true
}

// Filter returns the candidates that survive, in order.
func (f *NoiseFilter) Filter(candidates []model.Candidate) []model.Candidate {
	kept := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if f.Keep(c) {
			kept = append(kept, c)
		}
	}
	return kept
}

// Keywords returns the normalized keyword list.
func (f *NoiseFilter) Keywords() []string {
	out := make([]string, len(f.keywords))
	copy(out, f.keywords)
	return out
}
