package normalizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Applied in order, each match replaced by a single space.
var descriptionNoise = []*regexp.Regexp{
	regexp.MustCompile(`^\s*-\s*`),   // leading dash
	regexp.MustCompile(`\s*-\s*$`),   // trailing dash
	regexp.MustCompile(`^\s*\*\s*`), // leading asterisk
	regexp.MustCompile(`\s{2,}`),
}

// Words this short are kept even when repeated ("to", "of", "R").
const shortWordLen = 2

// CleanDescription collapses whitespace, strips stray dash and asterisk
// noise, drops words already seen earlier in the description (ignoring
// case) and capitalizes the first letter of every word.
func CleanDescription(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return ""
	}

	for _, re := range descriptionNoise {
		s = re.ReplaceAllString(s, " ")
	}

	words := strings.Fields(s)
	seen := make(map[string]struct{}, len(words))
	cleaned := make([]string, 0, len(words))
	for _, word := range words {
		lower := strings.ToLower(word)
		if _, dup := seen[lower]; dup && utf8.RuneCountInString(lower) > shortWordLen {
			continue
		}
		seen[lower] = struct{}{}
		cleaned = append(cleaned, capitalize(word))
	}

	return strings.Join(cleaned, " ")
}

// capitalize upper-cases the first letter of a word and leaves the rest as is.
func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return word
	}
	return string(unicode.ToUpper(r)) + word[size:]
}

// CleanReference keeps only letters and digits, upper-cased.
func CleanReference(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
