package card

import (
	"strings"
	"unicode/utf8"
)

// querySuffix steers image search towards illustration rather than photos
const querySuffix = "fantasy game art"

var stopWords = map[string]bool{
	"the": true, "and": true, "are": true, "with": true, "have": true,
	"that": true, "this": true, "from": true, "your": true, "all": true,
}

// SearchQuery derives the image search query for a card. Identical cards
// always produce identical queries, so the query doubles as the cache key.
// It returns "" when the card carries no usable words.
func SearchQuery(c Card) string {
	var terms []string

	titleWords := 0
	for _, w := range words(c.Title) {
		if utf8.RuneCountInString(w) > 2 {
			terms = append(terms, w)
			titleWords++
			if titleWords == 2 {
				break
			}
		}
	}

	fields := []string{c.Body.Effect, c.Body.Target}
	if c.Body == (Body{}) {
		fields = []string{c.Description}
	}
	for _, f := range fields {
		if isNoneValue(f) {
			continue
		}
		for _, w := range words(f) {
			if utf8.RuneCountInString(w) > 3 && !stopWords[w] {
				terms = append(terms, w)
				break
			}
		}
	}

	if len(terms) > 3 {
		terms = terms[:3]
	}
	if len(terms) == 0 {
		return ""
	}
	return NormalizeQuery(strings.Join(terms, " ") + " " + querySuffix)
}

// NormalizeQuery lower-cases a query and collapses its whitespace
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

func words(s string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, `.,;:!?"'()[]«»`)
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
