package card

import "strings"

// Card represents a single printable card
type Card struct {
	ID          string // Optional stable identifier from the input file
	Title       string // Required, drawn in the header bar
	Subtitle    string
	Description string // Free text, may contain newlines
	Footer      string
	Body        Body   // Structured rules text
	Faction     string // Drives the header badge
	Cost        Cost
	Color       string // Explicit theme colour (#rgb or #rrggbb)
	Image       string // Explicit image reference (path or URL)
	Language    string
	Type        string
}

// Body holds the structured rules sections of a card
type Body struct {
	When        string `json:"when" yaml:"when"`
	Target      string `json:"target" yaml:"target"`
	Effect      string `json:"effect" yaml:"effect"`
	Restriction string `json:"restriction" yaml:"restriction"`
}

// Cost is the command point cost of a card. Set is false when the input
// carried no cost at all, which is different from a free card.
type Cost struct {
	CP  int
	Set bool
}

// Section is one labelled block of body text
type Section struct {
	Label string // Empty for free description text
	Text  string
}

// Sections returns the non-empty text blocks of the card in drawing order:
// WHEN, TARGET, EFFECT, RESTRICTION, then the description.
func (c Card) Sections() []Section {
	var out []Section
	for _, s := range []Section{
		{Label: "WHEN", Text: c.Body.When},
		{Label: "TARGET", Text: c.Body.Target},
		{Label: "EFFECT", Text: c.Body.Effect},
		{Label: "RESTRICTION", Text: c.Body.Restriction},
		{Text: c.Description},
	} {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" || isNoneValue(s.Text) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// HasText reports whether the card carries any body text below the header
func (c Card) HasText() bool {
	return len(c.Sections()) > 0 || strings.TrimSpace(c.Subtitle) != ""
}

// isNoneValue matches the literal placeholder some exporters write for
// empty sections.
func isNoneValue(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "none")
}
