package validator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/arcanaland/cardforge/internal/card"
	"github.com/arcanaland/cardforge/internal/imagesearch"
	"github.com/arcanaland/cardforge/internal/layout"
)

type ValidationResults struct {
	Errors   []string
	Warnings []string
}

// Options describe how the file will be rendered
type Options struct {
	CardWidth  float64 // mm
	CardHeight float64 // mm
	Images     bool    // Image lookup is enabled
	CoreFonts  bool    // No TrueType fonts configured; text must be cp1252
}

func DefaultOptions() Options {
	return Options{CardWidth: 120, CardHeight: 65, Images: true, CoreFonts: true}
}

type Validator struct {
	Path    string
	Options Options
	Results ValidationResults
}

func NewValidator(path string, opts Options) *Validator {
	return &Validator{
		Path:    path,
		Options: opts,
		Results: ValidationResults{},
	}
}

// Validate parses the card file and checks it. The returned error is set
// only when the file cannot be read; problems with its content are
// reported in the results.
func (v *Validator) Validate() (ValidationResults, error) {
	data, err := os.ReadFile(v.Path)
	if err != nil {
		return v.Results, fmt.Errorf("error reading card file: %w", err)
	}

	cards, err := card.Parse(data, card.FormatFromPath(v.Path))
	if err != nil {
		problems := card.Problems(err)
		if len(problems) == 0 {
			return v.Results, err
		}
		for _, p := range problems {
			v.Results.Errors = append(v.Results.Errors, p.Error())
		}
		return v.Results, nil
	}

	v.validateDuplicateTitles(cards)
	for i, c := range cards {
		v.validateOverflow(i, c)
		v.validateImage(i, c)
		v.validateFaction(i, c)
		if v.Options.CoreFonts {
			v.validateEncoding(i, c)
		}
	}

	return v.Results, nil
}

func (v *Validator) warn(i int, format string, args ...any) {
	v.Results.Warnings = append(v.Results.Warnings,
		fmt.Sprintf("card %d: %s", i+1, fmt.Sprintf(format, args...)))
}

// validateDuplicateTitles warns when two cards share a title
func (v *Validator) validateDuplicateTitles(cards []card.Card) {
	seen := make(map[string]int)
	for i, c := range cards {
		key := strings.ToLower(strings.TrimSpace(c.Title))
		if first, ok := seen[key]; ok {
			v.warn(i, "title %q duplicates card %d", c.Title, first+1)
			continue
		}
		seen[key] = i
	}
}

// validateOverflow warns when body text will not fit even at the smallest size
func (v *Validator) validateOverflow(i int, c card.Card) {
	sections := c.Sections()
	if len(sections) == 0 {
		return
	}
	body := layout.NewGeometry(c, v.Options.CardWidth, v.Options.CardHeight).Body()
	if body.W <= 0 || body.H <= 0 {
		v.warn(i, "card is too small for body text (%.0fx%.0fmm)", v.Options.CardWidth, v.Options.CardHeight)
		return
	}
	need := layout.EstimateTextArea(sections, layout.BodyFloor, body.W)
	if need > body.W*body.H {
		v.warn(i, "text is too long and will be cut off (needs about %.0f%% of the space)",
			100*need/(body.W*body.H))
	}
}

// validateImage checks explicit image references and that a search query exists
func (v *Validator) validateImage(i int, c card.Card) {
	if c.Image != "" {
		if imagesearch.IsURL(c.Image) {
			return
		}
		path := imagesearch.ResolveReference(c.Image, filepath.Dir(v.Path))
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			v.warn(i, "image not found: %s", c.Image)
		}
		return
	}

	if !v.Options.Images {
		return
	}
	geom := layout.NewGeometry(c, v.Options.CardWidth, v.Options.CardHeight)
	if layout.TextFraction(c, geom) < layout.ImageThreshold && imagesearch.Key(c) == "" {
		v.warn(i, "no image search query can be built from the title or text")
	}
}

func (v *Validator) validateFaction(i int, c card.Card) {
	if strings.TrimSpace(c.Faction) == "" {
		return
	}
	if b, ok := card.FactionBadge(c.Faction, card.ThemeFor(c)); !ok {
		v.warn(i, "faction %q has no badge, using %q", c.Faction, b.Text)
	}
}

// validateEncoding warns about characters the PDF core fonts cannot draw
func (v *Validator) validateEncoding(i int, c card.Card) {
	fields := []struct{ name, text string }{
		{"title", c.Title},
		{"subtitle", c.Subtitle},
		{"description", c.Description},
		{"footer", c.Footer},
		{"body.when", c.Body.When},
		{"body.target", c.Body.Target},
		{"body.effect", c.Body.Effect},
		{"body.restriction", c.Body.Restriction},
	}
	for _, f := range fields {
		if r, ok := firstUnencodable(f.text); ok {
			v.warn(i, "%s contains %q which needs a TrueType font (set fonts.regular in the config)", f.name, r)
			return
		}
	}
}

func firstUnencodable(s string) (rune, bool) {
	for _, r := range s {
		if r == '\n' || r == '\t' {
			continue
		}
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			return r, true
		}
	}
	return 0, false
}
