package layout

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/arcanaland/cardforge/internal/card"
)

const ptToMM = 25.4 / 72

// Font sizes in points
const (
	BodySize     = 9.0
	BodyFloor    = 6.0
	SizeStep     = 0.5
	TitleSize    = 14.0
	TitleFloor   = 8.0
	SubtitleSize = 10.0
	FooterSize   = 8.0
	BadgeSize    = 7.0
)

// Text fraction below which a card gets an image
const ImageThreshold = 0.5

// Measurer returns the width in mm of s set in the given fpdf style
// ("", "B" or "I") at size points.
type Measurer func(s, style string, size float64) float64

func lineHeight(size float64) float64 {
	return size * 1.2 * ptToMM
}

func sectionGap(size float64) float64 {
	return lineHeight(size) * 0.35
}

// Rect is an area in mm relative to the card's top-left corner
type Rect struct {
	X, Y, W, H float64
}

// Geometry describes the fixed regions of one card
type Geometry struct {
	Width     float64
	Height    float64
	Padding   float64
	HeaderH   float64
	SubtitleH float64 // Zero when the card has no subtitle
	FooterH   float64 // Zero when the card has no footer
}

// NewGeometry computes the regions for c on a w x h card
func NewGeometry(c card.Card, w, h float64) Geometry {
	g := Geometry{
		Width:   w,
		Height:  h,
		Padding: 3,
		HeaderH: math.Max(8, h*0.22),
	}
	if strings.TrimSpace(c.Subtitle) != "" {
		g.SubtitleH = SubtitleSize * ptToMM * 1.5
	}
	if strings.TrimSpace(c.Footer) != "" {
		g.FooterH = FooterSize * ptToMM * 1.6
	}
	return g
}

// Body is the area available to body text and the image
func (g Geometry) Body() Rect {
	top := g.HeaderH + g.SubtitleH + g.Padding*0.7
	bottom := g.Height - g.FooterH - g.Padding
	return Rect{
		X: g.Padding,
		Y: top,
		W: g.Width - 2*g.Padding,
		H: math.Max(0, bottom-top),
	}
}

// EstimateTextArea approximates the area in mm² that sections occupy when
// set at size points in a column width mm wide. Glyphs are assumed to be
// half an em wide on average.
func EstimateTextArea(sections []card.Section, size, width float64) float64 {
	if len(sections) == 0 || width <= 0 {
		return 0
	}
	glyph := 0.5 * size * ptToMM
	perLine := math.Max(1, math.Floor(width/glyph))

	lines := 0.0
	for _, s := range sections {
		text := s.Text
		if s.Label != "" {
			text = s.Label + ": " + text
		}
		for _, para := range strings.Split(text, "\n") {
			n := float64(utf8.RuneCountInString(strings.TrimSpace(para)))
			lines += math.Max(1, math.Ceil(n/perLine))
		}
	}
	height := lines*lineHeight(size) + float64(len(sections)-1)*sectionGap(size)
	return height * width
}

// TextFraction is the share of the body area the card's text is expected
// to fill at the default body size. Cards without body text return 0.
func TextFraction(c card.Card, g Geometry) float64 {
	sections := c.Sections()
	if len(sections) == 0 {
		return 0
	}
	body := g.Body()
	if body.W <= 0 || body.H <= 0 {
		return 1
	}
	return EstimateTextArea(sections, BodySize, body.W) / (body.W * body.H)
}

// Wrap breaks text into lines no wider than width. Explicit newlines start
// a new line and words wider than a line are split.
func Wrap(text string, width float64, measure func(string) float64) []string {
	return wrapIndent(text, width, width, measure)
}

// wrapIndent wraps with a narrower first line, leaving room for a label
func wrapIndent(text string, first, width float64, measure func(string) float64) []string {
	var lines []string
	limit := first
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			limit = width
			continue
		}

		line := ""
		for _, w := range words {
			candidate := w
			if line != "" {
				candidate = line + " " + w
			}
			if measure(candidate) <= limit {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
				limit = width
				line = ""
			}
			for measure(w) > limit {
				cut := breakPoint(w, limit, measure)
				if cut >= len(w) {
					break
				}
				lines = append(lines, w[:cut])
				limit = width
				w = w[cut:]
			}
			line = w
		}
		lines = append(lines, line)
		limit = width
	}
	return lines
}

// breakPoint returns the byte length of the longest prefix of w that fits,
// never less than one rune.
func breakPoint(w string, limit float64, measure func(string) float64) int {
	cut := 0
	for i := range w {
		if i == 0 {
			continue
		}
		if measure(w[:i]) > limit {
			break
		}
		cut = i
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(w)
		cut = size
	}
	return cut
}

// TextLine is one line of laid out body text
type TextLine struct {
	Label string // Bold prefix, set on the first line of a labelled section
	Text  string
	Y     float64 // Top of the line relative to the block
}

// TextBlock is body text laid out at a single font size
type TextBlock struct {
	Size    float64
	Lines   []TextLine
	Height  float64
	Clipped bool // Lines were dropped because the text did not fit at the floor size
}

// LineHeight returns the line pitch of the block in mm
func (b TextBlock) LineHeight() float64 {
	return lineHeight(b.Size)
}

func layoutText(sections []card.Section, width, size float64, measure Measurer) TextBlock {
	block := TextBlock{Size: size}
	lh := lineHeight(size)
	regular := func(s string) float64 { return measure(s, "", size) }

	y := 0.0
	for i, s := range sections {
		if i > 0 {
			y += sectionGap(size)
		}
		label := ""
		first := width
		if s.Label != "" {
			label = s.Label + ":"
			first = width - measure(label+" ", "B", size)
		}
		for j, l := range wrapIndent(s.Text, first, width, regular) {
			line := TextLine{Text: l, Y: y}
			if j == 0 {
				line.Label = label
			}
			block.Lines = append(block.Lines, line)
			y += lh
		}
	}
	block.Height = y
	return block
}

// Fit lays out sections in a width x height box, shrinking from BodySize in
// SizeStep steps. At BodyFloor, lines that fall below the box are dropped.
func Fit(sections []card.Section, width, height float64, measure Measurer) TextBlock {
	for size := BodySize; size >= BodyFloor; size -= SizeStep {
		block := layoutText(sections, width, size, measure)
		if block.Height <= height {
			return block
		}
	}

	block := layoutText(sections, width, BodyFloor, measure)
	lh := lineHeight(BodyFloor)
	kept := block.Lines[:0]
	for _, l := range block.Lines {
		if l.Y+lh > height {
			block.Clipped = true
			break
		}
		kept = append(kept, l)
	}
	block.Lines = kept
	block.Height = 0
	if len(kept) > 0 {
		block.Height = kept[len(kept)-1].Y + lh
	}
	return block
}

// FitTitle shrinks title from TitleSize down to TitleFloor until it fits
// width, then truncates it.
func FitTitle(title string, width float64, measure Measurer) (string, float64) {
	for size := TitleSize; size >= TitleFloor; size -= SizeStep {
		if measure(title, "B", size) <= width {
			return title, size
		}
	}
	return Truncate(title, width, func(s string) float64 {
		return measure(s, "B", TitleFloor)
	}), TitleFloor
}

// Truncate shortens s with a trailing "..." until it fits width
func Truncate(s string, width float64, measure func(string) float64) string {
	if measure(s) <= width {
		return s
	}
	runes := []rune(s)
	for n := len(runes) - 1; n > 0; n-- {
		candidate := strings.TrimRight(string(runes[:n]), " ") + "..."
		if measure(candidate) <= width {
			return candidate
		}
	}
	return "..."
}
