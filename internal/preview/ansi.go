package preview

import (
	"fmt"
	"image"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
)

// Block renders img as rows of upper half blocks, two pixel rows per line,
// using 24-bit colour escapes. height is derived from the aspect ratio when 0.
func Block(img image.Image, width, height int) string {
	b := img.Bounds()
	if width <= 0 || b.Dx() == 0 || b.Dy() == 0 {
		return ""
	}
	if height <= 0 {
		// Terminal cells are roughly twice as tall as wide; one cell holds two rows
		height = max(1, width*b.Dy()/b.Dx()/2)
	}

	resized := resize.Resize(uint(width*2), uint(height*2), img, resize.Lanczos3)

	var sb strings.Builder
	for y := 0; y < height*2; y += 2 {
		for x := 0; x < width*2; x += 2 {
			top := average(pixel(resized, x, y), pixel(resized, x+1, y))
			bottom := average(pixel(resized, x, y+1), pixel(resized, x+1, y+1))
			sb.WriteString(cell('▀', top, bottom))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func pixel(img image.Image, x, y int) colorful.Color {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		return colorful.Color{}
	}
	c, ok := colorful.MakeColor(img.At(b.Min.X+x, b.Min.Y+y))
	if !ok {
		// fully transparent
		return colorful.Color{}
	}
	return c
}

func average(colors ...colorful.Color) colorful.Color {
	var r, g, b float64
	for _, c := range colors {
		r += c.R
		g += c.G
		b += c.B
	}
	n := float64(len(colors))
	return colorful.Color{R: r / n, G: g / n, B: b / n}
}

func cell(ch rune, fg, bg colorful.Color) string {
	r1, g1, b1 := fg.Clamped().RGB255()
	r2, g2, b2 := bg.Clamped().RGB255()
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%c\x1b[0m",
		r1, g1, b1, r2, g2, b2, ch)
}

// StripANSI removes SGR escape sequences
func StripANSI(s string) string {
	var sb strings.Builder
	inEscape := false
	for _, c := range s {
		switch {
		case inEscape:
			if c == 'm' {
				inEscape = false
			}
		case c == '\x1b':
			inEscape = true
		default:
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// VisibleWidth is the number of runes left after StripANSI
func VisibleWidth(s string) int {
	return len([]rune(StripANSI(s)))
}

// WrapText wraps text on word boundaries to width columns. Widths under 10
// fall back to 40.
func WrapText(text string, width int) []string {
	if width < 10 {
		width = 40
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var line string
	for _, word := range words {
		switch {
		case line == "":
			line = word
		case len([]rune(line))+1+len([]rune(word)) <= width:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// SideBySide prints art on the left and info on the right, padding each art
// line to the widest one plus gap columns.
func SideBySide(art string, info []string, gap int) string {
	var artLines []string
	if art != "" {
		artLines = strings.Split(strings.TrimRight(art, "\n"), "\n")
	}

	artWidth := 0
	for _, l := range artLines {
		artWidth = max(artWidth, VisibleWidth(l))
	}
	col := artWidth
	if artWidth > 0 {
		col += gap
	}

	var sb strings.Builder
	for i := 0; i < max(len(artLines), len(info)); i++ {
		sb.WriteString("  ")
		if i < len(artLines) {
			sb.WriteString(artLines[i])
			sb.WriteString(strings.Repeat(" ", col-VisibleWidth(artLines[i])))
		} else {
			sb.WriteString(strings.Repeat(" ", col))
		}
		if i < len(info) {
			sb.WriteString(info[i])
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
