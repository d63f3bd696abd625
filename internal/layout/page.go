package layout

import (
	"fmt"
	"math"
	"strings"
)

// PageSize is a paper size in millimetres
type PageSize struct {
	Name   string
	Width  float64
	Height float64
}

var (
	Letter = PageSize{Name: "Letter", Width: 215.9, Height: 279.4}
	A4     = PageSize{Name: "A4", Width: 210, Height: 297}
)

// ParsePageSize accepts "Letter" or "A4" in any case
func ParsePageSize(s string) (PageSize, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "letter":
		return Letter, nil
	case "a4":
		return A4, nil
	}
	return PageSize{}, fmt.Errorf("unknown page size %q (want Letter or A4)", s)
}

// Grid places fixed-size cards on a page. Cards touch each other and the
// block of cards is centred on the page.
type Grid struct {
	Cols    int
	Rows    int
	CardW   float64
	CardH   float64
	OffsetX float64
	OffsetY float64
}

// NewGrid fits as many cardW x cardH cards as the page holds
func NewGrid(page PageSize, cardW, cardH float64) (Grid, error) {
	if cardW <= 0 || cardH <= 0 {
		return Grid{}, fmt.Errorf("card size must be positive, got %.1fx%.1fmm", cardW, cardH)
	}
	cols := int(math.Floor(page.Width / cardW))
	rows := int(math.Floor(page.Height / cardH))
	if cols < 1 || rows < 1 {
		return Grid{}, fmt.Errorf("a %.1fx%.1fmm card does not fit on %s paper", cardW, cardH, page.Name)
	}
	return Grid{
		Cols:    cols,
		Rows:    rows,
		CardW:   cardW,
		CardH:   cardH,
		OffsetX: (page.Width - float64(cols)*cardW) / 2,
		OffsetY: (page.Height - float64(rows)*cardH) / 2,
	}, nil
}

// Capacity is the number of cards per page
func (g Grid) Capacity() int {
	return g.Cols * g.Rows
}

// Slot returns where the i-th card goes. Pages, rows and columns are zero
// based and filled row-major.
func (g Grid) Slot(i int) (page, row, col int, x, y float64) {
	c := g.Capacity()
	page = i / c
	pos := i % c
	row = pos / g.Cols
	col = pos % g.Cols
	x = g.OffsetX + float64(col)*g.CardW
	y = g.OffsetY + float64(row)*g.CardH
	return page, row, col, x, y
}

// Pages returns how many pages n cards need
func (g Grid) Pages(n int) int {
	if n <= 0 {
		return 0
	}
	c := g.Capacity()
	return (n + c - 1) / c
}
