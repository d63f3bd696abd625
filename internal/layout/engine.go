package layout

import (
	"bytes"
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/arcanaland/cardforge/internal/card"
	"github.com/arcanaland/cardforge/internal/imagesearch"
)

const (
	cornerRadius = 3.0
	pxPerMM      = 6.0
	minImageH    = 6.0 // Image boxes shorter than this (mm) are skipped
)

var borderColor = card.MustHex("#333333")

// Fonts optionally replaces the PDF core fonts with TrueType files. Bold and
// Italic fall back to Regular.
type Fonts struct {
	Regular string
	Bold    string
	Italic  string
}

// Options controls rendering
type Options struct {
	PageSize     PageSize
	CardWidth    float64 // mm
	CardHeight   float64 // mm
	Gradient     bool    // Fetch and blend card images
	Compress     bool    // Deflate page streams
	Fonts        Fonts
	CreationDate time.Time // Fixed document date; zero uses the current time
	Title        string
	BaseDir      string // Directory relative image references resolve against
}

// DefaultOptions returns Letter paper with 120x65mm cards
func DefaultOptions() Options {
	return Options{
		PageSize:   Letter,
		CardWidth:  120,
		CardHeight: 65,
		Gradient:   true,
		Compress:   true,
	}
}

// ImageResolver finds artwork for a card
type ImageResolver interface {
	Resolve(ctx context.Context, c card.Card, baseDir string) (*imagesearch.Image, error)
}

// Engine lays cards out on pages and draws them
type Engine struct {
	opts     Options
	grid     Grid
	resolver ImageResolver
	logger   *slog.Logger
}

// NewEngine validates the card size against the page. A nil resolver
// renders text-only cards.
func NewEngine(opts Options, resolver ImageResolver, logger *slog.Logger) (*Engine, error) {
	grid, err := NewGrid(opts.PageSize, opts.CardWidth, opts.CardHeight)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{opts: opts, grid: grid, resolver: resolver, logger: logger}, nil
}

// Grid returns the page grid the engine places cards on
func (e *Engine) Grid() Grid {
	return e.grid
}

// Render draws cards in input order, filling each page row by row before
// starting the next.
func (e *Engine) Render(ctx context.Context, cards []card.Card) (*Document, error) {
	r, err := e.newRenderer()
	if err != nil {
		return nil, err
	}
	doc := &Document{pdf: r.pdf}

	for i, c := range cards {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, row, col, x, y := e.grid.Slot(i)
		if row == 0 && col == 0 {
			r.pdf.AddPage()
		}

		p := Placement{Index: i, Page: page, Row: row, Col: col, X: x, Y: y}
		if err := r.drawCard(ctx, &p, c); err != nil {
			return nil, err
		}
		if r.pdf.Err() {
			return nil, fmt.Errorf("card %d: %w", i+1, r.pdf.Error())
		}

		e.logger.Debug("card placed",
			"card", i+1,
			"page", page+1,
			"row", row,
			"col", col,
			"font_size", p.FontSize,
			"image", p.ImageSource,
		)
		doc.placements = append(doc.placements, p)
	}

	doc.pages = r.pdf.PageCount()
	return doc, nil
}

type renderer struct {
	pdf      *fpdf.Fpdf
	family   string
	tr       func(string) string
	opts     Options
	resolver ImageResolver
	logger   *slog.Logger
	images   map[string]bool // Registered image names
}

func (e *Engine) newRenderer() (*renderer, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: e.opts.PageSize.Width, Ht: e.opts.PageSize.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCompression(e.opts.Compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreator("cardforge", false)
	if e.opts.Title != "" {
		pdf.SetTitle(e.opts.Title, true)
	}
	if !e.opts.CreationDate.IsZero() {
		pdf.SetCreationDate(e.opts.CreationDate)
		pdf.SetModificationDate(e.opts.CreationDate)
	}

	r := &renderer{
		pdf:      pdf,
		opts:     e.opts,
		resolver: e.resolver,
		logger:   e.logger,
		images:   make(map[string]bool),
	}

	if f := e.opts.Fonts; f.Regular != "" {
		bold, italic := f.Bold, f.Italic
		if bold == "" {
			bold = f.Regular
		}
		if italic == "" {
			italic = f.Regular
		}
		pdf.AddUTF8Font("body", "", f.Regular)
		pdf.AddUTF8Font("body", "B", bold)
		pdf.AddUTF8Font("body", "I", italic)
		if pdf.Err() {
			return nil, fmt.Errorf("failed to load fonts: %w", pdf.Error())
		}
		r.family = "body"
		r.tr = func(s string) string { return s }
	} else {
		// Core fonts are cp1252 encoded
		r.family = "Helvetica"
		r.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	return r, nil
}

func (r *renderer) measure(s, style string, size float64) float64 {
	r.pdf.SetFont(r.family, style, size)
	return r.pdf.GetStringWidth(r.tr(s))
}

func (r *renderer) text(x, y float64, s, style string, size float64, c colorful.Color) {
	r.pdf.SetFont(r.family, style, size)
	r.setText(c)
	r.pdf.Text(x, y, r.tr(s))
}

func (r *renderer) setFill(c colorful.Color) {
	red, green, blue := c.Clamped().RGB255()
	r.pdf.SetFillColor(int(red), int(green), int(blue))
}

func (r *renderer) setDraw(c colorful.Color) {
	red, green, blue := c.Clamped().RGB255()
	r.pdf.SetDrawColor(int(red), int(green), int(blue))
}

func (r *renderer) setText(c colorful.Color) {
	red, green, blue := c.Clamped().RGB255()
	r.pdf.SetTextColor(int(red), int(green), int(blue))
}

func (r *renderer) drawCard(ctx context.Context, p *Placement, c card.Card) error {
	theme := card.ThemeFor(c)
	g := NewGeometry(c, r.opts.CardWidth, r.opts.CardHeight)
	x, y, w, h := p.X, p.Y, g.Width, g.Height

	r.setFill(theme.Background)
	r.pdf.RoundedRect(x, y, w, h, cornerRadius, "1234", "F")
	r.setFill(theme.Header)
	r.pdf.RoundedRect(x, y, w, g.HeaderH, cornerRadius, "12", "F")

	left := r.drawFactionBadge(c, theme, x+g.Padding, y, g.HeaderH)
	right := r.drawCostBadge(c, theme, x+w-g.Padding, y, g.HeaderH)
	reserve := math.Max(left, right)

	title, size := FitTitle(strings.TrimSpace(c.Title), w-2*g.Padding-2*reserve, r.measure)
	tw := r.measure(title, "B", size)
	r.text(x+(w-tw)/2, y+g.HeaderH/2+size*ptToMM*0.35, title, "B", size, theme.OnHeader)

	if g.SubtitleH > 0 {
		sub := Truncate(strings.TrimSpace(c.Subtitle), w-2*g.Padding, func(s string) float64 {
			return r.measure(s, "I", SubtitleSize)
		})
		sw := r.measure(sub, "I", SubtitleSize)
		r.text(x+(w-sw)/2, y+g.HeaderH+g.SubtitleH*0.72, sub, "I", SubtitleSize, theme.Subtitle)
	}

	body := g.Body()
	block := Fit(c.Sections(), body.W, body.H, r.measure)
	r.drawBlock(block, theme, x+body.X, y+body.Y)
	p.FontSize = block.Size
	p.Clipped = block.Clipped

	if r.opts.Gradient && r.resolver != nil && TextFraction(c, g) < ImageThreshold {
		top := block.Height
		if top > 0 {
			top += 1
		}
		box := Rect{X: x + body.X, Y: y + body.Y + top, W: body.W, H: body.H - top}
		if box.H >= minImageH {
			if err := r.drawImage(ctx, p, c, theme, box); err != nil {
				return err
			}
		}
	}

	if g.FooterH > 0 {
		footer := Truncate(strings.TrimSpace(c.Footer), w-2*g.Padding, func(s string) float64 {
			return r.measure(s, "", FooterSize)
		})
		fw := r.measure(footer, "", FooterSize)
		r.text(x+(w-fw)/2, y+h-g.Padding-g.FooterH*0.25, footer, "", FooterSize, theme.Subtitle)
	}

	r.setDraw(borderColor)
	r.pdf.SetLineWidth(0.4)
	r.pdf.RoundedRect(x, y, w, h, cornerRadius, "1234", "D")
	return nil
}

// drawFactionBadge draws the badge left-aligned at x and returns the width used
func (r *renderer) drawFactionBadge(c card.Card, theme card.Theme, x, y, headerH float64) float64 {
	b, _ := card.FactionBadge(c.Faction, theme)
	if b.Text == "" {
		return 0
	}
	return r.drawBadge(b.Text, b.Background, b.Foreground, x, y, headerH, false)
}

// drawCostBadge draws the CP badge right-aligned at x and returns the width used
func (r *renderer) drawCostBadge(c card.Card, theme card.Theme, x, y, headerH float64) float64 {
	if !c.Cost.Set {
		return 0
	}
	return r.drawBadge(fmt.Sprintf("%d CP", c.Cost.CP), theme.Accent, theme.OnHeader, x, y, headerH, true)
}

func (r *renderer) drawBadge(text string, bg, fg colorful.Color, x, y, headerH float64, alignRight bool) float64 {
	tw := r.measure(text, "B", BadgeSize)
	bw := tw + 3
	bh := BadgeSize * ptToMM * 1.8
	if alignRight {
		x -= bw
	}
	by := y + (headerH-bh)/2

	r.setFill(bg)
	r.setDraw(fg)
	r.pdf.SetLineWidth(0.2)
	r.pdf.RoundedRect(x, by, bw, bh, 1, "1234", "FD")
	r.text(x+1.5, by+bh/2+BadgeSize*ptToMM*0.35, text, "B", BadgeSize, fg)
	return bw + 1
}

// drawBlock draws laid out body text with bold labels and keyword colours
func (r *renderer) drawBlock(block TextBlock, theme card.Theme, x, y float64) {
	space := r.measure(" ", "", block.Size)
	for _, l := range block.Lines {
		baseline := y + l.Y + block.Size*ptToMM*0.9
		cx := x
		if l.Label != "" {
			r.text(cx, baseline, l.Label, "B", block.Size, theme.Header)
			cx += r.measure(l.Label+" ", "B", block.Size)
		}
		for _, word := range strings.Fields(l.Text) {
			col := theme.Text
			if role, ok := card.KeywordRole(word); ok {
				col = theme.Color(role)
			}
			r.text(cx, baseline, word, "", block.Size, col)
			cx += r.measure(word, "", block.Size) + space
		}
	}
}

func (r *renderer) drawImage(ctx context.Context, p *Placement, c card.Card, theme card.Theme, box Rect) error {
	img, err := r.resolver.Resolve(ctx, c, r.opts.BaseDir)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var re *imagesearch.ResolutionError
		if errors.As(err, &re) {
			r.logger.Warn("no image for card", "card", p.Index+1, "key", re.Query, "error", err)
		} else {
			r.logger.Warn("image lookup failed", "card", p.Index+1, "error", err)
		}
		return nil
	}
	if img == nil {
		return nil
	}

	pw := int(math.Round(box.W * pxPerMM))
	ph := int(math.Round(box.H * pxPerMM))

	// Cards sharing an image, box size and background embed it once
	name := fmt.Sprintf("img-%x", md5.Sum([]byte(fmt.Sprintf("%s|%dx%d|%s",
		img.Key, pw, ph, theme.Background.Clamped().Hex()))))
	opts := fpdf.ImageOptions{ImageType: "PNG"}

	if !r.images[name] {
		blended := Blend(img.Img, theme.Background, pw, ph, FeatherFor(pw, ph))
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, blended, imaging.PNG); err != nil {
			r.logger.Warn("failed to encode card image", "card", p.Index+1, "error", err)
			return nil
		}
		r.pdf.RegisterImageOptionsReader(name, opts, &buf)
		r.images[name] = true
	}
	r.pdf.ImageOptions(name, box.X, box.Y, box.W, box.H, false, opts, 0, "")

	p.Image = img.Key
	p.ImageSource = img.Source
	return nil
}
