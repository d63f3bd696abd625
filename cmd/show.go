package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	colorize "github.com/fatih/color"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/cardforge/internal/card"
	"github.com/arcanaland/cardforge/internal/config"
	"github.com/arcanaland/cardforge/internal/deck"
	"github.com/arcanaland/cardforge/internal/imagesearch"
	"github.com/arcanaland/cardforge/internal/layout"
	"github.com/arcanaland/cardforge/internal/preview"
)

const artWidth = 32

var showArt bool

var showCmd = &cobra.Command{
	Use:   "show [input] [card]",
	Short: "Preview one card in the terminal",
	Long: `Show prints a card's text the way it will be laid out, with its theme
colours, the font size it will get and the image search query that would be
used for its artwork.

The card is chosen by 1-based position, id or title.

Examples:
  cardforge show stratagems.json 3
  cardforge show stratagems.json "Fire Overwatch"
  cardforge show --art sample lightning`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetDeckPath(args[0])
		if err != nil {
			return err
		}

		d, err := deck.LoadDeck(path)
		if err != nil {
			return fmt.Errorf("error loading deck: %w", err)
		}

		var c card.Card
		n, convErr := strconv.Atoi(args[1])
		if convErr == nil {
			c, err = d.GetCard(n)
		} else {
			n, c, err = d.FindCard(args[1])
		}
		if err != nil {
			return fmt.Errorf("error getting card: %w", err)
		}

		var art string
		if showArt {
			art, err = cardArt(cmd, c, d.Dir())
			if err != nil {
				return err
			}
		}

		displayCard(c, n, d.Name, art)
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showArt, "art", false, "Look up the card's artwork and draw it with ANSI colours")
}

// cardArt resolves the card's image and converts it to ANSI blocks. Lookup
// failures are reported but do not stop the preview.
func cardArt(cmd *cobra.Command, c card.Card, baseDir string) (string, error) {
	img, err := newResolver(imagesearch.NewCache()).Resolve(cmd.Context(), c, baseDir)
	if err != nil {
		var rerr *imagesearch.ResolutionError
		if errors.As(err, &rerr) {
			logger.Warn("no artwork found", "query", rerr.Query, "error", err)
			return "", nil
		}
		return "", err
	}
	if img == nil {
		return "", nil
	}
	return preview.Block(img.Img, artWidth, 0), nil
}

// themed formats s in a 24-bit foreground colour
func themed(c colorful.Color, s string) string {
	r, g, b := c.Clamped().RGB255()
	return colorize.New(colorize.Attribute(38), colorize.Attribute(2),
		colorize.Attribute(r), colorize.Attribute(g), colorize.Attribute(b)).Sprint(s)
}

func field(label, value string) string {
	return colorize.CyanString("%-10s", label+":") + colorize.HiWhiteString("%s", value)
}

// displayCard prints the card information next to its artwork
func displayCard(c card.Card, n int, deckName, art string) {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 80 // Default if we can't get terminal width
	}

	infoWidth := width - 6
	if art != "" {
		infoWidth -= artWidth + 4
	}
	infoWidth = max(infoWidth, 20)

	theme := card.ThemeFor(c)
	geom := layout.NewGeometry(c, cfg.Card.WidthMM, cfg.Card.HeightMM)

	var info []string
	info = append(info, themed(theme.Header, c.Title))
	if c.Subtitle != "" {
		info = append(info, colorize.New(colorize.Italic).Sprint(c.Subtitle))
	}
	info = append(info, "")
	info = append(info, field("Deck", fmt.Sprintf("%s (card %d)", deckName, n)))
	if c.ID != "" {
		info = append(info, field("ID", c.ID))
	}
	if c.Faction != "" {
		badge, _ := card.FactionBadge(c.Faction, theme)
		info = append(info, field("Faction", fmt.Sprintf("%s [%s]", c.Faction, badge.Text)))
	}
	if c.Cost.Set {
		info = append(info, field("Cost", fmt.Sprintf("%d CP", c.Cost.CP)))
	}
	if c.Type != "" {
		info = append(info, field("Type", c.Type))
	}

	for _, s := range c.Sections() {
		info = append(info, "")
		if s.Label != "" {
			info = append(info, themed(theme.Header, s.Label+":"))
		}
		info = append(info, preview.WrapText(s.Text, infoWidth)...)
	}

	if c.Footer != "" {
		info = append(info, "", colorize.HiBlackString("%s", c.Footer))
	}

	// Layout details
	fraction := layout.TextFraction(c, geom)
	body := geom.Body()
	fit := layout.Fit(c.Sections(), body.W, body.H, estimateWidth)
	info = append(info, "")
	if c.HasText() {
		info = append(info, field("Text", fmt.Sprintf("%.0f%% of body at %.1fpt", 100*fraction, fit.Size)))
	} else {
		info = append(info, field("Text", "none, the body is free for artwork"))
	}
	if fit.Clipped {
		info = append(info, colorize.RedString("          text will be cut off"))
	}
	if fraction < layout.ImageThreshold {
		query := imagesearch.Key(c)
		if query == "" {
			query = "(none)"
		}
		info = append(info, field("Image", query))
	} else {
		info = append(info, field("Image", "none, card is text heavy"))
	}

	fmt.Println()
	fmt.Print(preview.SideBySide(art, info, 4))
	fmt.Println()
}

// estimateWidth approximates the rendered width of s in mm using the same
// half-em glyph width the layout estimate uses
func estimateWidth(s, _ string, size float64) float64 {
	return float64(len([]rune(s))) * size * 0.5 * 25.4 / 72
}
