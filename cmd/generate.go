package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/arcanaland/cardforge/internal/card"
	"github.com/arcanaland/cardforge/internal/config"
	"github.com/arcanaland/cardforge/internal/imagesearch"
	"github.com/arcanaland/cardforge/internal/layout"
	"github.com/arcanaland/cardforge/internal/watch"
)

type generateFlags struct {
	output     string
	pageSize   string
	cacheDir   string
	noGradient bool
	watch      bool
}

var genFlags generateFlags

var generateCmd = &cobra.Command{
	Use:   "generate [input]",
	Short: "Render a card file to a PDF",
	Long: `Generate lays out every card in the input file on pages of the chosen
paper size and writes a PDF. Cards with little text get artwork found from
their title and rules text, faded into the card background.

The input is a path to a .json, .yaml or .yml file, or the name of a file in
your deck library. With no input the default deck from your config is used.`,
	Example: `  cardforge generate stratagems.json
  cardforge generate -o sheet.pdf --page-size A4 stratagems.yaml
  cardforge generate --no-gradient --watch stratagems.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func addGenerateFlags(c *cobra.Command) {
	c.Flags().StringVarP(&genFlags.output, "output", "o", "", "Output PDF path (default from config: cards_output.pdf)")
	c.Flags().StringVar(&genFlags.pageSize, "page-size", "", "Paper size, Letter or A4 (default from config: Letter)")
	c.Flags().StringVar(&genFlags.cacheDir, "cache-dir", "", "Directory for downloaded images")
	c.Flags().BoolVar(&genFlags.noGradient, "no-gradient", false, "Disable card artwork and gradient blending")
	c.Flags().BoolVar(&genFlags.watch, "watch", false, "Regenerate whenever the input file changes")
}

func init() {
	addGenerateFlags(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	input, err := resolveInput(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	err = generate(ctx, input)
	if !genFlags.watch {
		return err
	}
	if err != nil {
		logger.Error("generate failed", "error", err)
	}

	fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n", input)
	return watch.Watch(ctx, input, logger, func() error {
		return generate(ctx, input)
	})
}

// resolveInput returns the card file named on the command line, or the
// default deck when none was given.
func resolveInput(args []string) (string, error) {
	if len(args) == 1 {
		return config.GetDeckPath(args[0])
	}

	defaultDeck, err := config.GetDefaultDeck()
	if err != nil {
		return "", fmt.Errorf("error getting default deck: %w", err)
	}
	if defaultDeck == "" {
		return "", errors.New("no input file given and no default deck set (see 'cardforge deck set-default')")
	}
	return config.GetDeckPath(defaultDeck)
}

func generate(ctx context.Context, input string) error {
	start := time.Now()

	cards, err := card.Load(input)
	if err != nil {
		for _, p := range card.Problems(err) {
			logger.Error("invalid card", "file", input, "problem", p.Error())
		}
		return fmt.Errorf("error loading %s: %w", input, err)
	}
	if len(cards) == 0 {
		return fmt.Errorf("no cards in %s", input)
	}

	opts, err := renderOptions(input)
	if err != nil {
		return err
	}

	var resolver layout.ImageResolver
	var cache *imagesearch.Cache
	if opts.Gradient && cfg.Images.Enabled {
		cache = imagesearch.NewCache()
		resolver = newResolver(cache)
	}

	engine, err := layout.NewEngine(opts, resolver, logger)
	if err != nil {
		return err
	}

	doc, err := engine.Render(ctx, cards)
	if err != nil {
		return fmt.Errorf("error rendering %s: %w", input, err)
	}

	output := genFlags.output
	if output == "" {
		output = cfg.Output
	}
	if err := doc.Save(output); err != nil {
		return err
	}

	images := 0
	for _, p := range doc.Placements() {
		if p.Image != "" {
			images++
		}
	}
	attrs := []any{
		"cards", len(cards),
		"pages", doc.Pages(),
		"images", images,
		"elapsed", time.Since(start).Round(time.Millisecond),
	}
	if cache != nil {
		attrs = append(attrs, "cache_keys", cache.Len(), "cache_hits", cache.Hits(), "cache_misses", cache.Misses())
	}
	logger.Debug("render finished", attrs...)

	fmt.Printf("Wrote %d cards on %d pages to %s\n", len(cards), doc.Pages(), output)
	return nil
}

// renderOptions merges the config with command line flags
func renderOptions(input string) (layout.Options, error) {
	pageSize := genFlags.pageSize
	if pageSize == "" {
		pageSize = cfg.PageSize
	}
	page, err := layout.ParsePageSize(pageSize)
	if err != nil {
		return layout.Options{}, err
	}

	created, err := sourceDateEpoch()
	if err != nil {
		return layout.Options{}, err
	}

	base := filepath.Base(input)
	opts := layout.DefaultOptions()
	opts.PageSize = page
	opts.CardWidth = cfg.Card.WidthMM
	opts.CardHeight = cfg.Card.HeightMM
	opts.Gradient = cfg.Gradient && !genFlags.noGradient
	opts.Fonts = layout.Fonts{
		Regular: cfg.Fonts.Regular,
		Bold:    cfg.Fonts.Bold,
		Italic:  cfg.Fonts.Italic,
	}
	opts.CreationDate = created
	opts.Title = strings.TrimSuffix(base, filepath.Ext(base))
	opts.BaseDir = filepath.Dir(input)
	return opts, nil
}

// newResolver builds the image lookup chain from the config
func newResolver(cache *imagesearch.Cache) *imagesearch.Resolver {
	cacheDir := genFlags.cacheDir
	if cacheDir == "" {
		cacheDir = cfg.Images.CacheDir
	}
	if cacheDir == "" {
		cacheDir = config.GetCacheDir()
	}

	sources := imagesearch.NewSources(cfg.Images.Sources, cacheDir, os.Getenv("UNSPLASH_ACCESS_KEY"))
	return imagesearch.NewResolver(cache, sources,
		imagesearch.WithLogger(logger),
		imagesearch.WithMinInterval(cfg.Images.MinInterval.Duration),
		imagesearch.WithHTTPClient(&http.Client{Timeout: cfg.Images.Timeout.Duration}),
	)
}

// sourceDateEpoch reads SOURCE_DATE_EPOCH for reproducible output
func sourceDateEpoch() (time.Time, error) {
	v := os.Getenv("SOURCE_DATE_EPOCH")
	if v == "" {
		return time.Time{}, nil
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid SOURCE_DATE_EPOCH %q: %w", v, err)
	}
	return time.Unix(secs, 0).UTC(), nil
}
