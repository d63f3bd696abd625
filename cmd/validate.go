package cmd

import (
	"errors"
	"fmt"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/cardforge/internal/config"
	"github.com/arcanaland/cardforge/internal/validator"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [input]",
	Short: "Check a card file without rendering it",
	Long: `Validate parses a card file and reports every problem that would stop
generate, plus warnings for cards that will render badly: text that will be
cut off, missing image files, unknown factions and duplicate titles.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetDeckPath(args[0])
		if err != nil {
			return err
		}

		opts := validator.Options{
			CardWidth:  cfg.Card.WidthMM,
			CardHeight: cfg.Card.HeightMM,
			Images:     cfg.Gradient && cfg.Images.Enabled,
			CoreFonts:  cfg.Fonts.Regular == "",
		}

		// Create validator and run validation
		v := validator.NewValidator(path, opts)
		results, err := v.Validate()
		if err != nil {
			return fmt.Errorf("validation error: %w", err)
		}

		fmt.Println(colorize.CyanString("Validation Results:"))
		fmt.Println(colorize.CyanString("-------------------"))

		if len(results.Errors) == 0 {
			fmt.Printf("%s '%s' is valid.\n", colorize.GreenString("✅"), path)
		} else {
			fmt.Printf("%s '%s' has %d errors:\n", colorize.RedString("❌"), path, len(results.Errors))
			for i, e := range results.Errors {
				fmt.Printf("%d. %s\n", i+1, colorize.RedString(e))
			}
		}

		if len(results.Warnings) > 0 {
			fmt.Println()
			fmt.Println(colorize.YellowString("Warnings:"))
			for i, w := range results.Warnings {
				fmt.Printf("%d. %s\n", i+1, w)
			}
		}

		if len(results.Errors) > 0 {
			return errors.New("validation failed")
		}
		return nil
	},
}
