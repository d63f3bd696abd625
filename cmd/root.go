package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/arcanaland/cardforge/internal/config"
)

var (
	verbose bool
	cfg     *config.Config
	logger  = slog.Default()
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "cardforge [input]",
	Short: "Turn card data files into printable PDF sheets",
	Long: `Cardforge reads a JSON or YAML file of game cards and lays them out on
printable pages, several cards per sheet, with optional artwork found by
image search and blended into the card background.

Running cardforge with a file path is the same as 'cardforge generate <path>'.`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env file if present (ignore errors)
		_ = godotenv.Load()

		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}

		level := cfg.Level()
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runGenerate(cmd, args)
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log every card placement and image lookup")
	addGenerateFlags(RootCmd)

	RootCmd.AddCommand(generateCmd)
	RootCmd.AddCommand(validateCmd)
	RootCmd.AddCommand(showCmd)
	RootCmd.AddCommand(deckCmd)
}
