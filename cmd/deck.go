package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arcanaland/cardforge/internal/config"
	"github.com/arcanaland/cardforge/internal/deck"
)

// deckCmd represents the deck command group
var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "Manage card files in your deck library",
	Long: `Commands for managing the card files kept in your deck library
(XDG_DATA_HOME/cardforge/decks). Files in the library can be named without
their extension anywhere a card file is expected.`,
}

// deckListCmd represents the deck list command
var deckListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List card files in your deck library",
	RunE: func(cmd *cobra.Command, args []string) error {
		libraryPath := config.GetDeckLibraryPath()

		// Check if deck library exists
		if _, err := os.Stat(libraryPath); errors.Is(err, os.ErrNotExist) {
			fmt.Printf("Deck library at %s does not exist.\n", libraryPath)
			fmt.Println("Run 'cardforge deck init' to create it.")
			return nil
		}

		decks, err := deck.List(libraryPath)
		if err != nil {
			return fmt.Errorf("error reading deck library: %w", err)
		}

		if len(decks) == 0 {
			fmt.Println("No decks found in your deck library.")
			fmt.Println("You can add decks by copying card files to:", libraryPath)
			return nil
		}

		defaultDeck := cfg.DefaultDeck
		for _, d := range decks {
			file := filepath.Base(d.Path)
			if defaultDeck != "" && (defaultDeck == d.Name || defaultDeck == file) {
				fmt.Printf("* %s (%d cards) [DEFAULT]\n", file, len(d.Cards))
			} else {
				fmt.Printf("  %s (%d cards)\n", file, len(d.Cards))
			}
		}
		return nil
	},
}

// deckSetDefaultCmd represents the deck set-default command
var deckSetDefaultCmd = &cobra.Command{
	Use:   "set-default [deck_name]",
	Short: "Set the deck used when no input is given",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deckName := args[0]

		deckPath, err := config.GetDeckPath(deckName)
		if err != nil {
			return err
		}

		// Try to load the deck to make sure it's valid
		if _, err := deck.LoadDeck(deckPath); err != nil {
			return fmt.Errorf("not a valid deck: %w", err)
		}

		if err := config.SetDefaultDeck(deckName); err != nil {
			return fmt.Errorf("error setting default deck: %w", err)
		}

		fmt.Printf("Default deck set to: %s\n", deckName)
		return nil
	},
}

// deckInitCmd represents the deck init command
var deckInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the deck library",
	RunE: func(cmd *cobra.Command, args []string) error {
		libraryPath := config.GetDeckLibraryPath()

		sample, err := deck.Init(libraryPath)
		if err != nil {
			return err
		}

		fmt.Println("Deck library initialized at:", libraryPath)
		if sample != "" {
			fmt.Println("Wrote a sample deck to:", sample)
		}
		fmt.Println("You can now add decks by copying card files to this directory.")
		fmt.Println("Config file at:", config.GetConfigFilePath())
		return nil
	},
}

func init() {
	deckCmd.AddCommand(deckListCmd)
	deckCmd.AddCommand(deckSetDefaultCmd)
	deckCmd.AddCommand(deckInitCmd)
}
