package deck

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arcanaland/cardforge/internal/card"
)

// Deck is a card file together with its parsed cards
type Deck struct {
	Name  string // File name without extension
	Path  string
	Cards []card.Card
}

// Extensions recognised as card files
var Extensions = []string{".json", ".yaml", ".yml"}

// IsCardFile reports whether path has a card file extension
func IsCardFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// LoadDeck loads and validates a card file
func LoadDeck(deckPath string) (*Deck, error) {
	if _, err := os.Stat(deckPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("card file not found: %s", deckPath)
	}

	cards, err := card.Load(deckPath)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(deckPath)
	return &Deck{
		Name:  strings.TrimSuffix(base, filepath.Ext(base)),
		Path:  deckPath,
		Cards: cards,
	}, nil
}

// Dir returns the directory relative image references resolve against
func (d *Deck) Dir() string {
	return filepath.Dir(d.Path)
}

// GetCard returns the card at a 1-based position
func (d *Deck) GetCard(n int) (card.Card, error) {
	if n < 1 || n > len(d.Cards) {
		return card.Card{}, fmt.Errorf("card %d out of range (deck has %d cards)", n, len(d.Cards))
	}
	return d.Cards[n-1], nil
}

// FindCard returns the first card whose id or title matches ref, ignoring case
func (d *Deck) FindCard(ref string) (int, card.Card, error) {
	for i, c := range d.Cards {
		if (c.ID != "" && strings.EqualFold(c.ID, ref)) || strings.EqualFold(c.Title, ref) {
			return i + 1, c, nil
		}
	}
	return 0, card.Card{}, fmt.Errorf("card not found: %s", ref)
}

// List loads every valid card file in the library directory, sorted by name.
// Files that fail to parse are skipped.
func List(libraryPath string) ([]*Deck, error) {
	entries, err := os.ReadDir(libraryPath)
	if err != nil {
		return nil, err
	}

	var decks []*Deck
	for _, entry := range entries {
		// Resolve symbolic links before checking the type
		entryPath := filepath.Join(libraryPath, entry.Name())
		info, err := os.Stat(entryPath)
		if err != nil || info.IsDir() || !IsCardFile(entryPath) {
			continue
		}

		d, err := LoadDeck(entryPath)
		if err != nil {
			continue
		}
		decks = append(decks, d)
	}

	sort.Slice(decks, func(i, j int) bool { return decks[i].Name < decks[j].Name })
	return decks, nil
}

const sampleDeck = `{
  "cards": [
    {
      "title": "Fire Overwatch",
      "faction": "Core Stratagems",
      "cost": {"CP": 1},
      "body": {
        "when": "Your opponent's Movement or Charge phase",
        "target": "One unit from your army within 24\" of an enemy unit",
        "effect": "Your unit can shoot that enemy unit as if it were your Shooting phase.",
        "restriction": "Hits are only scored on unmodified rolls of 6."
      },
      "footer": "Core"
    },
    {
      "title": "Lightning Bolt",
      "subtitle": "Instant",
      "description": "Deal 3 damage to any target."
    }
  ]
}
`

// Init creates the library directory and writes a sample card file when the
// library is empty. It returns the path of the sample, or "" if none was
// written.
func Init(libraryPath string) (string, error) {
	if err := os.MkdirAll(libraryPath, 0755); err != nil {
		return "", fmt.Errorf("error creating deck library: %w", err)
	}

	entries, err := os.ReadDir(libraryPath)
	if err != nil {
		return "", err
	}
	if len(entries) > 0 {
		return "", nil
	}

	samplePath := filepath.Join(libraryPath, "sample.json")
	if err := os.WriteFile(samplePath, []byte(sampleDeck), 0644); err != nil {
		return "", fmt.Errorf("error writing sample deck: %w", err)
	}
	return samplePath, nil
}
