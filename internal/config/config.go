package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Image source names accepted in images.sources
const (
	SourceReference = "reference"
	SourceDisk      = "disk"
	SourceUnsplash  = "unsplash"
	SourcePicsum    = "picsum"
)

// Config represents the application configuration
type Config struct {
	DefaultDeck string       `toml:"default_deck"`
	Output      string       `toml:"output"`
	PageSize    string       `toml:"page_size"`
	Gradient    bool         `toml:"gradient"`
	LogLevel    string       `toml:"log_level"`
	Card        CardConfig   `toml:"card"`
	Images      ImagesConfig `toml:"images"`
	Fonts       FontsConfig  `toml:"fonts"`
}

// CardConfig holds the physical card size
type CardConfig struct {
	WidthMM  float64 `toml:"width_mm"`
	HeightMM float64 `toml:"height_mm"`
}

// ImagesConfig controls automatic card art
type ImagesConfig struct {
	Enabled     bool     `toml:"enabled"`
	Sources     []string `toml:"sources"`
	CacheDir    string   `toml:"cache_dir"`
	MinInterval Duration `toml:"min_interval"`
	Timeout     Duration `toml:"timeout"`
}

// FontsConfig points at optional TrueType fonts. When Regular is empty the
// PDF core fonts are used, which only cover Western European text.
type FontsConfig struct {
	Regular string `toml:"regular"`
	Bold    string `toml:"bold"`
	Italic  string `toml:"italic"`
}

// Duration wraps time.Duration so it reads from TOML strings like "1s"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Output, validation.Required),
		validation.Field(&c.PageSize, validation.Required, validation.By(pageSizeRule)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Card,
		validation.Field(&c.Card.WidthMM, validation.Required, validation.Min(10.0)),
		validation.Field(&c.Card.HeightMM, validation.Required, validation.Min(10.0)),
	); err != nil {
		return fmt.Errorf("card: %w", err)
	}
	if err := validation.Validate(c.Images.Sources,
		validation.Each(validation.In(SourceReference, SourceDisk, SourceUnsplash, SourcePicsum)),
	); err != nil {
		return fmt.Errorf("images.sources: %w", err)
	}
	if c.Images.MinInterval.Duration < 0 || c.Images.Timeout.Duration < 0 {
		return fmt.Errorf("images: durations cannot be negative")
	}
	return nil
}

func pageSizeRule(value interface{}) error {
	s, _ := value.(string)
	switch strings.ToLower(s) {
	case "letter", "a4":
		return nil
	}
	return fmt.Errorf("must be Letter or A4")
}

// Level returns the slog level named by LogLevel
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewDefaultConfig returns a Config with the stock card size and sources
func NewDefaultConfig() *Config {
	return &Config{
		Output:   "cards_output.pdf",
		PageSize: "Letter",
		Gradient: true,
		LogLevel: "info",
		Card: CardConfig{
			WidthMM:  120,
			HeightMM: 65,
		},
		Images: ImagesConfig{
			Enabled:     true,
			Sources:     []string{SourceReference, SourceDisk, SourceUnsplash, SourcePicsum},
			MinInterval: Duration{time.Second},
			Timeout:     Duration{15 * time.Second},
		},
	}
}

// GetXDGDataHome returns XDG_DATA_HOME or default path
func GetXDGDataHome() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return xdgData
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "share")
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetXDGCacheHome returns XDG_CACHE_HOME or default path
func GetXDGCacheHome() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return xdgCache
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".cache")
}

// GetDeckLibraryPath returns the path to the deck library
func GetDeckLibraryPath() string {
	return filepath.Join(GetXDGDataHome(), "cardforge", "decks")
}

// GetCacheDir returns the default persistent image cache directory
func GetCacheDir() string {
	return filepath.Join(GetXDGCacheHome(), "cardforge", "images")
}

// GetConfigFilePath returns the path to the config file. CARDFORGE_CONFIG
// overrides the XDG location.
func GetConfigFilePath() string {
	if p := os.Getenv("CARDFORGE_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(GetXDGConfigHome(), "cardforge", "config.toml")
}

// LoadConfig loads the config file, writing the defaults on first use
func LoadConfig() (*Config, error) {
	configPath := GetConfigFilePath()

	// Create default config if it doesn't exist
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	config := NewDefaultConfig()
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return config, nil
}

// createDefaultConfig creates a default config file
func createDefaultConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	// Ensure the config directory exists
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating config directory: %w", err)
	}

	config := NewDefaultConfig()
	if err := writeConfig(configPath, config); err != nil {
		return nil, err
	}
	return config, nil
}

func writeConfig(configPath string, config *Config) error {
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	return nil
}

// GetDefaultDeck returns the default deck name from config
func GetDefaultDeck() (string, error) {
	config, err := LoadConfig()
	if err != nil {
		return "", err
	}
	return config.DefaultDeck, nil
}

// SetDefaultDeck sets the default deck in the config
func SetDefaultDeck(deckName string) error {
	config, err := LoadConfig()
	if err != nil {
		return err
	}
	config.DefaultDeck = deckName
	return writeConfig(GetConfigFilePath(), config)
}

// GetDeckPath returns the path to a card file, either in the deck library or
// a relative path. Library entries may omit the extension.
func GetDeckPath(deckName string) (string, error) {
	libraryPath := GetDeckLibraryPath()
	candidates := []string{filepath.Join(libraryPath, deckName)}
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		candidates = append(candidates, filepath.Join(libraryPath, deckName+ext))
	}

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}

	// If not found in the library, treat as a relative path
	if _, err := os.Stat(deckName); err == nil {
		return deckName, nil
	}

	return "", fmt.Errorf("card file not found: %s", deckName)
}
