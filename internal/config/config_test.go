package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_CreatesDefault(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("CARDFORGE_CONFIG", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PageSize != "Letter" || cfg.Output != "cards_output.pdf" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	path := filepath.Join(dir, "cardforge", "config.toml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	// Second load reads the written file back
	again, err := LoadConfig()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Images.MinInterval.Duration != time.Second {
		t.Errorf("min_interval = %v, want 1s", again.Images.MinInterval)
	}
	if again.Card.WidthMM != 120 || again.Card.HeightMM != 65 {
		t.Errorf("card size = %vx%v", again.Card.WidthMM, again.Card.HeightMM)
	}
}

func TestLoadConfig_ReadsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	content := `
page_size = "A4"
log_level = "debug"

[card]
width_mm = 88.9
height_mm = 50.8

[images]
sources = ["reference", "picsum"]
min_interval = "250ms"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CARDFORGE_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PageSize != "A4" {
		t.Errorf("page_size = %q", cfg.PageSize)
	}
	if cfg.Output != "cards_output.pdf" {
		t.Errorf("unset keys should keep defaults, output = %q", cfg.Output)
	}
	if cfg.Images.MinInterval.Duration != 250*time.Millisecond {
		t.Errorf("min_interval = %v", cfg.Images.MinInterval)
	}
	if len(cfg.Images.Sources) != 2 {
		t.Errorf("sources = %v", cfg.Images.Sources)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("level = %v", cfg.Level())
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "lower case page size", mutate: func(c *Config) { c.PageSize = "a4" }},
		{name: "unknown page size", mutate: func(c *Config) { c.PageSize = "Legal" }, wantErr: true},
		{name: "tiny card", mutate: func(c *Config) { c.Card.WidthMM = 2 }, wantErr: true},
		{name: "unknown source", mutate: func(c *Config) { c.Images.Sources = []string{"bing"} }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
		{name: "empty output", mutate: func(c *Config) { c.Output = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetDeckPath(t *testing.T) {
	data := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)

	lib := GetDeckLibraryPath()
	if err := os.MkdirAll(lib, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(lib, "core.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := GetDeckPath("core")
	if err != nil {
		t.Fatalf("GetDeckPath: %v", err)
	}
	if got != filepath.Join(lib, "core.json") {
		t.Errorf("path = %q", got)
	}

	local := filepath.Join(t.TempDir(), "local.json")
	if err := os.WriteFile(local, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, err := GetDeckPath(local); err != nil || got != local {
		t.Errorf("GetDeckPath(local) = %q, %v", got, err)
	}

	if _, err := GetDeckPath("nope"); err == nil {
		t.Error("expected error for unknown deck")
	}
}
