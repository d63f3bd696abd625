package deck

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDeck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "starter.json")
	writeFile(t, path, `{"cards":[{"title":"One"},{"title":"Two","id":"c2"}]}`)

	d, err := LoadDeck(path)
	if err != nil {
		t.Fatalf("LoadDeck: %v", err)
	}
	if d.Name != "starter" || len(d.Cards) != 2 {
		t.Errorf("deck = %s with %d cards", d.Name, len(d.Cards))
	}
	if d.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", d.Dir(), dir)
	}

	c, err := d.GetCard(2)
	if err != nil || c.Title != "Two" {
		t.Errorf("GetCard(2) = %+v, %v", c, err)
	}
	if _, err := d.GetCard(0); err == nil {
		t.Error("GetCard(0) should fail")
	}
	if _, err := d.GetCard(3); err == nil {
		t.Error("GetCard(3) should fail")
	}

	n, c, err := d.FindCard("C2")
	if err != nil || n != 2 || c.Title != "Two" {
		t.Errorf("FindCard(C2) = %d, %+v, %v", n, c, err)
	}
	if n, _, err := d.FindCard("one"); err != nil || n != 1 {
		t.Errorf("FindCard(one) = %d, %v", n, err)
	}
}

func TestLoadDeck_Missing(t *testing.T) {
	if _, err := LoadDeck(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestList_SkipsInvalid(t *testing.T) {
	lib := t.TempDir()
	writeFile(t, filepath.Join(lib, "b.json"), `{"cards":[{"title":"B"}]}`)
	writeFile(t, filepath.Join(lib, "a.yaml"), "cards:\n  - title: A\n")
	writeFile(t, filepath.Join(lib, "broken.json"), `{"cards":[`)
	writeFile(t, filepath.Join(lib, "notes.txt"), "hello")
	if err := os.Mkdir(filepath.Join(lib, "subdir.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	decks, err := List(lib)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(decks) != 2 {
		t.Fatalf("len(decks) = %d, want 2", len(decks))
	}
	if decks[0].Name != "a" || decks[1].Name != "b" {
		t.Errorf("decks not sorted: %s, %s", decks[0].Name, decks[1].Name)
	}
}

func TestInit(t *testing.T) {
	lib := filepath.Join(t.TempDir(), "decks")

	sample, err := Init(lib)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if sample == "" {
		t.Fatal("expected a sample deck in an empty library")
	}
	d, err := LoadDeck(sample)
	if err != nil {
		t.Fatalf("sample deck does not load: %v", err)
	}
	if len(d.Cards) != 2 {
		t.Errorf("sample has %d cards, want 2", len(d.Cards))
	}

	again, err := Init(lib)
	if err != nil || again != "" {
		t.Errorf("second Init = %q, %v; want no new sample", again, err)
	}
}
