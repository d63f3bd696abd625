package validator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCards(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cards.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func containsWarning(results ValidationResults, substr string) bool {
	for _, w := range results.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestValidate_Clean(t *testing.T) {
	path := writeCards(t, `{"cards":[{"title":"Lightning Bolt","description":"Deal 3 damage to any target."}]}`)
	results, err := NewValidator(path, DefaultOptions()).Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(results.Errors) != 0 || len(results.Warnings) != 0 {
		t.Errorf("results = %+v, want none", results)
	}
}

func TestValidate_ReportsEveryError(t *testing.T) {
	path := writeCards(t, `{"cards":[{"subtitle":"no title"},{"title":"ok","color":"blue"}]}`)
	results, err := NewValidator(path, DefaultOptions()).Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(results.Errors) != 2 {
		t.Fatalf("errors = %v, want 2", results.Errors)
	}
	if !strings.Contains(results.Errors[0], "card 1: title") {
		t.Errorf("first error = %q", results.Errors[0])
	}
	if !strings.Contains(results.Errors[1], "card 2: color") {
		t.Errorf("second error = %q", results.Errors[1])
	}
}

func TestValidate_MalformedFile(t *testing.T) {
	path := writeCards(t, `{"cards":[`)
	results, err := NewValidator(path, DefaultOptions()).Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(results.Errors) != 1 {
		t.Errorf("errors = %v, want 1", results.Errors)
	}
}

func TestValidate_MissingFile(t *testing.T) {
	if _, err := NewValidator(filepath.Join(t.TempDir(), "nope.json"), DefaultOptions()).Validate(); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestValidate_Warnings(t *testing.T) {
	long := strings.Repeat("This text goes on and on. ", 120)
	path := writeCards(t, `{"cards":[
		{"title":"Fireball"},
		{"title":"fireball"},
		{"title":"Wall","description":"`+long+`"},
		{"title":"Art","image":"missing.png"},
		{"title":"Knight","faction":"Adepta Sororitas"},
		{"title":"Ox"},
		{"title":"Приказ"}
	]}`)

	results, err := NewValidator(path, DefaultOptions()).Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(results.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", results.Errors)
	}

	for _, want := range []string{
		"card 2: title \"fireball\" duplicates card 1",
		"card 3: text is too long",
		"card 4: image not found: missing.png",
		"card 5: faction \"Adepta Sororitas\" has no badge",
		"card 6: no image search query",
		"card 7: title contains",
	} {
		if !containsWarning(results, want) {
			t.Errorf("missing warning %q in %v", want, results.Warnings)
		}
	}
}

func TestValidate_ImageNextToFile(t *testing.T) {
	path := writeCards(t, `{"cards":[{"title":"Art","image":"art.png"}]}`)
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "art.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	results, _ := NewValidator(path, DefaultOptions()).Validate()
	if containsWarning(results, "image not found") {
		t.Errorf("relative image should resolve against the card file: %v", results.Warnings)
	}
}

func TestValidate_OptionsRelaxWarnings(t *testing.T) {
	path := writeCards(t, `{"cards":[{"title":"Ox"},{"title":"Приказ"}]}`)
	opts := DefaultOptions()
	opts.Images = false
	opts.CoreFonts = false

	results, _ := NewValidator(path, opts).Validate()
	if len(results.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", results.Warnings)
	}
}

func TestValidate_TinyCard(t *testing.T) {
	path := writeCards(t, `{"cards":[{"title":"Ox","description":"Gain 1 CP."}]}`)
	opts := DefaultOptions()
	opts.CardWidth = 10
	opts.CardHeight = 10

	results, err := NewValidator(path, opts).Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !containsWarning(results, "card 1: card is too small for body text") {
		t.Errorf("missing size warning in %v", results.Warnings)
	}
	for _, w := range results.Warnings {
		if strings.Contains(w, "Inf") || strings.Contains(w, "NaN") {
			t.Errorf("warning has a non-finite number: %q", w)
		}
	}
}
