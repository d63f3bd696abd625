package card

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a card file
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFromPath picks the decoder from the file extension. Anything that is
// not YAML is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ValidationError describes one structural problem in a card file.
// Card is the zero-based index of the offending record, or -1 when the
// problem concerns the document as a whole.
type ValidationError struct {
	Card   int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Card < 0 {
		if e.Field == "" {
			return "invalid card file: " + e.Reason
		}
		return fmt.Sprintf("invalid card file: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("card %d: %s: %s", e.Card+1, e.Field, e.Reason)
}

// Problems flattens an error returned by Parse into its validation errors.
func Problems(err error) []*ValidationError {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*ValidationError
		for _, e := range joined.Unwrap() {
			out = append(out, Problems(e)...)
		}
		return out
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return []*ValidationError{ve}
	}
	return nil
}

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type document struct {
	Cards []record `json:"cards" yaml:"cards"`
}

// record mirrors one entry of the input file. Every accepted key is listed
// here; anything else is rejected by the decoder.
type record struct {
	ID          string         `json:"id" yaml:"id"`
	Title       *string        `json:"title" yaml:"title"`
	Subtitle    string         `json:"subtitle" yaml:"subtitle"`
	Description string         `json:"description" yaml:"description"`
	Footer      string         `json:"footer" yaml:"footer"`
	Body        *Body          `json:"body" yaml:"body"`
	Faction     string         `json:"faction" yaml:"faction"`
	Cost        map[string]int `json:"cost" yaml:"cost"`
	CPCost      *int           `json:"cp_cost" yaml:"cp_cost"`
	Color       string         `json:"color" yaml:"color"`
	Image       string         `json:"image" yaml:"image"`
	Language    string         `json:"language" yaml:"language"`
	Type        string         `json:"type" yaml:"type"`
}

func (r *record) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Required, validation.By(notBlank)),
		validation.Field(&r.Color, validation.Match(hexColorRe).Error("must be a hex colour like #2196f3")),
		validation.Field(&r.CPCost, validation.Min(0)),
		validation.Field(&r.Cost, validation.By(validCost)),
	)
}

func notBlank(value interface{}) error {
	s, _ := value.(*string)
	if s != nil && strings.TrimSpace(*s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

func validCost(value interface{}) error {
	m, _ := value.(map[string]int)
	for k, v := range m {
		if !strings.EqualFold(k, "cp") {
			return fmt.Errorf("unknown cost kind %q", k)
		}
		if v < 0 {
			return errors.New("must be no less than 0")
		}
	}
	return nil
}

func (r *record) toCard() Card {
	c := Card{
		ID:          r.ID,
		Title:       strings.TrimSpace(*r.Title),
		Subtitle:    r.Subtitle,
		Description: r.Description,
		Footer:      r.Footer,
		Faction:     r.Faction,
		Color:       r.Color,
		Image:       strings.TrimSpace(r.Image),
		Language:    r.Language,
		Type:        r.Type,
	}
	if r.Body != nil {
		c.Body = *r.Body
	}
	for k, v := range r.Cost {
		if strings.EqualFold(k, "cp") {
			c.Cost = Cost{CP: v, Set: true}
		}
	}
	if r.CPCost != nil {
		c.Cost = Cost{CP: *r.CPCost, Set: true}
	}
	return c
}

// Parse decodes a card file and validates every record. All problems found
// are returned together as *ValidationError values joined with errors.Join.
func Parse(data []byte, format Format) ([]Card, error) {
	var doc document
	if err := decode(data, format, &doc); err != nil {
		return nil, &ValidationError{Card: -1, Reason: err.Error()}
	}
	if len(doc.Cards) == 0 {
		return nil, &ValidationError{Card: -1, Field: "cards", Reason: "must contain at least one card"}
	}

	var errs []error
	cards := make([]Card, 0, len(doc.Cards))
	for i := range doc.Cards {
		r := &doc.Cards[i]
		if err := r.Validate(); err != nil {
			errs = append(errs, recordErrors(i, err)...)
			continue
		}
		cards = append(cards, r.toCard())
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cards, nil
}

// Load reads and parses a card file from disk
func Load(path string) ([]Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading card file: %w", err)
	}
	return Parse(data, FormatFromPath(path))
}

func decode(data []byte, format Format, doc *document) error {
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(doc); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(doc); err != nil {
			if errors.Is(err, io.EOF) {
				return errors.New("empty document")
			}
			return err
		}
		if dec.More() {
			return errors.New("unexpected data after the top-level object")
		}
		return nil
	}
}

func recordErrors(index int, err error) []error {
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return []error{&ValidationError{Card: index, Field: "record", Reason: err.Error()}}
	}
	keys := make([]string, 0, len(fieldErrs))
	for k := range fieldErrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]error, 0, len(keys))
	for _, k := range keys {
		out = append(out, &ValidationError{Card: index, Field: k, Reason: fieldErrs[k].Error()})
	}
	return out
}
