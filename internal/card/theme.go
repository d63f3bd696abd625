package card

import (
	"strings"
	"unicode"

	"github.com/lucasb-eyer/go-colorful"
)

// Role names the part of a theme a piece of text is drawn with
type Role int

const (
	RoleText Role = iota
	RoleHeader
	RoleAccent
	RoleMuted
)

// Theme is the colour assignment for one card
type Theme struct {
	Header     colorful.Color // Header bar, title text colour on the page
	Accent     colorful.Color // Section labels and highlighted keywords
	Text       colorful.Color
	Subtitle   colorful.Color
	Background colorful.Color // Card fill, the header colour washed out over paper grey
	OnHeader   colorful.Color // Text drawn on top of the header bar
}

var (
	white        = colorful.Color{R: 1, G: 1, B: 1}
	black        = colorful.Color{}
	paper        = MustHex("#f0f0f0")
	defaultBase  = MustHex("#2c3e50")
	textColor    = MustHex("#34495e")
	subtitleGray = MustHex("#7f8c8d")
)

// backgroundWash is how much of the header colour survives in the card
// background. The result is precomputed instead of drawn with PDF alpha so
// the image blend can fade into the exact same colour.
const backgroundWash = 0.12

// costThemes maps command point cost to header colour
var costThemes = []struct {
	minCP int
	hex   string
}{
	{2, "#f44336"},
	{1, "#2196f3"},
	{0, "#4caf50"},
}

// ThemeFor resolves the colour theme of a card: an explicit colour wins,
// then the cost table, then the default slate.
func ThemeFor(c Card) Theme {
	base := defaultBase
	if col, err := ParseHex(c.Color); err == nil {
		base = col
	} else if c.Cost.Set {
		for _, t := range costThemes {
			if c.Cost.CP >= t.minCP {
				base = MustHex(t.hex)
				break
			}
		}
	}
	return NewTheme(base)
}

// NewTheme derives a full theme from a single header colour
func NewTheme(base colorful.Color) Theme {
	onHeader := white
	if _, _, l := base.Hsl(); l > 0.7 {
		onHeader = black
	}
	return Theme{
		Header:     base,
		Accent:     base.BlendRgb(black, 0.2).Clamped(),
		Text:       textColor,
		Subtitle:   subtitleGray,
		Background: paper.BlendRgb(base, backgroundWash).Clamped(),
		OnHeader:   onHeader,
	}
}

// Color returns the colour of a role
func (t Theme) Color(r Role) colorful.Color {
	switch r {
	case RoleHeader:
		return t.Header
	case RoleAccent:
		return t.Accent
	case RoleMuted:
		return t.Subtitle
	default:
		return t.Text
	}
}

// keywordRoles lists whole tokens that are highlighted inside body text.
// Lookup is case sensitive: unit keywords are written in capitals.
var keywordRoles = map[string]Role{
	"CP":        RoleAccent,
	"Command":   RoleHeader,
	"Movement":  RoleHeader,
	"Shooting":  RoleHeader,
	"Charge":    RoleHeader,
	"Fight":     RoleHeader,
	"CHARACTER": RoleAccent,
	"INFANTRY":  RoleAccent,
	"VEHICLE":   RoleAccent,
	"MONSTER":   RoleAccent,
	"WALKER":    RoleAccent,
	"MOUNTED":   RoleAccent,
	"TRANSPORT": RoleAccent,
	"ПЕРСОНАЖ":  RoleAccent,
	"ПЕХОТНЫЙ":  RoleAccent,
	"ТРАНСПОРТ": RoleAccent,
	"ШАГОХОД":   RoleAccent,
	"mortal":    RoleMuted,
}

// keywordAffixes highlights weapon abilities such as [LETHAL HITS], which
// span several tokens.
var keywordAffixes = []struct {
	prefix, suffix string
	role           Role
}{
	{prefix: "[", role: RoleAccent},
	{suffix: "]", role: RoleAccent},
}

// KeywordRole reports the highlight role of a body text token, if any.
// Surrounding punctuation is ignored.
func KeywordRole(token string) (Role, bool) {
	for _, a := range keywordAffixes {
		if a.prefix != "" && strings.HasPrefix(token, a.prefix) {
			return a.role, true
		}
		if a.suffix != "" && strings.HasSuffix(strings.TrimRight(token, ".,;:"), a.suffix) {
			return a.role, true
		}
	}
	word := strings.TrimFunc(token, func(r rune) bool {
		return unicode.IsPunct(r) && r != '[' && r != ']'
	})
	role, ok := keywordRoles[word]
	return role, ok
}

// Badge is the small faction marker drawn in the header bar
type Badge struct {
	Text       string
	Background colorful.Color
	Foreground colorful.Color
}

type badgeSpec struct {
	text, bg, fg string
}

var factionBadges = map[string]badgeSpec{
	"Общие стратагемы":     {"CORE", "#2c3e50", "#ffffff"},
	"Core Stratagems":      {"CORE", "#2c3e50", "#ffffff"},
	"Абордаж":              {"BOARD", "#8b0000", "#ffffff"},
	"Претендент":           {"CHAL", "#4b0082", "#ffffff"},
	"Базовые стратагемы":   {"BASE", "#228b22", "#ffffff"},
	"Adeptus Astartes":     {"SM", "#1e40af", "#ffffff"},
	"Space Marines":        {"SM", "#1e40af", "#ffffff"},
	"Chaos":                {"CHAOS", "#dc2626", "#ffffff"},
	"Chaos Daemons":        {"CHAOS", "#dc2626", "#ffffff"},
	"Imperial Guard":       {"IG", "#059669", "#ffffff"},
	"Orks":                 {"ORKS", "#16a34a", "#000000"},
	"Necrons":              {"NEC", "#000000", "#00ff00"},
	"Tyranids":             {"TYR", "#7c2d12", "#ffffff"},
	"Eldar":                {"ELD", "#0891b2", "#ffffff"},
	"Aeldari":              {"ELD", "#0891b2", "#ffffff"},
	"Adeptus Custodes":     {"CUST", "#fbbf24", "#000000"},
	"Grey Knights":         {"GK", "#9ca3af", "#ffffff"},
	"Death Guard":          {"DG", "#4b5563", "#22c55e"},
	"Questoris Imperialis": {"KNIGHT", "#92400e", "#ffffff"},
}

// FactionBadge returns the badge for a faction. The boolean is false when
// the faction has no table entry and the badge was derived from its
// initials instead. An empty faction yields an empty badge.
func FactionBadge(faction string, theme Theme) (Badge, bool) {
	faction = strings.TrimSpace(faction)
	if faction == "" {
		return Badge{}, false
	}
	if spec, ok := factionBadges[faction]; ok {
		return Badge{Text: spec.text, Background: MustHex(spec.bg), Foreground: MustHex(spec.fg)}, true
	}
	return Badge{
		Text:       initials(faction, 4),
		Background: theme.Accent,
		Foreground: theme.OnHeader,
	}, false
}

func initials(s string, max int) string {
	var b strings.Builder
	n := 0
	for _, w := range strings.Fields(s) {
		r := []rune(w)[0]
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		n++
		if n == max {
			break
		}
	}
	return b.String()
}

// ParseHex parses #rgb and #rrggbb colours
func ParseHex(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)
	if len(s) == 4 && s[0] == '#' {
		s = string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	return colorful.Hex(s)
}

// MustHex is ParseHex for compile-time constants
func MustHex(s string) colorful.Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}
