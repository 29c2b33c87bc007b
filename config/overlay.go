package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"finnduel-overlay-backend/models"
	"finnduel-overlay-backend/suspension"
	"finnduel-overlay-backend/utils"
)

// Overlay describes what the page shows: branding, the video, the suspension
// windows and the market catalogue. It is read once at startup.
type Overlay struct {
	Title      string              `json:"title" yaml:"title"`
	Subtitle   string              `json:"subtitle" yaml:"subtitle"`
	Video      string              `json:"video" yaml:"video"`
	Windows    []models.TimeWindow `json:"windows" yaml:"windows"`
	Categories []models.Category   `json:"categories" yaml:"categories"`
}

// LoadOverlay reads an overlay file. An empty path yields DefaultOverlay.
// Files ending in .json are decoded as JSON, everything else as YAML with
// ${VAR} environment substitution.
func LoadOverlay(path string) (*Overlay, error) {
	if path == "" {
		return DefaultOverlay(), nil
	}

	var overlay Overlay
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := utils.ReadJSON(path, &overlay); err != nil {
			return nil, fmt.Errorf("failed to read overlay file: %w", err)
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read overlay file: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
		dec.KnownFields(true)
		if err := dec.Decode(&overlay); err != nil {
			return nil, fmt.Errorf("failed to parse overlay file: %w", err)
		}
	}

	overlay.applyDefaults()
	if err := overlay.Validate(); err != nil {
		return nil, err
	}
	return &overlay, nil
}

func (o *Overlay) applyDefaults() {
	if o.Title == "" {
		o.Title = "FINNDUEL SPORTSBOOK"
	}
	for i := range o.Categories {
		if o.Categories[i].Label == "" {
			o.Categories[i].Label = LabelFromID(o.Categories[i].ID)
		}
	}
}

// Validate checks windows, categories and every market
func (o *Overlay) Validate() error {
	if _, err := suspension.NewSchedule(o.Windows); err != nil {
		return fmt.Errorf("windows: %w", err)
	}
	if len(o.Categories) == 0 {
		return errors.New("at least one category is required")
	}

	seen := make(map[string]bool, len(o.Categories))
	for _, c := range o.Categories {
		if c.ID == "" {
			return errors.New("category id is required")
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate category id %q", c.ID)
		}
		seen[c.ID] = true

		for i, m := range c.Markets {
			if err := ValidateMarket(m); err != nil {
				return fmt.Errorf("category %q market %d: %w", c.ID, i, err)
			}
		}
	}
	return nil
}

// ValidateMarket checks that a market has a title, exactly two priced options
// and, when present, a numeric line
func ValidateMarket(m models.Market) error {
	if m.Title == "" {
		return errors.New("title is required")
	}
	if len(m.Options) != 2 {
		return fmt.Errorf("market %q has %d options, want 2", m.Title, len(m.Options))
	}
	if m.Line != "" {
		if _, err := decimal.NewFromString(m.Line); err != nil {
			return fmt.Errorf("market %q line %q is not a number", m.Title, m.Line)
		}
	}
	for _, opt := range m.Options {
		if opt.Name == "" {
			return fmt.Errorf("market %q has an unnamed option", m.Title)
		}
		if err := validateOdds(opt.Odds); err != nil {
			return fmt.Errorf("market %q option %q: %w", m.Title, opt.Name, err)
		}
	}
	return nil
}

// validateOdds accepts American odds such as +130 or -1200
func validateOdds(odds string) error {
	v, err := strconv.Atoi(odds)
	if err != nil {
		return fmt.Errorf("odds %q are not American odds", odds)
	}
	if v > -100 && v < 100 {
		return fmt.Errorf("odds %q must be at least 100 in magnitude", odds)
	}
	return nil
}

// LabelFromID turns a category id such as "teamProps" or "at_bat" into a tab label
func LabelFromID(id string) string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}

	for i, r := range id {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && i > 0:
			flush()
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()

	return cases.Title(language.English).String(strings.Join(words, " "))
}

// CategoryIDs returns the category ids in display order
func (o *Overlay) CategoryIDs() []string {
	ids := make([]string, len(o.Categories))
	for i, c := range o.Categories {
		ids[i] = c.ID
	}
	return ids
}

// DefaultOverlay returns the MLB The Show demo configuration
func DefaultOverlay() *Overlay {
	two := func(a, aOdds, b, bOdds string) []models.Option {
		return []models.Option{{Name: a, Odds: aOdds}, {Name: b, Odds: bOdds}}
	}

	return &Overlay{
		Title:    "FINNDUEL SPORTSBOOK",
		Subtitle: "MLB The Show - Live In-Game Betting",
		Video:    "mlb-the-show-match.mp4",
		Windows: []models.TimeWindow{
			{Start: 10, End: 20, Status: models.StatusSuspended},
		},
		Categories: []models.Category{
			{
				ID:    "popular",
				Label: "Popular",
				Markets: []models.Market{
					{Title: "Moneyline (inc. OT)", Options: two("Home Team", "-150", "Away Team", "+130")},
					{Title: "Run Total (inc. OT)", Line: "8.5", Options: two("Over", "-110", "Under", "-110")},
					{Title: "Run Spread (inc. OT)", Line: "-0.5", Options: two("Home", "+120", "Away", "-145")},
				},
			},
			{
				ID:    "innings",
				Label: "Innings",
				Markets: []models.Market{
					{Title: "1st Inning Winner", Options: two("Home", "+110", "Away", "+105")},
					{Title: "1st Inning Total", Line: "0.5", Options: two("Over", "+140", "Under", "-175")},
					{Title: "5th Inning Winner", Options: two("Home", "-135", "Away", "+115")},
				},
			},
			{
				ID:    "teamProps",
				Label: "Team Props",
				Markets: []models.Market{
					{Title: "Home Team Total Runs", Line: "4.5", Options: two("Over", "+105", "Under", "-130")},
					{Title: "Away Team Total Runs", Line: "3.5", Options: two("Over", "-115", "Under", "-105")},
					{Title: "Home Team Total Hits", Line: "8.5", Options: two("Over", "-120", "Under", "+100")},
				},
			},
			{
				ID:    "atBat",
				Label: "At-Bat",
				Markets: []models.Market{
					{Title: "Next At-Bat Result", Options: two("Hit", "+180", "Out", "-220")},
					{Title: "Next Pitch", Options: two("Strike", "-140", "Ball", "+115")},
					{Title: "Home Run This At-Bat", Options: two("Yes", "+650", "No", "-1200")},
				},
			},
		},
	}
}
