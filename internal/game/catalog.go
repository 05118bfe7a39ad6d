package game

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Catalog holds every card and mission definition for a game.
type Catalog struct {
	Cards    []*Card    `yaml:"cards" validate:"required,dive,required"`
	Missions []*Mission `yaml:"missions" validate:"required,dive,required"`

	cards    map[string]*Card
	missions map[string]*Mission
}

var catalogValidate = newCatalogValidator()

func newCatalogValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateCard, Card{})
	return v
}

// validateCard checks the kind-dependent shape of a card definition.
func validateCard(sl validator.StructLevel) {
	c := sl.Current().Interface().(Card)
	switch c.Kind {
	case CardHazard:
		if c.Hazard == nil {
			sl.ReportError(c.Hazard, "Hazard", "hazard", "required_for_hazard", "")
		}
	case CardAction:
		if c.Tier < 1 {
			sl.ReportError(c.Tier, "Tier", "tier", "min_tier", "1")
		}
	case CardStarter:
		if c.Tier != 0 {
			sl.ReportError(c.Tier, "Tier", "tier", "starter_tier", "0")
		}
	}
	if c.Installable && c.Kind == CardHazard {
		sl.ReportError(c.Installable, "Installable", "installable", "hazard_not_installable", "")
	}
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog YAML: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadCatalog reads a YAML catalog from fs.
func LoadCatalog(fs afero.Fs, path string) (*Catalog, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
})

// DefaultCatalog returns the embedded catalog. It panics if the embedded
// data is invalid, which a unit test guards against.
func DefaultCatalog() *Catalog {
	c, err := defaultCatalog()
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

func (c *Catalog) index() error {
	if err := catalogValidate.Struct(c); err != nil {
		return fmt.Errorf("validate catalog: %w", err)
	}
	c.cards = make(map[string]*Card, len(c.Cards))
	for _, card := range c.Cards {
		if _, dup := c.cards[card.Key]; dup {
			return fmt.Errorf("duplicate card key %q", card.Key)
		}
		c.cards[card.Key] = card
	}
	c.missions = make(map[string]*Mission, len(c.Missions))
	perZone := [ZoneCount]int{}
	for _, m := range c.Missions {
		if _, dup := c.missions[m.Key]; dup {
			return fmt.Errorf("duplicate mission key %q", m.Key)
		}
		c.missions[m.Key] = m
		perZone[m.Zone]++
	}

	var errs []error
	starters := 0
	for _, card := range c.OfKind(CardStarter) {
		starters += card.Copies
	}
	if starters < HandSize {
		errs = append(errs, fmt.Errorf("starter deck has %d cards, need at least %d", starters, HandSize))
	}
	if n := len(c.Tier(1)); n < Tier1Types {
		errs = append(errs, fmt.Errorf("tier 1 has %d card types, need %d", n, Tier1Types))
	}
	for z, n := range perZone {
		if n < 2 {
			errs = append(errs, fmt.Errorf("zone %s has %d missions, need at least 2", Zone(z), n))
		}
	}
	return errors.Join(errs...)
}

// Card looks up a card definition by key.
func (c *Catalog) Card(key string) (*Card, bool) {
	card, ok := c.cards[key]
	return card, ok
}

// Mission looks up a mission definition by key.
func (c *Catalog) Mission(key string) (*Mission, bool) {
	m, ok := c.missions[key]
	return m, ok
}

// OfKind returns every card of the given kind in catalog order.
func (c *Catalog) OfKind(kind CardKind) []*Card {
	var out []*Card
	for _, card := range c.Cards {
		if card.Kind == kind {
			out = append(out, card)
		}
	}
	return out
}

// Tier returns every action card of the given market tier in catalog order.
func (c *Catalog) Tier(tier int) []*Card {
	var out []*Card
	for _, card := range c.OfKind(CardAction) {
		if card.Tier == tier {
			out = append(out, card)
		}
	}
	return out
}

// InZone returns every mission of the given zone in catalog order.
func (c *Catalog) InZone(z Zone) []*Mission {
	var out []*Mission
	for _, m := range c.Missions {
		if m.Zone == z {
			out = append(out, m)
		}
	}
	return out
}
