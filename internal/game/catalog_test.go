package game

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalCatalog = `
cards:
  - {key: s1, name: Scrap, kind: starter, copies: 5, effect: {credits: 1}}
  - {key: a1, name: A1, kind: action, tier: 1, copies: 4, cost: 1}
  - {key: a2, name: A2, kind: action, tier: 1, copies: 4, cost: 1}
  - {key: a3, name: A3, kind: action, tier: 1, copies: 4, cost: 1}
  - {key: a4, name: A4, kind: action, tier: 1, copies: 4, cost: 1}
  - {key: a5, name: A5, kind: action, tier: 1, copies: 4, cost: 1}
  - key: h1
    name: H1
    kind: hazard
    copies: 2
    hazard: {restriction: jammed, clear: {kind: credits, amount: 1}}
missions:
  - {key: n1, name: N1, zone: near, fame: 1}
  - {key: n2, name: N2, zone: near, fame: 1}
  - {key: m1, name: M1, zone: mid, fame: 2}
  - {key: m2, name: M2, zone: mid, fame: 2}
  - {key: d1, name: D1, zone: deep, fame: 3}
  - {key: d2, name: D2, zone: deep, fame: 3}
`

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.NotNil(t, c)

	assert.Len(t, c.Tier(1), Tier1Types)
	assert.NotEmpty(t, c.Tier(2))
	assert.NotEmpty(t, c.Tier(3))
	for z := range ZoneCount {
		assert.GreaterOrEqual(t, len(c.InZone(Zone(z))), 2, "zone %s", Zone(z))
	}

	jammer, ok := c.Card("signal_jammer")
	require.True(t, ok)
	require.NotNil(t, jammer.Hazard)
	assert.Equal(t, RestrictJammed, jammer.Hazard.Restriction)
	assert.Equal(t, ClearPower, jammer.Hazard.Clear.Kind)
	assert.Equal(t, SystemEngines, jammer.Hazard.Clear.System)

	beacon, ok := c.Mission("beacon_repair")
	require.True(t, ok)
	assert.Equal(t, ZoneNear, beacon.Zone)
	assert.Len(t, beacon.Rewards, 2)

	_, ok = c.Card("nope")
	assert.False(t, ok)
	assert.Same(t, c, DefaultCatalog())
}

func TestLoadCatalogFromFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/catalog.yaml", []byte(minimalCatalog), 0o644))

	c, err := LoadCatalog(fs, "/data/catalog.yaml")
	require.NoError(t, err)
	assert.Len(t, c.OfKind(CardStarter), 1)
	assert.Len(t, c.OfKind(CardHazard), 1)
	assert.Len(t, c.InZone(ZoneDeep), 2)

	e, err := NewEngine(Config{Players: []PlayerSpec{{ID: "solo"}}, Catalog: c, Seed: 7})
	require.NoError(t, err)
	assert.Len(t, e.state.Players[0].Hand, HandSize)
	assert.Len(t, e.state.HazardDeck, 2)

	_, err = LoadCatalog(fs, "/data/missing.yaml")
	assert.Error(t, err)
}

func TestParseCatalogRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "cards: [\n"},
		{"unknown kind", `cards: [{key: x, name: X, kind: relic}]`},
		{"unknown system", `cards: [{key: x, name: X, kind: hazard, hazard: {drain: {system: shields, amount: 1}}}]`},
		{"unknown zone", `missions: [{key: x, name: X, zone: outer}]`},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestCatalogShapeChecks(t *testing.T) {
	base, err := ParseCatalog([]byte(minimalCatalog))
	require.NoError(t, err)

	clone := func() *Catalog {
		c := &Catalog{}
		for _, card := range base.Cards {
			cc := *card
			c.Cards = append(c.Cards, &cc)
		}
		for _, m := range base.Missions {
			mm := *m
			c.Missions = append(c.Missions, &mm)
		}
		return c
	}

	c := clone()
	c.Cards = append(c.Cards, &Card{Key: "s1", Name: "Again", Kind: CardStarter})
	assert.ErrorContains(t, c.index(), `duplicate card key "s1"`)

	c = clone()
	c.Cards[len(c.Cards)-1].Hazard = nil
	assert.ErrorContains(t, c.index(), "required_for_hazard")

	c = clone()
	c.Cards[1].Tier = 0
	assert.Error(t, c.index())

	c = clone()
	c.Cards[0].Copies = 2
	assert.ErrorContains(t, c.index(), "starter deck has 2 cards")

	c = clone()
	c.Missions = c.Missions[1:]
	assert.ErrorContains(t, c.index(), "zone near has 1 missions")

	c = clone()
	c.Cards[1].Installable = true
	c.Cards[1].InstallCost = 2
	assert.NoError(t, c.index())
}
