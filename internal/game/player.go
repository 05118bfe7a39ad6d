package game

// TurnCounters are reset at the start of every turn owned by the player.
type TurnCounters struct {
	MovesRemaining  int                             `json:"moves_remaining"`
	CardsPlayed     int                             `json:"cards_played"`
	ExtraPlays      int                             `json:"extra_plays"`
	BuyDiscount     int                             `json:"buy_discount"`
	InstallDiscount int                             `json:"install_discount"`
	MissionDiscount int                             `json:"mission_discount"`
	AbilitiesUsed   [SystemCount][maxAbilities]bool `json:"abilities_used"`
	RevealedTier    [StationCount]bool              `json:"revealed_tier"`
	ExtraTurn       bool                            `json:"extra_turn"`
}

// Player is one seat's entire state. Deck top is the last element.
type Player struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Captain Captain `json:"captain"`

	Deck    []*CardInstance `json:"deck"`
	Hand    []*CardInstance `json:"hand"`
	Discard []*CardInstance `json:"discard"`
	Played  []*CardInstance `json:"played"`

	Installations [SystemCount]*CardInstance    `json:"installations"`
	Gear          [SystemCount]*MissionInstance `json:"gear"`
	Missions      []*MissionInstance            `json:"missions"`
	Trophies      []*MissionInstance            `json:"trophies"`

	Credits  int `json:"credits"`
	Fame     int `json:"fame"`
	Location int `json:"location"`
	Hazards  int `json:"hazards"`

	BasePower PowerState `json:"base_power"`
	Power     PowerState `json:"power"`

	Turn TurnCounters `json:"turn"`
}

func (p *Player) String() string {
	return p.Name
}

// PlaysLeft returns how many more cards may be played this turn.
func (p *Player) PlaysLeft() int {
	n := PlayLimit + p.Turn.ExtraPlays - p.Turn.CardsPlayed
	if n < 0 {
		return 0
	}
	return n
}

// InstallationCount returns the number of occupied installation slots.
func (p *Player) InstallationCount() int {
	n := 0
	for _, c := range p.Installations {
		if c != nil {
			n++
		}
	}
	return n
}

// findCard returns the index of a card in a pile, or -1.
func findCard(pile []*CardInstance, id int) int {
	for i, c := range pile {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// removeAt removes and returns pile[i].
func removeAt(pile []*CardInstance, i int) ([]*CardInstance, *CardInstance) {
	c := pile[i]
	return append(pile[:i:i], pile[i+1:]...), c
}

// removeCard removes a card by ID and returns it, or nil if absent.
func removeCard(pile *[]*CardInstance, id int) *CardInstance {
	i := findCard(*pile, id)
	if i < 0 {
		return nil
	}
	var c *CardInstance
	*pile, c = removeAt(*pile, i)
	return c
}

func (p *Player) clone() *Player {
	c := *p
	c.Deck = cloneCards(p.Deck)
	c.Hand = cloneCards(p.Hand)
	c.Discard = cloneCards(p.Discard)
	c.Played = cloneCards(p.Played)
	for i := range p.Installations {
		c.Installations[i] = p.Installations[i].clone()
		c.Gear[i] = p.Gear[i].clone()
	}
	c.Missions = cloneMissions(p.Missions)
	c.Trophies = cloneMissions(p.Trophies)
	return &c
}
