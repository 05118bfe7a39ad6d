package game

import "fmt"

// Card is an immutable catalog definition. Starter and action cards carry an
// effect payload; hazards carry a HazardSpec.
type Card struct {
	Key         string   `yaml:"key" validate:"required"`
	Name        string   `yaml:"name" validate:"required"`
	Kind        CardKind `yaml:"kind"`
	Tier        int      `yaml:"tier" validate:"gte=0,lte=3"`
	Copies      int      `yaml:"copies" validate:"gte=0"`
	Cost        int      `yaml:"cost" validate:"gte=0"`
	Installable bool     `yaml:"installable"`
	InstallCost int      `yaml:"install_cost" validate:"gte=0"`

	Effect    Effect  `yaml:"effect"`
	OnInstall *Effect `yaml:"on_install"`
	// Passive is granted at every initial phase while the card is installed.
	Passive Bonus `yaml:"passive"`
	// OnReceiveHazard fires while the card is in hand and its holder receives a hazard.
	OnReceiveHazard *Bonus `yaml:"on_receive_hazard"`

	Hazard *HazardSpec `yaml:"hazard"`
}

func (c *Card) String() string {
	return c.Name
}

// Effect is the data-driven payload resolved when a card is played.
type Effect struct {
	Credits     int        `yaml:"credits" validate:"gte=0"`
	Power       PowerState `yaml:"power"`
	PowerChoice int        `yaml:"power_choice" validate:"gte=0,lte=10"`
	Moves       int        `yaml:"moves" validate:"gte=0"`
	Draw        int        `yaml:"draw" validate:"gte=0"`
	// Scout looks at the top three cards of the deck, keeps one and discards the rest.
	Scout bool `yaml:"scout"`

	BuyDiscount     int `yaml:"buy_discount" validate:"gte=0"`
	InstallDiscount int `yaml:"install_discount" validate:"gte=0"`
	MissionDiscount int `yaml:"mission_discount" validate:"gte=0"`
	ExtraPlays      int `yaml:"extra_plays" validate:"gte=0"`

	OneTimeUse           bool              `yaml:"one_time_use"`
	Trash                bool              `yaml:"trash"`
	PowerPerInstallation int               `yaml:"power_per_installation" validate:"gte=0"`
	FameIf               []ConditionalFame `yaml:"fame_if" validate:"dive"`
	ExtraTurn            bool              `yaml:"extra_turn"`
	ReplayDiscard        bool              `yaml:"replay_discard"`
	HazardAll            bool              `yaml:"hazard_all"`
	HazardTarget         bool              `yaml:"hazard_target"`
	MoveOther            bool              `yaml:"move_other"`
}

// ConditionalFame grants fame when its condition holds at resolution time.
type ConditionalFame struct {
	If   Condition `yaml:"if"`
	Fame int       `yaml:"fame" validate:"gt=0"`
}

// Bonus is a flat grant used by passives, reactions, captains and trophies.
type Bonus struct {
	Credits int        `yaml:"credits"`
	Moves   int        `yaml:"moves"`
	Draw    int        `yaml:"draw"`
	Fame    int        `yaml:"fame"`
	Power   PowerState `yaml:"power"`
	// SlotPower goes into the system the card or gear is installed in.
	SlotPower       int `yaml:"slot_power"`
	BuyDiscount     int `yaml:"buy_discount"`
	MissionDiscount int `yaml:"mission_discount"`
}

// IsZero reports whether the bonus grants nothing.
func (b Bonus) IsZero() bool {
	return b == Bonus{}
}

// HazardSpec describes a hazard's restriction, reveal drain and clear cost.
type HazardSpec struct {
	Restriction Restriction `yaml:"restriction"`
	Drain       *Drain      `yaml:"drain"`
	Clear       ClearCost   `yaml:"clear"`
	PassOnClear bool        `yaml:"pass_on_clear"`
}

// Drain removes power from one system when the hazard is revealed.
type Drain struct {
	System System `yaml:"system"`
	Amount int    `yaml:"amount" validate:"gt=0"`
}

// ClearCost is the price of removing a hazard from hand.
type ClearCost struct {
	Kind   ClearKind `yaml:"kind"`
	Amount int       `yaml:"amount" validate:"gte=0"`
	System System    `yaml:"system"`
	Min    int       `yaml:"min" validate:"gte=0"`
}

func (c ClearCost) String() string {
	switch c.Kind {
	case ClearCredits:
		return fmt.Sprintf("%d credits", c.Amount)
	case ClearPower:
		return fmt.Sprintf("%d %s power", c.Amount, c.System)
	case ClearSpendAll:
		return fmt.Sprintf("all %s power (min %d)", c.System, c.Min)
	case ClearDistinctSystems:
		return fmt.Sprintf("1 power from %d systems", c.Amount)
	case ClearDiscard:
		return fmt.Sprintf("discard %d cards", c.Amount)
	}
	return c.Kind.String()
}

// --- Missions ---

// Mission is an immutable track mission definition.
type Mission struct {
	Key      string     `yaml:"key" validate:"required"`
	Name     string     `yaml:"name" validate:"required"`
	Zone     Zone       `yaml:"zone"`
	Requires PowerState `yaml:"requires"`
	Fame     int        `yaml:"fame" validate:"gte=0"`
	Rewards  []Reward   `yaml:"rewards" validate:"dive"`
	// Passive applies each initial phase while held as gear or trophy.
	Passive      Bonus   `yaml:"passive"`
	Trigger      Trigger `yaml:"trigger"`
	TriggerBonus Bonus   `yaml:"trigger_bonus"`
}

func (m *Mission) String() string {
	return m.Name
}

// Reward is one bundle a completed mission can pay out.
type Reward struct {
	Credits   int  `json:"credits,omitempty" yaml:"credits" validate:"gte=0"`
	Draw      int  `json:"draw,omitempty" yaml:"draw" validate:"gte=0"`
	Fame      int  `json:"fame,omitempty" yaml:"fame" validate:"gte=0"`
	BasePower int  `json:"base_power,omitempty" yaml:"base_power" validate:"gte=0"`
	Gear      bool `json:"gear,omitempty" yaml:"gear"`
	Trophy    bool `json:"trophy,omitempty" yaml:"trophy"`
}

// NeedsSystem reports whether applying the reward requires a system choice.
func (r Reward) NeedsSystem() bool {
	return r.BasePower > 0 || r.Gear
}

func (r Reward) String() string {
	s := ""
	add := func(part string) {
		if s != "" {
			s += ", "
		}
		s += part
	}
	if r.Credits > 0 {
		add(fmt.Sprintf("+%d credits", r.Credits))
	}
	if r.Draw > 0 {
		add(fmt.Sprintf("draw %d", r.Draw))
	}
	if r.Fame > 0 {
		add(fmt.Sprintf("+%d fame", r.Fame))
	}
	if r.BasePower > 0 {
		add(fmt.Sprintf("+%d base power", r.BasePower))
	}
	if r.Gear {
		add("gear")
	}
	if r.Trophy {
		add("trophy")
	}
	if s == "" {
		return "nothing"
	}
	return s
}

// --- Instances ---

// CardInstance is a uniquely identified copy of a catalog card.
type CardInstance struct {
	ID  int    `json:"id"`
	Key string `json:"key"`
}

// MissionInstance is a uniquely identified mission on the track or held by a player.
type MissionInstance struct {
	ID       int    `json:"id"`
	Key      string `json:"key"`
	Revealed bool   `json:"revealed"`
}

func (ci *CardInstance) clone() *CardInstance {
	if ci == nil {
		return nil
	}
	c := *ci
	return &c
}

func (mi *MissionInstance) clone() *MissionInstance {
	if mi == nil {
		return nil
	}
	m := *mi
	return &m
}

func cloneCards(in []*CardInstance) []*CardInstance {
	if in == nil {
		return nil
	}
	out := make([]*CardInstance, len(in))
	for i, c := range in {
		out[i] = c.clone()
	}
	return out
}

func cloneMissions(in []*MissionInstance) []*MissionInstance {
	if in == nil {
		return nil
	}
	out := make([]*MissionInstance, len(in))
	for i, m := range in {
		out[i] = m.clone()
	}
	return out
}
