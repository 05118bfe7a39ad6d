package game

import (
	"fmt"
	"strings"
)

// --- Enums ---

// enumText is shared text (un)marshalling for the closed enums below so that
// they read as names in YAML catalogs, JSON snapshots and the wire protocol.
func enumText(names []string, v int, kind string) ([]byte, error) {
	if v < 0 || v >= len(names) {
		return nil, fmt.Errorf("unknown %s %d", kind, v)
	}
	return []byte(names[v]), nil
}

func parseEnum(names []string, text []byte, kind string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i, name := range names {
		if name == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, text)
}

func enumName(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return "unknown"
	}
	return names[v]
}

// System is one of the four ship systems. Iteration always follows the
// declaration order.
type System int

const (
	SystemWeapons System = iota
	SystemComputers
	SystemEngines
	SystemLogistics

	SystemCount = 4
)

var systemNames = []string{"weapons", "computers", "engines", "logistics"}

// Systems lists every system in fixed order.
var Systems = [SystemCount]System{SystemWeapons, SystemComputers, SystemEngines, SystemLogistics}

func (s System) String() string               { return enumName(systemNames, int(s)) }
func (s System) MarshalText() ([]byte, error) { return enumText(systemNames, int(s), "system") }
func (s *System) UnmarshalText(b []byte) error {
	v, err := parseEnum(systemNames, b, "system")
	*s = System(v)
	return err
}

// Valid reports whether s names a real system.
func (s System) Valid() bool { return s >= 0 && s < SystemCount }

// ParseSystem parses a system name.
func ParseSystem(name string) (System, error) {
	var s System
	err := s.UnmarshalText([]byte(name))
	return s, err
}

// Phase is the turn phase of the game.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseInitial
	PhaseAction
	PhaseCleanup
	PhaseGameOver
)

var phaseNames = []string{"setup", "initial", "action", "cleanup", "game_over"}

func (p Phase) String() string               { return enumName(phaseNames, int(p)) }
func (p Phase) MarshalText() ([]byte, error) { return enumText(phaseNames, int(p), "phase") }
func (p *Phase) UnmarshalText(b []byte) error {
	v, err := parseEnum(phaseNames, b, "phase")
	*p = Phase(v)
	return err
}

// CardKind distinguishes starter cards, market action cards and hazards.
type CardKind int

const (
	CardStarter CardKind = iota
	CardAction
	CardHazard
)

var cardKindNames = []string{"starter", "action", "hazard"}

func (k CardKind) String() string               { return enumName(cardKindNames, int(k)) }
func (k CardKind) MarshalText() ([]byte, error) { return enumText(cardKindNames, int(k), "card kind") }
func (k *CardKind) UnmarshalText(b []byte) error {
	v, err := parseEnum(cardKindNames, b, "card kind")
	*k = CardKind(v)
	return err
}

// Zone groups track locations by depth.
type Zone int

const (
	ZoneNear Zone = iota
	ZoneMid
	ZoneDeep

	ZoneCount = 3
)

var zoneNames = []string{"near", "mid", "deep"}

func (z Zone) String() string               { return enumName(zoneNames, int(z)) }
func (z Zone) MarshalText() ([]byte, error) { return enumText(zoneNames, int(z), "zone") }
func (z *Zone) UnmarshalText(b []byte) error {
	v, err := parseEnum(zoneNames, b, "zone")
	*z = Zone(v)
	return err
}

// Restriction is the ongoing penalty a hazard imposes while it sits in hand.
type Restriction int

const (
	RestrictNone Restriction = iota
	RestrictOverloaded
	RestrictJammed
	RestrictLockdown
	RestrictStatic
)

var restrictionNames = []string{"none", "overloaded", "jammed", "lockdown", "static"}

func (r Restriction) String() string { return enumName(restrictionNames, int(r)) }
func (r Restriction) MarshalText() ([]byte, error) {
	return enumText(restrictionNames, int(r), "restriction")
}
func (r *Restriction) UnmarshalText(b []byte) error {
	v, err := parseEnum(restrictionNames, b, "restriction")
	*r = Restriction(v)
	return err
}

// ClearKind is the shape of the cost that removes a hazard from hand.
type ClearKind int

const (
	ClearCredits ClearKind = iota
	ClearPower
	ClearSpendAll
	ClearDistinctSystems
	ClearDiscard
)

var clearKindNames = []string{"credits", "power", "spend_all", "distinct_systems", "discard"}

func (c ClearKind) String() string               { return enumName(clearKindNames, int(c)) }
func (c ClearKind) MarshalText() ([]byte, error) { return enumText(clearKindNames, int(c), "clear kind") }
func (c *ClearKind) UnmarshalText(b []byte) error {
	v, err := parseEnum(clearKindNames, b, "clear kind")
	*c = ClearKind(v)
	return err
}

// Condition gates conditional fame on a played card.
type Condition int

const (
	ConditionMissions Condition = iota
	ConditionInstallations
	ConditionDeepZone
	ConditionNoHazards
	ConditionHazards
)

var conditionNames = []string{"missions", "installations", "deep_zone", "no_hazards", "hazards"}

func (c Condition) String() string               { return enumName(conditionNames, int(c)) }
func (c Condition) MarshalText() ([]byte, error) { return enumText(conditionNames, int(c), "condition") }
func (c *Condition) UnmarshalText(b []byte) error {
	v, err := parseEnum(conditionNames, b, "condition")
	*c = Condition(v)
	return err
}

// Trigger names the moments at which captains and trophies fire.
type Trigger int

const (
	TriggerNone Trigger = iota
	TriggerTurnStart
	TriggerGiveHazard
	TriggerReceiveHazard
	TriggerRevealHazard
	TriggerCompleteMission
)

var triggerNames = []string{"none", "turn_start", "give_hazard", "receive_hazard", "reveal_hazard", "complete_mission"}

func (t Trigger) String() string               { return enumName(triggerNames, int(t)) }
func (t Trigger) MarshalText() ([]byte, error) { return enumText(triggerNames, int(t), "trigger") }
func (t *Trigger) UnmarshalText(b []byte) error {
	v, err := parseEnum(triggerNames, b, "trigger")
	*t = Trigger(v)
	return err
}

// Captain is a player's fixed commander.
type Captain int

const (
	CaptainVanguard Captain = iota
	CaptainNavigator
	CaptainBroker
	CaptainSurvivor
	CaptainRaider
)

var captainNames = []string{"vanguard", "navigator", "broker", "survivor", "raider"}

func (c Captain) String() string               { return enumName(captainNames, int(c)) }
func (c Captain) MarshalText() ([]byte, error) { return enumText(captainNames, int(c), "captain") }
func (c *Captain) UnmarshalText(b []byte) error {
	v, err := parseEnum(captainNames, b, "captain")
	*c = Captain(v)
	return err
}

// ParseCaptain parses a captain name.
func ParseCaptain(name string) (Captain, error) {
	var c Captain
	err := c.UnmarshalText([]byte(name))
	return c, err
}

// --- Constants ---

const (
	MaxPower      = 10
	StartingPower = 1
	HandSize      = 5
	FameThreshold = 20
	PlayLimit     = 3

	MinPlayers = 1
	MaxPlayers = 4

	LocationCount   = 6
	StationCount    = 3
	Tier1Types      = 5
	Tier1Copies     = 4
	OverloadedLimit = 2
	ScoutDepth      = 3
)

// ZoneOf returns the zone a track location (1-based) belongs to.
func ZoneOf(location int) Zone {
	switch {
	case location <= 2:
		return ZoneNear
	case location <= 4:
		return ZoneMid
	default:
		return ZoneDeep
	}
}

// stationLocations maps station index to its track location.
var stationLocations = [StationCount]int{1, 3, 5}

// stackSizes maps station tier (1-based) to the stack size used when
// partitioning its pool. Tier 1 uses one stack per card type.
var stackSizes = [StationCount + 1]int{0, Tier1Copies, 4, 3}
