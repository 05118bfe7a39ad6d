package game

// abilityKind enumerates what a system ability does.
type abilityKind int

const (
	abilityHazard abilityKind = iota
	abilityDraw
	abilityScan
	abilityMove
	abilityCredits
)

type systemAbility struct {
	kind abilityKind
	cost int
	text string
}

const maxAbilities = 2

// abilities lists each system's activatable abilities by index.
var abilities = [SystemCount][]systemAbility{
	SystemWeapons:   {{abilityHazard, 3, "give a hazard to a target player"}},
	SystemComputers: {{abilityDraw, 2, "draw 1 card"}, {abilityScan, 3, "reveal the mission at the next location"}},
	SystemEngines:   {{abilityMove, 2, "+1 move"}},
	SystemLogistics: {{abilityCredits, 2, "+2 credits"}},
}

// AbilityInfo describes a system ability for presentation.
type AbilityInfo struct {
	System System `json:"system"`
	Index  int    `json:"index"`
	Cost   int    `json:"cost"`
	Text   string `json:"text"`
}

// Abilities lists every system ability.
func Abilities() []AbilityInfo {
	var out []AbilityInfo
	for _, s := range Systems {
		for i, ab := range abilities[s] {
			out = append(out, AbilityInfo{System: s, Index: i, Cost: ab.cost, Text: ab.text})
		}
	}
	return out
}

func (e *Engine) activateSystem(a GameAction) error {
	seat := e.state.CurrentPlayer
	p := e.state.Players[seat]
	if a.System == nil || !a.System.Valid() {
		return ErrInvalidSystem
	}
	sys := *a.System
	if a.Ability < 0 || a.Ability >= len(abilities[sys]) {
		return ErrInvalidAbility
	}
	ab := abilities[sys][a.Ability]
	if p.Turn.AbilitiesUsed[sys][a.Ability] {
		return ErrAbilityUsed
	}
	if p.Power.Get(sys) < ab.cost {
		return ErrInsufficientPower
	}

	// Validate ability-specific targets before paying.
	target := -1
	switch ab.kind {
	case abilityHazard:
		others := e.others(seat)
		switch {
		case len(others) == 0:
			return ErrNoTarget
		case a.Target != "":
			q, idx := e.state.PlayerByID(a.Target)
			if q == nil || idx == seat {
				return ErrInvalidTarget
			}
			target = idx
		case len(others) == 1:
			target = others[0]
		}
	case abilityScan:
		next := e.state.MissionAt(p.Location + 1)
		if next == nil || next.Revealed {
			return ErrNothingToReveal
		}
	}

	p.Power.Add(sys, -ab.cost)
	p.Turn.AbilitiesUsed[sys][a.Ability] = true
	e.logAction("%s activates %s: %s", p.Name, sys, ab.text)

	switch ab.kind {
	case abilityHazard:
		if target >= 0 {
			e.giveHazard(seat, target, sys.String())
		} else {
			e.state.Pending = &PendingAction{
				Kind:    PendingTargetPlayer,
				Player:  seat,
				Source:  sys.String(),
				Targets: e.playerIDs(e.others(seat)),
			}
		}
	case abilityDraw:
		e.drawCards(seat, 1)
	case abilityScan:
		e.flipMission(p.Location + 1)
	case abilityMove:
		p.Turn.MovesRemaining++
	case abilityCredits:
		p.Credits += 2
	}
	return nil
}
