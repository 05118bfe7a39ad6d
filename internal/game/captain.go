package game

// captainAbility is a captain's fixed trigger and the bonus it grants.
type captainAbility struct {
	Trigger Trigger
	Bonus   Bonus
	Text    string
}

var captains = map[Captain]captainAbility{
	CaptainVanguard:  {TriggerTurnStart, Bonus{Power: PowerState{Weapons: 1}}, "+1 weapons at turn start"},
	CaptainNavigator: {TriggerTurnStart, Bonus{Moves: 1}, "+1 move at turn start"},
	CaptainBroker:    {TriggerTurnStart, Bonus{BuyDiscount: 1}, "+1 buy discount at turn start"},
	CaptainSurvivor:  {TriggerRevealHazard, Bonus{Credits: 1}, "+1 credit per revealed hazard"},
	CaptainRaider:    {TriggerGiveHazard, Bonus{Fame: 1}, "+1 fame when giving a hazard"},
}

// Describe returns the captain's rules text.
func (c Captain) Describe() string {
	return captains[c].Text
}

// fireTrigger applies the captain and trophy bonuses bound to t.
func (e *Engine) fireTrigger(seat int, t Trigger) {
	p := e.state.Players[seat]
	if ab, ok := captains[p.Captain]; ok && ab.Trigger == t {
		e.applyBonus(seat, ab.Bonus, -1)
		e.logReward("%s's captain (%s): %s", p.Name, p.Captain, ab.Text)
	}
	for _, mi := range p.Trophies {
		m, ok := e.catalog.Mission(mi.Key)
		if !ok || m.Trigger != t || m.TriggerBonus.IsZero() {
			continue
		}
		e.applyBonus(seat, m.TriggerBonus, -1)
		e.logReward("%s's trophy %s triggers", p.Name, m.Name)
	}
}

// applyBonus grants a flat bonus. slot is the system for SlotPower, or -1.
func (e *Engine) applyBonus(seat int, b Bonus, slot System) {
	p := e.state.Players[seat]
	p.Credits += b.Credits
	p.Fame += b.Fame
	p.Turn.MovesRemaining += b.Moves
	p.Turn.BuyDiscount += b.BuyDiscount
	p.Turn.MissionDiscount += b.MissionDiscount
	p.Power.AddAll(b.Power)
	if b.SlotPower > 0 && slot.Valid() {
		p.Power.Add(slot, b.SlotPower)
	}
	if b.Draw > 0 {
		e.drawCards(seat, b.Draw)
	}
}

// applyPassives grants installation, gear and trophy passives at turn start.
func (e *Engine) applyPassives(seat int) {
	p := e.state.Players[seat]
	for _, s := range Systems {
		if c := p.Installations[s]; c != nil {
			if b := e.cardDef(c).Passive; !b.IsZero() {
				e.applyBonus(seat, b, s)
				e.logReward("%s's %s installation: %s", p.Name, s, e.cardDef(c).Name)
			}
		}
		if mi := p.Gear[s]; mi != nil {
			if m, ok := e.catalog.Mission(mi.Key); ok && !m.Passive.IsZero() {
				e.applyBonus(seat, m.Passive, s)
				e.logReward("%s's %s gear: %s", p.Name, s, m.Name)
			}
		}
	}
	for _, mi := range p.Trophies {
		if m, ok := e.catalog.Mission(mi.Key); ok && !m.Passive.IsZero() {
			e.applyBonus(seat, m.Passive, -1)
			e.logReward("%s's trophy: %s", p.Name, m.Name)
		}
	}
}
