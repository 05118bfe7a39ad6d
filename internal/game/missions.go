package game

// setupTrack shuffles the zone pools and deals one mission per location.
// Location 1 starts revealed.
func (e *Engine) setupTrack() {
	for z := range ZoneCount {
		var pool []*MissionInstance
		for _, m := range e.catalog.InZone(Zone(z)) {
			pool = append(pool, &MissionInstance{ID: e.nextID(), Key: m.Key})
		}
		e.shuffleMissions(pool)
		e.state.Pools[z] = pool
	}
	for loc := 1; loc <= LocationCount; loc++ {
		mi := e.drawMission(ZoneOf(loc))
		if mi == nil {
			e.logInfo("no mission available for location %d", loc)
			continue
		}
		mi.Revealed = loc == 1
		e.state.Track[loc-1] = mi
	}
}

// drawMission pops the top of a zone pool, or nil when it is exhausted.
func (e *Engine) drawMission(z Zone) *MissionInstance {
	pool := e.state.Pools[z]
	if len(pool) == 0 {
		return nil
	}
	mi := pool[len(pool)-1]
	e.state.Pools[z] = pool[:len(pool)-1]
	return mi
}

func (e *Engine) missionDef(mi *MissionInstance) *Mission {
	if m, ok := e.catalog.Mission(mi.Key); ok {
		return m
	}
	return &Mission{Key: mi.Key, Name: mi.Key}
}

// flipMission reveals a hidden mission and latches hasRevealedInfo.
func (e *Engine) flipMission(location int) {
	mi := e.state.MissionAt(location)
	if mi == nil || mi.Revealed {
		return
	}
	mi.Revealed = true
	e.state.HasRevealedInfo = true
	e.logInfo("mission at location %d revealed: %s", location, e.missionDef(mi).Name)
}

// moveTo places a player on a location and flips any hidden mission there.
func (e *Engine) moveTo(p *Player, location int) {
	p.Location = location
	e.flipMission(location)
}

func (e *Engine) move(a GameAction) error {
	p := e.state.Current()
	if a.Direction != 1 && a.Direction != -1 {
		return ErrInvalidDirection
	}
	if e.restricted(p, RestrictJammed) {
		return ErrRestricted
	}
	dest := p.Location + a.Direction
	if dest < 1 || dest > LocationCount {
		return ErrOffTrack
	}
	if p.Turn.MovesRemaining == 0 && p.Power.Engines < 1 {
		return ErrInsufficientPower
	}

	if p.Turn.MovesRemaining > 0 {
		p.Turn.MovesRemaining--
	} else {
		p.Power.Add(SystemEngines, -1)
	}
	e.logAction("%s moves to location %d", p.Name, dest)
	e.moveTo(p, dest)
	return nil
}

// missionPayment spends the mission discount greedily across systems in
// fixed order and returns the power still owed.
func missionPayment(req PowerState, discount int) PowerState {
	var pay PowerState
	for _, s := range Systems {
		need := req.Get(s)
		d := min(discount, need)
		discount -= d
		pay.Set(s, need-d)
	}
	return pay
}

func (e *Engine) completeMission(GameAction) error {
	seat := e.state.CurrentPlayer
	p := e.state.Players[seat]
	if e.restricted(p, RestrictStatic) {
		return ErrRestricted
	}
	mi := e.state.MissionAt(p.Location)
	if mi == nil {
		return ErrNoMission
	}
	if !mi.Revealed {
		return ErrMissionHidden
	}
	m := e.missionDef(mi)
	pay := missionPayment(m.Requires, p.Turn.MissionDiscount)
	if !p.Power.Covers(pay) {
		return ErrInsufficientPower
	}

	for _, s := range Systems {
		p.Power.Add(s, -pay.Get(s))
	}
	p.Turn.MissionDiscount = 0
	p.Fame += m.Fame
	p.Missions = append(p.Missions, mi)
	e.state.Track[p.Location-1] = nil
	e.state.Replacements = append(e.state.Replacements, Replacement{Location: p.Location, Owner: seat})
	e.logReward("%s completes %s for %d fame", p.Name, m.Name, m.Fame)
	e.fireTrigger(seat, TriggerCompleteMission)

	switch len(m.Rewards) {
	case 0:
	case 1:
		r := m.Rewards[0]
		if r.NeedsSystem() {
			e.state.Pending = &PendingAction{
				Kind:       PendingMissionReward,
				Player:     seat,
				Source:     m.Name,
				Reward:     &r,
				MissionID:  mi.ID,
				MissionKey: mi.Key,
			}
			return nil
		}
		e.applyReward(seat, mi.ID, mi.Key, r, SystemWeapons)
	default:
		e.state.Pending = &PendingAction{
			Kind:       PendingMissionRewardChoice,
			Player:     seat,
			Source:     m.Name,
			Options:    append([]Reward(nil), m.Rewards...),
			MissionID:  mi.ID,
			MissionKey: mi.Key,
		}
	}
	return nil
}

// applyReward pays out one reward bundle. sys is only read when the bundle
// needs a system.
func (e *Engine) applyReward(seat, missionID int, missionKey string, r Reward, sys System) {
	p := e.state.Players[seat]
	var held *MissionInstance
	for _, mi := range p.Missions {
		if mi.ID == missionID {
			held = mi
		}
	}
	if held == nil {
		held = &MissionInstance{ID: missionID, Key: missionKey, Revealed: true}
	}
	name := e.missionDef(held).Name

	p.Credits += r.Credits
	p.Fame += r.Fame
	if r.Draw > 0 {
		e.drawCards(seat, r.Draw)
	}
	if r.BasePower > 0 {
		p.BasePower.Add(sys, r.BasePower)
		p.Power.Add(sys, r.BasePower)
	}
	if r.Gear {
		if old := p.Gear[sys]; old != nil {
			e.logInfo("%s replaces %s gear %s", p.Name, sys, e.missionDef(old).Name)
		}
		p.Gear[sys] = held
	}
	if r.Trophy {
		p.Trophies = append(p.Trophies, held)
	}
	e.logReward("%s takes reward from %s: %s", p.Name, name, r)
}

// fillReplacements refills the slots the player emptied this turn.
func (e *Engine) fillReplacements(seat int) {
	var keep []Replacement
	for _, r := range e.state.Replacements {
		if r.Owner != seat {
			keep = append(keep, r)
			continue
		}
		if e.state.MissionAt(r.Location) != nil {
			continue
		}
		mi := e.drawMission(ZoneOf(r.Location))
		if mi == nil {
			e.logInfo("%s pool is empty; location %d stays empty", ZoneOf(r.Location), r.Location)
			continue
		}
		mi.Revealed = true
		e.state.Track[r.Location-1] = mi
		e.logInfo("new mission at location %d: %s", r.Location, e.missionDef(mi).Name)
	}
	e.state.Replacements = keep
}
