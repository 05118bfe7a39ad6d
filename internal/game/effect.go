package game

import "slices"

// effectStep is the resolution order of a card effect.
type effectStep int

const (
	stepDirectPower effectStep = iota
	stepAllocation
	stepMovement
	stepDraw
	stepScout
	stepDiscounts
	stepExtraPlays
	stepConsume
	stepTrash
	stepDeferredPower
	stepDeferredAllocation
	stepPerInstallation
	stepConditionalFame
	stepExtraTurn
	stepReplay
	stepGroupHazard
	stepTargetHazard
	stepDone
)

// EffectFrame is a card effect partway through resolution. Frames are plain
// data so a suspended resolution survives snapshots and network resync.
type EffectFrame struct {
	Player     int         `json:"player"`
	CardID     int         `json:"card_id"`
	CardKey    string      `json:"card_key"`
	Step       effectStep  `json:"step"`
	Allocation *PowerState `json:"allocation,omitempty"`
	Installed  bool        `json:"installed,omitempty"`
	Depth      int         `json:"depth,omitempty"`
}

func cloneFrames(in []EffectFrame) []EffectFrame {
	out := slices.Clone(in)
	for i, f := range out {
		if f.Allocation != nil {
			a := *f.Allocation
			out[i].Allocation = &a
		}
	}
	return out
}

// stepOutcome tells runFrames how to continue after a step.
type stepOutcome struct {
	halt bool
	push *EffectFrame
}

func (e *Engine) effectOf(f *EffectFrame) Effect {
	card, ok := e.catalog.Card(f.CardKey)
	if !ok {
		return Effect{}
	}
	if f.Installed {
		if card.OnInstall == nil {
			return Effect{}
		}
		return *card.OnInstall
	}
	return card.Effect
}

// runFrames resolves frames in order until they finish or a step raises a
// pending action. A halted resolution is stored on the pending action.
func (e *Engine) runFrames(frames []EffectFrame) {
	frames = cloneFrames(frames)
outer:
	for len(frames) > 0 {
		f := &frames[0]
		for f.Step < stepDone {
			step := f.Step
			f.Step++
			out := e.applyStep(f, step)
			if out.halt {
				e.state.Pending.Resume = cloneFrames(frames)
				return
			}
			if out.push != nil {
				frames = append([]EffectFrame{*out.push}, frames...)
				continue outer
			}
		}
		frames = frames[1:]
	}
}

func (e *Engine) applyStep(f *EffectFrame, step effectStep) stepOutcome {
	eff := e.effectOf(f)
	p := e.state.Players[f.Player]
	source := e.cardName(f.CardKey)

	switch step {
	case stepDirectPower:
		if eff.Credits > 0 {
			p.Credits += eff.Credits
		}
		if !eff.Trash {
			p.Power.AddAll(eff.Power)
		}

	case stepAllocation:
		if eff.PowerChoice > 0 && !eff.Trash {
			return e.allocateOrAsk(f, p, eff.PowerChoice, source)
		}

	case stepMovement:
		p.Turn.MovesRemaining += eff.Moves

	case stepDraw:
		if eff.Draw > 0 {
			e.drawCards(f.Player, eff.Draw)
		}

	case stepScout:
		if !eff.Scout {
			break
		}
		if len(p.Deck) == 0 {
			e.reshuffle(f.Player)
		}
		n := min(ScoutDepth, len(p.Deck))
		if n == 0 {
			e.logInfo("%s has no cards to scout", p.Name)
			break
		}
		var ids []int
		for _, c := range p.Deck[len(p.Deck)-n:] {
			ids = append(ids, c.ID)
		}
		slices.Reverse(ids)
		e.state.Pending = &PendingAction{Kind: PendingScout, Player: f.Player, Source: source, Candidates: ids}
		return stepOutcome{halt: true}

	case stepDiscounts:
		p.Turn.BuyDiscount += eff.BuyDiscount
		p.Turn.InstallDiscount += eff.InstallDiscount
		p.Turn.MissionDiscount += eff.MissionDiscount

	case stepExtraPlays:
		p.Turn.ExtraPlays += eff.ExtraPlays

	case stepConsume:
		if eff.OneTimeUse && !f.Installed {
			if removeCard(&p.Played, f.CardID) != nil {
				e.logAction("%s is consumed", source)
			}
		}

	case stepTrash:
		if !eff.Trash {
			break
		}
		var ids []int
		for _, c := range p.Hand {
			if e.cardDef(c).Kind != CardHazard {
				ids = append(ids, c.ID)
			}
		}
		if len(ids) == 0 {
			e.logInfo("%s has nothing to trash", p.Name)
			break
		}
		e.state.Pending = &PendingAction{Kind: PendingTrashCard, Player: f.Player, Source: source, Candidates: ids}
		return stepOutcome{halt: true}

	case stepDeferredPower:
		if eff.Trash {
			p.Power.AddAll(eff.Power)
		}

	case stepDeferredAllocation:
		if eff.Trash && eff.PowerChoice > 0 {
			return e.allocateOrAsk(f, p, eff.PowerChoice, source)
		}

	case stepPerInstallation:
		if eff.PowerPerInstallation > 0 {
			for _, s := range Systems {
				if p.Installations[s] != nil {
					p.Power.Add(s, eff.PowerPerInstallation)
				}
			}
		}

	case stepConditionalFame:
		for _, cf := range eff.FameIf {
			if e.conditionHolds(p, cf.If) {
				p.Fame += cf.Fame
				e.logReward("%s gains %d fame (%s)", p.Name, cf.Fame, cf.If)
			}
		}

	case stepExtraTurn:
		if eff.ExtraTurn && !p.Turn.ExtraTurn {
			p.Turn.ExtraTurn = true
			e.logAction("%s will take an extra turn", p.Name)
		}

	case stepReplay:
		if !eff.ReplayDiscard || f.Depth > 0 {
			break
		}
		for i := len(p.Discard) - 1; i >= 0; i-- {
			c := p.Discard[i]
			if e.cardDef(c).Kind == CardHazard {
				continue
			}
			p.Discard, c = removeAt(p.Discard, i)
			p.Played = append(p.Played, c)
			e.logAction("%s replays %s from discard", p.Name, e.cardDef(c).Name)
			return stepOutcome{push: &EffectFrame{Player: f.Player, CardID: c.ID, CardKey: c.Key, Depth: f.Depth + 1}}
		}
		e.logInfo("%s has nothing to replay", p.Name)

	case stepGroupHazard:
		if eff.HazardAll {
			for _, other := range e.others(f.Player) {
				e.giveHazard(f.Player, other, source)
			}
		}

	case stepTargetHazard:
		if !eff.HazardTarget {
			break
		}
		others := e.others(f.Player)
		switch len(others) {
		case 0:
			e.logInfo("no player to target")
		case 1:
			e.giveHazard(f.Player, others[0], source)
			if eff.MoveOther {
				e.state.Pending = &PendingAction{
					Kind:   PendingMoveOther,
					Player: f.Player,
					Source: source,
					Target: e.state.Players[others[0]].ID,
				}
				return stepOutcome{halt: true}
			}
		default:
			e.state.Pending = &PendingAction{
				Kind:      PendingTargetPlayer,
				Player:    f.Player,
				Source:    source,
				Targets:   e.playerIDs(others),
				ChainMove: eff.MoveOther,
			}
			return stepOutcome{halt: true}
		}
	}
	return stepOutcome{}
}

// allocateOrAsk applies the frame's allocation or raises a power-allocation
// pending action when the play carried none.
func (e *Engine) allocateOrAsk(f *EffectFrame, p *Player, amount int, source string) stepOutcome {
	if f.Allocation != nil {
		e.allocatePower(p, *f.Allocation, source)
		f.Allocation = nil
		return stepOutcome{}
	}
	e.state.Pending = &PendingAction{Kind: PendingPowerAllocation, Player: f.Player, Source: source, Amount: amount}
	return stepOutcome{halt: true}
}

// allocatePower adds a player-chosen allocation. An active overloaded hazard
// caps the total; overflow above MaxPower spills to other systems.
func (e *Engine) allocatePower(p *Player, alloc PowerState, source string) {
	if e.restricted(p, RestrictOverloaded) {
		scaled := scaleAllocation(alloc, OverloadedLimit)
		if scaled != alloc {
			e.logHazard("%s is overloaded: %s allocation capped at %d", p.Name, source, OverloadedLimit)
		}
		alloc = scaled
	}
	for _, s := range Systems {
		if v := alloc.Get(s); v > 0 {
			p.Power.addOverflow(s, v)
		}
	}
}

func (e *Engine) conditionHolds(p *Player, c Condition) bool {
	switch c {
	case ConditionMissions:
		return len(p.Missions) >= 3
	case ConditionInstallations:
		return p.InstallationCount() >= 2
	case ConditionDeepZone:
		return ZoneOf(p.Location) == ZoneDeep
	case ConditionNoHazards:
		return e.activeHazards(p) == 0
	case ConditionHazards:
		return p.Hazards >= 2
	}
	return false
}

func (e *Engine) playCard(a GameAction) error {
	p := e.state.Current()
	i := findCard(p.Hand, a.CardID)
	if i < 0 {
		return ErrCardNotFound
	}
	card := e.cardDef(p.Hand[i])
	if card.Kind == CardHazard {
		return ErrCardNotPlayable
	}
	if p.PlaysLeft() == 0 {
		return ErrPlayLimit
	}
	if a.Allocation != nil {
		if card.Effect.PowerChoice == 0 || a.Allocation.hasNegative() || a.Allocation.Total() != card.Effect.PowerChoice {
			return ErrInvalidAllocation
		}
	}

	var c *CardInstance
	p.Hand, c = removeAt(p.Hand, i)
	p.Played = append(p.Played, c)
	p.Turn.CardsPlayed++
	e.logAction("%s plays %s", p.Name, card.Name)

	frame := EffectFrame{Player: e.state.CurrentPlayer, CardID: c.ID, CardKey: c.Key}
	if a.Allocation != nil {
		alloc := *a.Allocation
		frame.Allocation = &alloc
	}
	e.runFrames([]EffectFrame{frame})
	return nil
}

func (e *Engine) installCard(a GameAction) error {
	p := e.state.Current()
	if a.System == nil || !a.System.Valid() {
		return ErrInvalidSystem
	}
	i := findCard(p.Hand, a.CardID)
	if i < 0 {
		return ErrCardNotFound
	}
	card := e.cardDef(p.Hand[i])
	if !card.Installable {
		return ErrNotInstallable
	}
	cost := max(0, card.InstallCost-p.Turn.InstallDiscount)
	if p.Credits < cost {
		return ErrInsufficientCredits
	}

	var c *CardInstance
	p.Hand, c = removeAt(p.Hand, i)
	p.Credits -= cost
	e.install(p, c, *a.System, cost)
	return nil
}

// install places a paid-for card into a system slot, discarding the previous
// installation, and resolves its install effect.
func (e *Engine) install(p *Player, c *CardInstance, sys System, cost int) {
	p.Turn.InstallDiscount = 0
	if old := p.Installations[sys]; old != nil {
		p.Discard = append(p.Discard, old)
		e.logAction("%s discards installed %s", p.Name, e.cardDef(old).Name)
	}
	p.Installations[sys] = c
	card := e.cardDef(c)
	e.logAction("%s installs %s into %s for %d credits", p.Name, card.Name, sys, cost)
	if card.OnInstall != nil {
		e.runFrames([]EffectFrame{{Player: e.seatOf(p), CardID: c.ID, CardKey: c.Key, Installed: true}})
	}
}
