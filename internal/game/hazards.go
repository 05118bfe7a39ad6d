package game

import (
	"cmp"
	"slices"
)

// others returns the seat indices of every player except seat, in seat order
// starting after it.
func (e *Engine) others(seat int) []int {
	n := len(e.state.Players)
	var out []int
	for i := 1; i < n; i++ {
		out = append(out, (seat+i)%n)
	}
	return out
}

func (e *Engine) playerIDs(seats []int) []string {
	ids := make([]string, len(seats))
	for i, s := range seats {
		ids[i] = e.state.Players[s].ID
	}
	return ids
}

func (e *Engine) seatOf(p *Player) int {
	for i, q := range e.state.Players {
		if q == p {
			return i
		}
	}
	return -1
}

// hazardSpec returns the hazard definition of a card, or nil.
func (e *Engine) hazardSpec(c *CardInstance) *HazardSpec {
	card := e.cardDef(c)
	if card.Kind != CardHazard {
		return nil
	}
	return card.Hazard
}

// restricted reports whether an active hazard (one in hand) imposes r.
func (e *Engine) restricted(p *Player, r Restriction) bool {
	for _, c := range p.Hand {
		if h := e.hazardSpec(c); h != nil && h.Restriction == r {
			return true
		}
	}
	return false
}

// activeHazards counts hazards in hand.
func (e *Engine) activeHazards(p *Player) int {
	n := 0
	for _, c := range p.Hand {
		if e.hazardSpec(c) != nil {
			n++
		}
	}
	return n
}

// CountHazards counts hazard instances across a player's deck, hand, discard
// and played piles.
func (e *Engine) CountHazards(p *Player) int {
	n := 0
	for _, pile := range [][]*CardInstance{p.Deck, p.Hand, p.Discard, p.Played} {
		for _, c := range pile {
			if e.hazardSpec(c) != nil {
				n++
			}
		}
	}
	return n
}

// giveHazard moves the top of the shared hazard deck into the target's
// discard pile and fires reactions and triggers.
func (e *Engine) giveHazard(from, to int, source string) {
	giver, target := e.state.Players[from], e.state.Players[to]
	deck := e.state.HazardDeck
	if len(deck) == 0 {
		e.logInfo("hazard deck is empty; %s receives nothing", target.Name)
		return
	}
	h := deck[len(deck)-1]
	e.state.HazardDeck = deck[:len(deck)-1]
	target.Discard = append(target.Discard, h)
	target.Hazards++
	e.logHazard("%s gives %s to %s (%s)", giver.Name, e.cardDef(h).Name, target.Name, source)

	for _, c := range target.Hand {
		if b := e.cardDef(c).OnReceiveHazard; b != nil {
			e.logReward("%s reacts with %s", target.Name, e.cardDef(c).Name)
			e.applyBonus(to, *b, -1)
		}
	}
	e.fireTrigger(to, TriggerReceiveHazard)
	e.fireTrigger(from, TriggerGiveHazard)
}

// revealHazards applies the reveal effect of every hazard in the current
// player's hand and returns their IDs.
func (e *Engine) revealHazards() []int {
	seat := e.state.CurrentPlayer
	p := e.state.Players[seat]
	var ids []int
	for _, c := range p.Hand {
		h := e.hazardSpec(c)
		if h == nil {
			continue
		}
		ids = append(ids, c.ID)
		e.logHazard("%s reveals %s", p.Name, e.cardDef(c).Name)
		if h.Drain != nil {
			lost := -p.Power.Add(h.Drain.System, -h.Drain.Amount)
			if lost > 0 {
				e.logHazard("%s loses %d %s power", p.Name, lost, h.Drain.System)
			}
		}
		e.fireTrigger(seat, TriggerRevealHazard)
	}
	return ids
}

// clearPayment is a validated clear cost: power per system, credits and
// cards to discard.
type clearPayment struct {
	power   PowerState
	credits int
	discard []int
	zeroOut *System
}

func (e *Engine) prepareClear(p *Player, hazardID int, cost ClearCost) (clearPayment, error) {
	var pay clearPayment
	switch cost.Kind {
	case ClearCredits:
		if p.Credits < cost.Amount {
			return pay, ErrInsufficientCredits
		}
		pay.credits = cost.Amount
	case ClearPower:
		if p.Power.Get(cost.System) < cost.Amount {
			return pay, ErrInsufficientPower
		}
		pay.power.Set(cost.System, cost.Amount)
	case ClearSpendAll:
		if p.Power.Get(cost.System) < cost.Min {
			return pay, ErrInsufficientPower
		}
		sys := cost.System
		pay.zeroOut = &sys
	case ClearDistinctSystems:
		// Largest pools pay first; ties keep fixed system order.
		order := slices.Clone(Systems[:])
		slices.SortStableFunc(order, func(a, b System) int {
			return cmp.Compare(p.Power.Get(b), p.Power.Get(a))
		})
		for _, s := range order {
			if pay.power.Total() == cost.Amount {
				break
			}
			if p.Power.Get(s) > 0 {
				pay.power.Set(s, 1)
			}
		}
		if pay.power.Total() < cost.Amount {
			return pay, ErrInsufficientPower
		}
	case ClearDiscard:
		for _, c := range p.Hand {
			if len(pay.discard) == cost.Amount {
				break
			}
			if c.ID != hazardID && e.hazardSpec(c) == nil {
				pay.discard = append(pay.discard, c.ID)
			}
		}
		if len(pay.discard) < cost.Amount {
			return pay, ErrInsufficientCards
		}
	}
	return pay, nil
}

func (e *Engine) clearHazard(a GameAction) error {
	seat := e.state.CurrentPlayer
	p := e.state.Players[seat]
	i := findCard(p.Hand, a.HazardID)
	if i < 0 {
		return ErrCardNotFound
	}
	h := e.hazardSpec(p.Hand[i])
	if h == nil {
		return ErrNotHazard
	}
	pay, err := e.prepareClear(p, a.HazardID, h.Clear)
	if err != nil {
		return err
	}

	p.Credits -= pay.credits
	for _, s := range Systems {
		p.Power.Add(s, -pay.power.Get(s))
	}
	if pay.zeroOut != nil {
		p.Power.Set(*pay.zeroOut, 0)
	}
	for _, id := range pay.discard {
		if c := removeCard(&p.Hand, id); c != nil {
			p.Discard = append(p.Discard, c)
		}
	}
	hz := removeCard(&p.Hand, a.HazardID)
	p.Hazards--
	name := e.cardDef(hz).Name
	e.logHazard("%s clears %s (%s)", p.Name, name, h.Clear)

	if !h.PassOnClear {
		e.state.HazardDeck = append([]*CardInstance{hz}, e.state.HazardDeck...)
		return nil
	}
	// Passed hazards return to the top of the deck and go straight back out.
	e.state.HazardDeck = append(e.state.HazardDeck, hz)
	others := e.others(seat)
	switch len(others) {
	case 0:
	case 1:
		e.giveHazard(seat, others[0], name)
	default:
		e.state.Pending = &PendingAction{
			Kind:    PendingTargetPlayer,
			Player:  seat,
			Source:  name,
			Targets: e.playerIDs(others),
		}
	}
	return nil
}
