package game

// Market holds the three stations. Station i (0-based) sells tier i+1 at
// track location 1, 3 and 5.
type Market struct {
	Stations [StationCount]Station `json:"stations"`
}

// Station is one market location.
type Station struct {
	Tier     int      `json:"tier"`
	Location int      `json:"location"`
	Stacks   []*Stack `json:"stacks"`
}

// Stack is a pile of market cards. The top card is the last element.
// Revealed never reverts to false once set.
type Stack struct {
	Cards    []*CardInstance `json:"cards"`
	Revealed bool            `json:"revealed"`
}

// Top returns the top card of the stack, or nil.
func (s *Stack) Top() *CardInstance {
	if len(s.Cards) == 0 {
		return nil
	}
	return s.Cards[len(s.Cards)-1]
}

func (m Market) clone() Market {
	var c Market
	for i, st := range m.Stations {
		c.Stations[i] = Station{Tier: st.Tier, Location: st.Location}
		if st.Stacks != nil {
			c.Stations[i].Stacks = make([]*Stack, len(st.Stacks))
			for j, s := range st.Stacks {
				c.Stations[i].Stacks[j] = &Stack{Cards: cloneCards(s.Cards), Revealed: s.Revealed}
			}
		}
	}
	return c
}

// setupMarket builds the three stations from the catalog.
func (e *Engine) setupMarket() {
	m := &e.state.Market
	for i := range m.Stations {
		m.Stations[i] = Station{Tier: i + 1, Location: stationLocations[i]}
	}

	// Tier 1: five distinct types, four copies each, always face up.
	pool := e.catalog.Tier(1)
	order := make([]int, len(pool))
	for i := range order {
		order[i] = i
	}
	e.shuffleInts(order)
	for _, idx := range order[:Tier1Types] {
		card := pool[idx]
		stack := &Stack{Revealed: true}
		for range Tier1Copies {
			stack.Cards = append(stack.Cards, e.newCard(card.Key))
		}
		m.Stations[0].Stacks = append(m.Stations[0].Stacks, stack)
	}

	// Tiers 2 and 3: expand by copies, shuffle, partition, all face down.
	for tier := 2; tier <= StationCount; tier++ {
		var cards []*CardInstance
		for _, card := range e.catalog.Tier(tier) {
			for range max(card.Copies, 1) {
				cards = append(cards, e.newCard(card.Key))
			}
		}
		e.shuffleCards(cards)
		size := stackSizes[tier]
		for start := 0; start < len(cards); start += size {
			end := min(start+size, len(cards))
			m.Stations[tier-1].Stacks = append(m.Stations[tier-1].Stacks, &Stack{Cards: cards[start:end:end]})
		}
	}
}

// station validates a 1-based station number and returns it.
func (e *Engine) station(n int) (*Station, error) {
	if n < 1 || n > StationCount {
		return nil, ErrInvalidStation
	}
	return &e.state.Market.Stations[n-1], nil
}

func (st *Station) stack(i int) (*Stack, error) {
	if i < 0 || i >= len(st.Stacks) {
		return nil, ErrInvalidStack
	}
	return st.Stacks[i], nil
}

// purchase is a validated pending buy: the card position and its cost.
type purchase struct {
	stack *Stack
	index int
	card  *Card
	cost  int
}

// preparePurchase validates a buy without mutating anything.
func (e *Engine) preparePurchase(p *Player, stationNum, stackIdx int, cardIndex *int) (purchase, error) {
	if e.restricted(p, RestrictLockdown) {
		return purchase{}, ErrRestricted
	}
	st, err := e.station(stationNum)
	if err != nil {
		return purchase{}, err
	}
	if p.Location != st.Location {
		return purchase{}, ErrNotAtStation
	}
	stack, err := st.stack(stackIdx)
	if err != nil {
		return purchase{}, err
	}
	if !stack.Revealed {
		return purchase{}, ErrStackHidden
	}
	if len(stack.Cards) == 0 {
		return purchase{}, ErrStackEmpty
	}
	idx := len(stack.Cards) - 1
	if cardIndex != nil {
		idx = *cardIndex
		if idx < 0 || idx >= len(stack.Cards) {
			return purchase{}, ErrCardNotFound
		}
	}
	card := e.cardDef(stack.Cards[idx])
	return purchase{
		stack: stack,
		index: idx,
		card:  card,
		cost:  max(0, card.Cost-p.Turn.BuyDiscount),
	}, nil
}

// take removes the purchased card from its stack.
func (pu purchase) take() *CardInstance {
	var c *CardInstance
	pu.stack.Cards, c = removeAt(pu.stack.Cards, pu.index)
	return c
}

func (e *Engine) buyCard(a GameAction) error {
	p := e.state.Current()
	pu, err := e.preparePurchase(p, a.Station, a.Stack, a.CardIndex)
	if err != nil {
		return err
	}
	if p.Credits < pu.cost {
		return ErrInsufficientCredits
	}

	p.Credits -= pu.cost
	p.Turn.BuyDiscount = 0
	c := pu.take()
	p.Discard = append(p.Discard, c)
	e.state.HasRevealedInfo = true
	e.logAction("%s buys %s for %d credits", p.Name, pu.card.Name, pu.cost)
	return nil
}

func (e *Engine) buyAndInstall(a GameAction) error {
	p := e.state.Current()
	if a.System == nil || !a.System.Valid() {
		return ErrInvalidSystem
	}
	pu, err := e.preparePurchase(p, a.Station, a.Stack, a.CardIndex)
	if err != nil {
		return err
	}
	if !pu.card.Installable {
		return ErrNotInstallable
	}
	installCost := max(0, pu.card.InstallCost-p.Turn.InstallDiscount)
	if p.Credits < pu.cost+installCost {
		return ErrInsufficientCredits
	}

	p.Credits -= pu.cost + installCost
	p.Turn.BuyDiscount = 0
	c := pu.take()
	e.state.HasRevealedInfo = true
	e.logAction("%s buys %s for %d credits", p.Name, pu.card.Name, pu.cost)
	e.install(p, c, *a.System, installCost)
	return nil
}

func (e *Engine) revealStack(a GameAction) error {
	p := e.state.Current()
	st, err := e.station(a.Station)
	if err != nil {
		return err
	}
	if st.Tier == 1 {
		return ErrAlreadyRevealed
	}
	if p.Location != st.Location {
		return ErrNotAtStation
	}
	stack, err := st.stack(a.Stack)
	if err != nil {
		return err
	}
	if stack.Revealed {
		return ErrAlreadyRevealed
	}
	if p.Turn.RevealedTier[st.Tier-1] {
		return ErrRevealLimit
	}

	stack.Revealed = true
	p.Turn.RevealedTier[st.Tier-1] = true
	e.state.HasRevealedInfo = true
	top := "empty"
	if c := stack.Top(); c != nil {
		top = e.cardDef(c).Name
	}
	e.logAction("%s reveals tier %d stack %d (top: %s)", p.Name, st.Tier, a.Stack+1, top)
	return nil
}
