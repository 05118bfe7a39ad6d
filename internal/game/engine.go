package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/peterkuimelis/starwake/internal/log"
)

// PlayerSpec seats one player.
type PlayerSpec struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Captain Captain `json:"captain"`
}

// Config holds configuration for creating a new game.
type Config struct {
	GameID    string
	Players   []PlayerSpec
	Catalog   *Catalog // nil uses DefaultCatalog
	Sink      log.Sink // receives a copy of every log entry
	Seed      int64    // RNG seed (0 for random)
	NoShuffle bool     // skip shuffles (for deterministic tests)
}

// Engine owns one GameState and is its only writer. It is not safe for
// concurrent use; callers serialize Dispatch.
type Engine struct {
	state     *GameState
	catalog   *Catalog
	sink      log.Sink
	rng       *rand.Rand
	noShuffle bool
	lastErr   error
}

// NewEngine sets up a game and runs the first player's initial phase.
func NewEngine(cfg Config) (*Engine, error) {
	if n := len(cfg.Players); n < MinPlayers || n > MaxPlayers {
		return nil, fmt.Errorf("need %d-%d players, got %d", MinPlayers, MaxPlayers, n)
	}
	seen := make(map[string]bool, len(cfg.Players))
	for _, ps := range cfg.Players {
		if ps.ID == "" {
			return nil, errors.New("player id is required")
		}
		if seen[ps.ID] {
			return nil, fmt.Errorf("duplicate player id %q", ps.ID)
		}
		seen[ps.ID] = true
		if _, ok := captains[ps.Captain]; !ok {
			return nil, fmt.Errorf("player %s: unknown captain %d", ps.ID, ps.Captain)
		}
	}

	catalog := cfg.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	sink := cfg.Sink
	if sink == nil {
		sink = log.Discard{}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gameID := cfg.GameID
	if gameID == "" {
		gameID = uuid.NewString()
	}

	e := &Engine{
		state:     &GameState{GameID: gameID, Phase: PhaseSetup, Board: Board{NextID: 1}},
		catalog:   catalog,
		sink:      sink,
		rng:       rand.New(rand.NewSource(seed)),
		noShuffle: cfg.NoShuffle,
	}
	e.setup(cfg.Players)
	return e, nil
}

// setup builds market, track, hazard deck and starter decks, deals opening
// hands and starts turn 1.
func (e *Engine) setup(specs []PlayerSpec) {
	gs := e.state
	e.setupMarket()
	e.setupTrack()

	for _, card := range e.catalog.OfKind(CardHazard) {
		for range max(card.Copies, 1) {
			gs.HazardDeck = append(gs.HazardDeck, e.newCard(card.Key))
		}
	}
	e.shuffleCards(gs.HazardDeck)

	for _, ps := range specs {
		name := ps.Name
		if name == "" {
			name = ps.ID
		}
		p := &Player{
			ID:        ps.ID,
			Name:      name,
			Captain:   ps.Captain,
			Location:  1,
			BasePower: NewPowerState(StartingPower),
			Power:     NewPowerState(StartingPower),
		}
		for _, card := range e.catalog.OfKind(CardStarter) {
			for range card.Copies {
				p.Deck = append(p.Deck, e.newCard(card.Key))
			}
		}
		e.shuffleCards(p.Deck)
		gs.Players = append(gs.Players, p)
	}
	for seat := range gs.Players {
		e.drawCards(seat, HandSize)
	}

	gs.Turn = 1
	gs.CurrentPlayer = 0
	e.logInfo("game %s starts with %d players", gs.GameID, len(gs.Players))
	e.beginTurn()
}

// --- Dispatch ---

// Dispatch validates and applies one action. It returns false and leaves
// the state untouched when a precondition fails.
func (e *Engine) Dispatch(a GameAction) bool {
	e.lastErr = e.dispatch(a)
	return e.lastErr == nil
}

// LastError returns why the most recent Dispatch failed, or nil.
func (e *Engine) LastError() error {
	return e.lastErr
}

func (e *Engine) dispatch(a GameAction) error {
	gs := e.state
	if gs.GameOver {
		return ErrGameOver
	}
	if a.PlayerID != "" && a.PlayerID != gs.Current().ID {
		return ErrNotYourTurn
	}

	if a.Kind == ActionResolvePending {
		if gs.Pending == nil {
			return ErrNoPendingAction
		}
		return e.snapshotted(func() error { return e.resolvePending(a) })
	}
	// Undo and restart may step back past an outstanding pending action.
	if a.Kind == ActionUndo || a.Kind == ActionRestartTurn {
		if gs.Phase != PhaseAction {
			return ErrWrongPhase
		}
		if a.Kind == ActionUndo {
			return e.undo()
		}
		return e.restartTurn()
	}
	if gs.Pending != nil {
		return ErrPendingAction
	}
	if gs.Phase != PhaseAction {
		return ErrWrongPhase
	}

	switch a.Kind {
	case ActionEndTurn:
		return e.endTurn()
	case ActionPlayCard:
		return e.snapshotted(func() error { return e.playCard(a) })
	case ActionInstallCard:
		return e.snapshotted(func() error { return e.installCard(a) })
	case ActionActivateSystem:
		return e.snapshotted(func() error { return e.activateSystem(a) })
	case ActionMove:
		return e.snapshotted(func() error { return e.move(a) })
	case ActionCompleteMission:
		return e.snapshotted(func() error { return e.completeMission(a) })
	case ActionBuyCard:
		return e.snapshotted(func() error { return e.buyCard(a) })
	case ActionBuyAndInstall:
		return e.snapshotted(func() error { return e.buyAndInstall(a) })
	case ActionClearHazard:
		return e.snapshotted(func() error { return e.clearHazard(a) })
	case ActionRevealStack:
		return e.snapshotted(func() error { return e.revealStack(a) })
	}
	return ErrUnknownAction
}

// --- Shared helpers ---

func (e *Engine) nextID() int {
	id := e.state.NextID
	e.state.NextID++
	return id
}

func (e *Engine) newCard(key string) *CardInstance {
	return &CardInstance{ID: e.nextID(), Key: key}
}

// cardDef returns the catalog definition of an instance. Unknown keys yield
// an inert placeholder so a corrupt snapshot cannot crash the engine.
func (e *Engine) cardDef(c *CardInstance) *Card {
	if card, ok := e.catalog.Card(c.Key); ok {
		return card
	}
	return &Card{Key: c.Key, Name: c.Key, Kind: CardStarter}
}

func (e *Engine) cardName(key string) string {
	if card, ok := e.catalog.Card(key); ok {
		return card.Name
	}
	return key
}

// Catalog returns the engine's card and mission definitions.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

func (e *Engine) shuffleCards(cards []*CardInstance) {
	if e.noShuffle {
		return
	}
	e.rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
}

func (e *Engine) shuffleMissions(ms []*MissionInstance) {
	if e.noShuffle {
		return
	}
	e.rng.Shuffle(len(ms), func(i, j int) { ms[i], ms[j] = ms[j], ms[i] })
}

func (e *Engine) shuffleInts(xs []int) {
	if e.noShuffle {
		return
	}
	e.rng.Shuffle(len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
}

// reshuffle turns the discard pile into a fresh deck. It always logs,
// naming any hazards that come back into circulation.
func (e *Engine) reshuffle(seat int) {
	p := e.state.Players[seat]
	if len(p.Discard) == 0 {
		return
	}
	hazards := 0
	for _, c := range p.Discard {
		if e.hazardSpec(c) != nil {
			hazards++
		}
	}
	p.Deck = append(p.Deck, p.Discard...)
	p.Discard = nil
	e.shuffleCards(p.Deck)
	if hazards > 0 {
		e.logHazard("%s reshuffles %d cards into their deck, including %d hazards", p.Name, len(p.Deck), hazards)
		return
	}
	e.logInfo("%s reshuffles %d cards into their deck", p.Name, len(p.Deck))
}

// drawCards draws up to n cards, reshuffling the discard pile when the deck
// runs out.
func (e *Engine) drawCards(seat, n int) int {
	p := e.state.Players[seat]
	drawn := 0
	for range n {
		if len(p.Deck) == 0 {
			e.reshuffle(seat)
			if len(p.Deck) == 0 {
				break
			}
		}
		c := p.Deck[len(p.Deck)-1]
		p.Deck = p.Deck[:len(p.Deck)-1]
		p.Hand = append(p.Hand, c)
		drawn++
	}
	return drawn
}

// --- Log ---

func (e *Engine) appendLog(category log.Category, format string, args ...any) {
	entry := log.NewEntry(e.state.Turn, category, format, args...)
	e.state.Log = append(e.state.Log, entry)
	e.sink.Log(entry)
}

func (e *Engine) logInfo(format string, args ...any) {
	e.appendLog(log.CategoryInfo, format, args...)
}

func (e *Engine) logAction(format string, args ...any) {
	e.appendLog(log.CategoryAction, format, args...)
}

func (e *Engine) logReward(format string, args ...any) {
	e.appendLog(log.CategoryReward, format, args...)
}

func (e *Engine) logHazard(format string, args ...any) {
	e.appendLog(log.CategoryHazard, format, args...)
}

func (e *Engine) logVictory(format string, args ...any) {
	e.appendLog(log.CategoryVictory, format, args...)
}

// --- Read accessors ---

// GameID returns the game's identifier.
func (e *Engine) GameID() string {
	return e.state.GameID
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	return e.state.Phase
}

// CurrentPlayerID returns the ID of the player whose turn it is.
func (e *Engine) CurrentPlayerID() string {
	return e.state.Current().ID
}

// Pending returns a copy of the outstanding pending action, or nil.
func (e *Engine) Pending() *PendingAction {
	return e.state.Pending.clone()
}

// GameOver reports whether the game has ended.
func (e *Engine) GameOver() bool {
	return e.state.GameOver
}

// Standings returns the final ranking, or nil while the game is running.
func (e *Engine) Standings() []Standing {
	return append([]Standing(nil), e.state.Standings...)
}
