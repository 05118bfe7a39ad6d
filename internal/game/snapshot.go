package game

import (
	"errors"
	"fmt"
	"slices"
)

// snapshotted runs a mutating handler. Handlers validate before they mutate,
// so a failing handler leaves the state untouched. A succeeding one pushes the
// pre-action board onto the undo stack unless hidden information was revealed.
func (e *Engine) snapshotted(apply func() error) error {
	gs := e.state
	phase := gs.Phase
	var before Board
	if phase == PhaseAction && !gs.HasRevealedInfo {
		before = gs.Board.clone()
	}

	if err := apply(); err != nil {
		return err
	}

	switch {
	case gs.HasRevealedInfo:
		gs.History = nil
		gs.TurnStart = nil
	case phase == PhaseAction && gs.Phase == PhaseAction:
		gs.History = append(gs.History, before)
	}
	return nil
}

// undo pops one action off the history.
func (e *Engine) undo() error {
	gs := e.state
	if gs.HasRevealedInfo || len(gs.History) == 0 {
		return ErrUndoUnavailable
	}
	last := gs.History[len(gs.History)-1]
	gs.History = gs.History[:len(gs.History)-1]
	gs.Board = last
	e.logAction("%s undoes their last action", gs.Current().Name)
	return nil
}

// restartTurn restores the board as it was when the action phase began.
func (e *Engine) restartTurn() error {
	gs := e.state
	if gs.HasRevealedInfo || gs.TurnStart == nil {
		return ErrUndoUnavailable
	}
	gs.Board = gs.TurnStart.clone()
	gs.History = nil
	e.logAction("%s restarts their turn", gs.Current().Name)
	return nil
}

// CanUndo reports whether an undo would succeed.
func (e *Engine) CanUndo() bool {
	return e.state.Phase == PhaseAction && !e.state.HasRevealedInfo && len(e.state.History) > 0
}

// Export returns a deep copy of the full game state.
func (e *Engine) Export() *GameState {
	return e.state.clone()
}

// Load replaces the engine state wholesale with a copy of gs.
func (e *Engine) Load(gs *GameState) error {
	if gs == nil {
		return errors.New("load: nil state")
	}
	if n := len(gs.Players); n < MinPlayers || n > MaxPlayers {
		return fmt.Errorf("load: %d players", n)
	}
	if gs.CurrentPlayer < 0 || gs.CurrentPlayer >= len(gs.Players) {
		return fmt.Errorf("load: current player %d out of range", gs.CurrentPlayer)
	}
	if err := e.checkKeys(&gs.Board); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	e.state = gs.clone()
	e.lastErr = nil
	return nil
}

// checkKeys verifies every instance in b refers to a catalog entry.
func (e *Engine) checkKeys(b *Board) error {
	var errs []error
	card := func(c *CardInstance) {
		if c == nil {
			return
		}
		if _, ok := e.catalog.Card(c.Key); !ok {
			errs = append(errs, fmt.Errorf("unknown card %q", c.Key))
		}
	}
	mission := func(m *MissionInstance) {
		if m == nil {
			return
		}
		if _, ok := e.catalog.Mission(m.Key); !ok {
			errs = append(errs, fmt.Errorf("unknown mission %q", m.Key))
		}
	}
	for _, p := range b.Players {
		for _, pile := range [][]*CardInstance{p.Deck, p.Hand, p.Discard, p.Played, p.Installations[:]} {
			for _, c := range pile {
				card(c)
			}
		}
		for _, m := range p.Gear {
			mission(m)
		}
		for _, m := range slices.Concat(p.Missions, p.Trophies) {
			mission(m)
		}
	}
	for _, m := range b.Track {
		mission(m)
	}
	for _, pool := range b.Pools {
		for _, m := range pool {
			mission(m)
		}
	}
	for _, st := range b.Market.Stations {
		for _, s := range st.Stacks {
			for _, c := range s.Cards {
				card(c)
			}
		}
	}
	for _, c := range b.HazardDeck {
		card(c)
	}
	return errors.Join(errs...)
}
