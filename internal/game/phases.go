package game

import (
	"cmp"
	"slices"
)

// beginTurn resets the current player's turn state and runs the initial
// phase: passives, captain turn-start triggers, then hazard reveals.
func (e *Engine) beginTurn() {
	gs := e.state
	seat := gs.CurrentPlayer
	p := gs.Players[seat]

	gs.Phase = PhaseInitial
	gs.HasRevealedInfo = false
	gs.History = nil
	gs.TurnStart = nil
	p.Credits = 0
	p.Power = p.BasePower
	p.Turn = TurnCounters{}
	e.logInfo("=== Turn %d: %s ===", gs.Turn, p.Name)

	e.applyPassives(seat)
	e.fireTrigger(seat, TriggerTurnStart)

	if ids := e.revealHazards(); len(ids) > 0 {
		gs.Pending = &PendingAction{
			Kind:       PendingRevealHazards,
			Player:     seat,
			Source:     "turn start",
			Candidates: ids,
		}
		return
	}
	e.enterAction()
}

// enterAction starts the action phase and takes the turn-start snapshot.
func (e *Engine) enterAction() {
	gs := e.state
	gs.Phase = PhaseAction
	if !gs.HasRevealedInfo {
		ts := gs.Board.clone()
		gs.TurnStart = &ts
	}
}

// endTurn runs cleanup and hands the turn on.
func (e *Engine) endTurn() error {
	gs := e.state
	seat := gs.CurrentPlayer
	p := gs.Players[seat]
	gs.Phase = PhaseCleanup
	e.logAction("%s ends their turn", p.Name)

	e.fillReplacements(seat)
	p.Discard = append(p.Discard, p.Played...)
	p.Discard = append(p.Discard, p.Hand...)
	p.Played = nil
	p.Hand = nil
	e.drawCards(seat, HandSize)

	e.checkFameThreshold(seat)

	if p.Turn.ExtraTurn {
		e.logInfo("%s takes an extra turn", p.Name)
		e.beginTurn()
		return nil
	}
	gs.CurrentPlayer = (seat + 1) % len(gs.Players)
	if gs.CurrentPlayer == 0 {
		if gs.EndGameTriggeredBy != "" {
			e.endGame()
			return nil
		}
		gs.Turn++
	}
	e.beginTurn()
	return nil
}

// checkFameThreshold arms the end of the game for the first player, in seat
// order from seat, at or over the threshold. Fame gained from reactions
// during another player's turn counts in the round it was gained.
func (e *Engine) checkFameThreshold(seat int) {
	gs := e.state
	if gs.EndGameTriggeredBy != "" {
		return
	}
	for i := range gs.Players {
		p := gs.Players[(seat+i)%len(gs.Players)]
		if p.Fame >= FameThreshold {
			gs.EndGameTriggeredBy = p.ID
			e.logVictory("%s reaches %d fame; the round will finish", p.Name, p.Fame)
			return
		}
	}
}

// endGame applies hazard penalties and ranks the players.
func (e *Engine) endGame() {
	gs := e.state
	gs.Phase = PhaseGameOver
	gs.GameOver = true
	gs.Pending = nil
	gs.History = nil
	gs.TurnStart = nil

	standings := make([]Standing, len(gs.Players))
	for i, p := range gs.Players {
		hz := e.CountHazards(p)
		if hz > 0 {
			p.Fame -= hz
			e.logHazard("%s loses %d fame for %d hazards", p.Name, hz, hz)
		}
		standings[i] = Standing{
			PlayerID: p.ID,
			Name:     p.Name,
			Fame:     p.Fame,
			Hazards:  hz,
			Missions: len(p.Missions),
			Credits:  p.Credits,
		}
	}
	slices.SortStableFunc(standings, func(a, b Standing) int {
		return cmp.Or(
			cmp.Compare(b.Fame, a.Fame),
			cmp.Compare(b.Hazards, a.Hazards),
			cmp.Compare(b.Missions, a.Missions),
			cmp.Compare(b.Credits, a.Credits),
		)
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	gs.Standings = standings
	gs.Winner = standings[0].PlayerID
	e.logVictory("game over: %s wins with %d fame", standings[0].Name, standings[0].Fame)
}
