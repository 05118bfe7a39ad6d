package game

import (
	"encoding/json"
	"errors"
	"testing"
)

func mustHash(t *testing.T, e *Engine) string {
	t.Helper()
	h, err := e.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	return h
}

// TestUndoRestoresState: each undo pops exactly one action and the board
// returns to its earlier content.
func TestUndoRestoresState(t *testing.T) {
	e, _ := newTestGame(t, 2)
	e.state.Players[0].Power.Logistics = 3
	h0 := mustHash(t, e)

	mustDispatch(t, e, PlayCard(handCard(t, e, 0, "thrusters").ID, nil))
	h1 := mustHash(t, e)
	mustDispatch(t, e, ActivateSystem(SystemLogistics, 0, ""))
	if h1 == mustHash(t, e) {
		t.Fatal("activation did not change the hash")
	}

	mustDispatch(t, e, Undo())
	if got := mustHash(t, e); got != h1 {
		t.Errorf("after first undo hash = %s, want %s", got, h1)
	}
	mustDispatch(t, e, Undo())
	if got := mustHash(t, e); got != h0 {
		t.Errorf("after second undo hash = %s, want %s", got, h0)
	}
	mustReject(t, e, Undo(), ErrUndoUnavailable)

	p := e.state.Players[0]
	if len(p.Hand) != HandSize || p.Credits != 0 {
		t.Errorf("hand/credits = %d/%d, want %d/0", len(p.Hand), p.Credits, HandSize)
	}
}

// TestUndoStepsThroughPendingResolution: resolving a choice is its own undo
// step, and undo may step back past the pending action that raised it.
func TestUndoStepsThroughPendingResolution(t *testing.T) {
	e, _ := newTestGame(t, 2)
	h0 := mustHash(t, e)

	mustDispatch(t, e, PlayCard(handCard(t, e, 0, "power_cell").ID, nil))
	h1 := mustHash(t, e)
	if e.Pending() == nil {
		t.Fatal("expected a power allocation")
	}
	mustDispatch(t, e, Resolve(Choice{Allocation: &PowerState{Weapons: 1}}))
	if n := len(e.state.History); n != 2 {
		t.Fatalf("history = %d entries, want 2", n)
	}

	mustDispatch(t, e, Undo())
	if got := mustHash(t, e); got != h1 {
		t.Errorf("hash after first undo = %s, want %s", got, h1)
	}
	if pa := e.Pending(); pa == nil || pa.Kind != PendingPowerAllocation {
		t.Errorf("pending = %+v, want the allocation back", pa)
	}
	mustDispatch(t, e, Undo())
	if got := mustHash(t, e); got != h0 {
		t.Errorf("hash after second undo = %s, want %s", got, h0)
	}
}

func TestRevealClosesUndo(t *testing.T) {
	e, _ := newTestGame(t, 2)
	mustDispatch(t, e, PlayCard(handCard(t, e, 0, "thrusters").ID, nil))
	if !e.CanUndo() {
		t.Fatal("undo should be available")
	}

	// Moving onto location 2 flips its mission.
	mustDispatch(t, e, Move(1))
	if !e.state.HasRevealedInfo {
		t.Fatal("reveal latch not set")
	}
	if e.CanUndo() || e.state.TurnStart != nil || len(e.state.History) != 0 {
		t.Error("both undo tiers should be invalidated")
	}
	mustReject(t, e, Undo(), ErrUndoUnavailable)
	mustReject(t, e, RestartTurn(), ErrUndoUnavailable)

	// The latch resets at the next turn.
	mustDispatch(t, e, EndTurn())
	if e.state.HasRevealedInfo {
		t.Error("latch should reset on the next turn")
	}
	if e.state.TurnStart == nil {
		t.Error("next turn should take a fresh turn-start snapshot")
	}
}

func TestRestartTurn(t *testing.T) {
	e, logger := newTestGame(t, 2)
	h0 := mustHash(t, e)

	mustDispatch(t, e, PlayCard(handCard(t, e, 0, "thrusters").ID, nil))
	mustDispatch(t, e, PlayCard(handCard(t, e, 0, "power_cell").ID, &PowerState{Engines: 1}))
	mustDispatch(t, e, RestartTurn())

	if got := mustHash(t, e); got != h0 {
		t.Errorf("hash after restart = %s, want %s", got, h0)
	}
	if len(e.state.History) != 0 {
		t.Error("restart should clear the undo stack")
	}
	if !hasLog(logger.Entries(), "P1 restarts their turn") {
		t.Error("missing restart log")
	}
	// The turn-start snapshot survives and can be used again.
	mustDispatch(t, e, PlayCard(handCard(t, e, 0, "scanner").ID, nil))
	mustDispatch(t, e, RestartTurn())
	if got := mustHash(t, e); got != h0 {
		t.Errorf("hash after second restart = %s, want %s", got, h0)
	}
}

func TestExportLoadRoundTrip(t *testing.T) {
	e1, _ := newTestGame(t, 3)
	mustDispatch(t, e1, PlayCard(handCard(t, e1, 0, "thrusters").ID, nil))
	addToHand(e1, 0, "field_repair")
	mustDispatch(t, e1, PlayCard(handCard(t, e1, 0, "field_repair").ID, nil))
	if pa := e1.Pending(); pa == nil || pa.Kind != PendingTrashCard || len(pa.Resume) == 0 {
		t.Fatalf("pending = %+v, want trash with a suspended effect", pa)
	}

	data, err := json.Marshal(e1.Export())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var gs GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	e2, _ := newTestGame(t, 3)
	if err := e2.Load(&gs); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if mustHash(t, e1) != mustHash(t, e2) {
		t.Fatal("loaded state hashes differently")
	}
	if !e1.Export().Board.Equal(e2.Export().Board) {
		t.Error("boards differ after load")
	}

	// Both engines continue identically, including the suspended effect.
	trash := Resolve(Choice{CardID: handCard(t, e1, 0, "scanner").ID})
	alloc := Resolve(Choice{Allocation: &PowerState{Weapons: 1, Engines: 1}})
	for _, a := range []GameAction{trash, alloc, EndTurn()} {
		mustDispatch(t, e1, a)
		mustDispatch(t, e2, a)
		if mustHash(t, e1) != mustHash(t, e2) {
			t.Fatalf("engines diverged after %s", a)
		}
	}
}

func TestLoadRejects(t *testing.T) {
	e, _ := newTestGame(t, 2)
	if err := e.Load(nil); err == nil {
		t.Error("nil state should be rejected")
	}

	gs := e.Export()
	gs.CurrentPlayer = 5
	if err := e.Load(gs); err == nil {
		t.Error("out-of-range current player should be rejected")
	}

	gs = e.Export()
	gs.Players[1].Hand[0].Key = "no_such_card"
	gs.Track[2].Key = "no_such_mission"
	err := e.Load(gs)
	if err == nil {
		t.Fatal("unknown keys should be rejected")
	}
	t.Logf("load error: %v", err)

	gs = e.Export()
	gs.Players = nil
	if err := e.Load(gs); err == nil {
		t.Error("empty player list should be rejected")
	}
}

// TestSeededGamesMatch: two engines with the same seed and the same actions
// reach the same state.
func TestSeededGamesMatch(t *testing.T) {
	newSeeded := func() *Engine {
		e, err := NewEngine(Config{
			GameID:  "seeded",
			Players: []PlayerSpec{{ID: "a", Captain: CaptainBroker}, {ID: "b", Captain: CaptainVanguard}},
			Seed:    42,
		})
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}
		return e
	}
	e1, e2 := newSeeded(), newSeeded()
	if mustHash(t, e1) != mustHash(t, e2) {
		t.Fatal("same seed produced different setups")
	}
	for range 6 {
		mustDispatch(t, e1, EndTurn())
		mustDispatch(t, e2, EndTurn())
		if mustHash(t, e1) != mustHash(t, e2) {
			t.Fatalf("engines diverged at turn %d", e1.state.Turn)
		}
	}

	e3, err := NewEngine(Config{
		GameID:  "seeded",
		Players: []PlayerSpec{{ID: "a", Captain: CaptainBroker}, {ID: "b", Captain: CaptainVanguard}},
		Seed:    43,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if mustHash(t, e3) == mustHash(t, newSeeded()) {
		t.Error("different seeds produced the same setup")
	}
}

func TestGameOverRejectsActions(t *testing.T) {
	e, _ := newTestGame(t, 2)
	e.state.Players[0].Fame = FameThreshold
	mustDispatch(t, e, EndTurn())
	mustDispatch(t, e, EndTurn())
	if !e.GameOver() {
		t.Fatal("game should be over")
	}
	e.Dispatch(EndTurn())
	if !errors.Is(e.LastError(), ErrGameOver) {
		t.Errorf("error = %v, want %v", e.LastError(), ErrGameOver)
	}
}
