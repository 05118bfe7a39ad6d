package game

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/peterkuimelis/starwake/internal/log"
)

// newTestGame builds a deterministic game with n players. With no shuffling
// each opening hand is Scanner, Thrusters, Thrusters, Power Cell, Power Cell
// and location 1 holds Beacon Repair.
func newTestGame(t *testing.T, n int) (*Engine, *log.MemoryLogger) {
	t.Helper()
	logger := log.NewMemoryLogger()
	var specs []PlayerSpec
	for i := range n {
		specs = append(specs, PlayerSpec{
			ID:      fmt.Sprintf("p%d", i+1),
			Name:    fmt.Sprintf("P%d", i+1),
			Captain: CaptainNavigator,
		})
	}
	e, err := NewEngine(Config{
		GameID:    "test-game",
		Players:   specs,
		Sink:      logger,
		Seed:      1,
		NoShuffle: true,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(func() {
		if t.Failed() {
			t.Logf("Game log:\n%s", log.FormatAll(logger.Entries()))
		}
	})
	return e, logger
}

// addToHand puts a fresh instance of key into a player's hand.
func addToHand(e *Engine, seat int, key string) *CardInstance {
	c := e.newCard(key)
	p := e.state.Players[seat]
	p.Hand = append(p.Hand, c)
	return c
}

// handCard returns the first card in hand with the given key.
func handCard(t *testing.T, e *Engine, seat int, key string) *CardInstance {
	t.Helper()
	for _, c := range e.state.Players[seat].Hand {
		if c.Key == key {
			return c
		}
	}
	t.Fatalf("no %s in P%d's hand", key, seat+1)
	return nil
}

// placeMission puts a revealed mission at a track location.
func placeMission(e *Engine, location int, key string) *MissionInstance {
	mi := &MissionInstance{ID: e.nextID(), Key: key, Revealed: true}
	e.state.Track[location-1] = mi
	return mi
}

// giveHazardCard puts a hazard of key into a player's hand and keeps the
// counter in step.
func giveHazardCard(e *Engine, seat int, key string) *CardInstance {
	c := addToHand(e, seat, key)
	e.state.Players[seat].Hazards++
	return c
}

func mustDispatch(t *testing.T, e *Engine, a GameAction) {
	t.Helper()
	if !e.Dispatch(a) {
		t.Fatalf("Dispatch(%s) failed: %v", a, e.LastError())
	}
}

func mustReject(t *testing.T, e *Engine, a GameAction, want error) {
	t.Helper()
	before, _ := e.Hash()
	if e.Dispatch(a) {
		t.Fatalf("Dispatch(%s) succeeded, want %v", a, want)
	}
	if want != nil && !errors.Is(e.LastError(), want) {
		t.Fatalf("Dispatch(%s) error = %v, want %v", a, e.LastError(), want)
	}
	after, _ := e.Hash()
	if before != after {
		t.Fatalf("rejected Dispatch(%s) changed the state", a)
	}
}

// checkInvariants verifies power bounds and hazard counters for every player.
func checkInvariants(t *testing.T, e *Engine) {
	t.Helper()
	for _, p := range e.state.Players {
		for _, s := range Systems {
			if v := p.Power.Get(s); v < 0 || v > MaxPower {
				t.Errorf("%s %s power = %d out of range", p.Name, s, v)
			}
			if v := p.BasePower.Get(s); v < 0 || v > MaxPower {
				t.Errorf("%s %s base power = %d out of range", p.Name, s, v)
			}
		}
		if got := e.CountHazards(p); got != p.Hazards {
			t.Errorf("%s hazard counter = %d, piles hold %d", p.Name, p.Hazards, got)
		}
	}
}

func sysPtr(s System) *System {
	return &s
}

func hasLog(entries []log.Entry, substr string) bool {
	for _, e := range entries {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
