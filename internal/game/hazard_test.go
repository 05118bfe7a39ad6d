package game

import "testing"

// TestHazardRevealNeedsAck: a hazard in hand at turn start drains power and
// holds the turn in the initial phase until acknowledged.
func TestHazardRevealNeedsAck(t *testing.T) {
	e, logger := newTestGame(t, 2)
	p := e.state.Players[0]
	giveHazardCard(e, 0, "signal_jammer")
	e.beginTurn()

	if e.Phase() != PhaseInitial {
		t.Fatalf("phase = %s, want initial", e.Phase())
	}
	pa := e.Pending()
	if pa == nil || pa.Kind != PendingRevealHazards {
		t.Fatalf("pending = %+v, want reveal ack", pa)
	}
	if p.Power.Computers != 0 {
		t.Errorf("computers = %d, want drained to 0", p.Power.Computers)
	}
	if !hasLog(logger.Entries(), "P1 reveals Signal Jammer") {
		t.Error("missing reveal log")
	}

	mustReject(t, e, Move(1), ErrPendingAction)
	mustReject(t, e, Resolve(Choice{}), ErrInvalidChoice)
	ack := Resolve(Choice{Ack: true})
	ack.PlayerID = "p2"
	mustReject(t, e, ack, ErrNotYourTurn)

	mustDispatch(t, e, Resolve(Choice{Ack: true}))
	if e.Phase() != PhaseAction {
		t.Errorf("phase = %s, want action", e.Phase())
	}
	if e.state.TurnStart == nil {
		t.Error("turn-start snapshot missing after ack")
	}
	// Jammed forbids moving.
	mustReject(t, e, Move(1), ErrRestricted)
	checkInvariants(t, e)
}

func TestSurvivorGainsOnReveal(t *testing.T) {
	e, _ := newTestGame(t, 2)
	p := e.state.Players[0]
	p.Captain = CaptainSurvivor
	giveHazardCard(e, 0, "space_debris")
	giveHazardCard(e, 0, "power_surge")
	e.beginTurn()

	if p.Credits != 2 {
		t.Errorf("credits = %d, want 1 per revealed hazard", p.Credits)
	}
	if p.Turn.MovesRemaining != 0 {
		t.Errorf("moves = %d, survivor has no turn-start move", p.Turn.MovesRemaining)
	}
}

func TestClearHazardCosts(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		short   func(p *Player)
		enough  func(p *Player)
		checkFn func(t *testing.T, p *Player)
	}{
		{
			name:   "credits",
			key:    "power_surge",
			short:  func(p *Player) { p.Credits = 2 },
			enough: func(p *Player) { p.Credits = 3 },
			checkFn: func(t *testing.T, p *Player) {
				if p.Credits != 0 {
					t.Errorf("credits = %d, want 0", p.Credits)
				}
			},
		},
		{
			name:   "power",
			key:    "signal_jammer",
			short:  func(p *Player) { p.Power.Engines = 1 },
			enough: func(p *Player) { p.Power.Engines = 3 },
			checkFn: func(t *testing.T, p *Player) {
				if p.Power.Engines != 1 {
					t.Errorf("engines = %d, want 1", p.Power.Engines)
				}
			},
		},
		{
			name:   "spend all",
			key:    "blockade",
			short:  func(p *Player) { p.Power.Logistics = 1 },
			enough: func(p *Player) { p.Power.Logistics = 4 },
			checkFn: func(t *testing.T, p *Player) {
				if p.Power.Logistics != 0 {
					t.Errorf("logistics = %d, want 0", p.Power.Logistics)
				}
			},
		},
		{
			name:   "distinct systems",
			key:    "static_storm",
			short:  func(p *Player) { p.Power = PowerState{Weapons: 5, Engines: 2} },
			enough: func(p *Player) { p.Power = PowerState{Weapons: 3, Engines: 2, Logistics: 1} },
			checkFn: func(t *testing.T, p *Player) {
				want := PowerState{Weapons: 2, Engines: 1}
				if p.Power != want {
					t.Errorf("power = %+v, want %+v", p.Power, want)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestGame(t, 2)
			p := e.state.Players[0]
			h := giveHazardCard(e, 0, tt.key)

			tt.short(p)
			wantErr := ErrInsufficientPower
			if tt.key == "power_surge" {
				wantErr = ErrInsufficientCredits
			}
			mustReject(t, e, ClearHazard(h.ID), wantErr)

			tt.enough(p)
			mustDispatch(t, e, ClearHazard(h.ID))
			tt.checkFn(t, p)
			if findCard(p.Hand, h.ID) >= 0 {
				t.Error("hazard still in hand")
			}
			if e.state.HazardDeck[0] != h {
				t.Error("cleared hazard should sit at the bottom of the hazard deck")
			}
			checkInvariants(t, e)
		})
	}
}

func TestClearHazardRejects(t *testing.T) {
	e, _ := newTestGame(t, 2)
	mustReject(t, e, ClearHazard(handCard(t, e, 0, "scanner").ID), ErrNotHazard)
	mustReject(t, e, ClearHazard(9999), ErrCardNotFound)

	// Hazards are only cleared from hand.
	p := e.state.Players[0]
	h := e.newCard("space_debris")
	p.Discard = append(p.Discard, h)
	p.Hazards++
	p.Credits = 5
	mustReject(t, e, ClearHazard(h.ID), ErrCardNotFound)
}

// TestHullBreachPassesOn: clearing a pass-on hazard discards two cards and
// hands the same hazard to the only opponent.
func TestHullBreachPassesOn(t *testing.T) {
	e, logger := newTestGame(t, 2)
	p1, p2 := e.state.Players[0], e.state.Players[1]
	h := giveHazardCard(e, 0, "hull_breach")
	deckSize := len(e.state.HazardDeck)

	mustDispatch(t, e, ClearHazard(h.ID))

	if len(p1.Hand) != HandSize-2 {
		t.Errorf("P1 hand = %d, want %d", len(p1.Hand), HandSize-2)
	}
	if len(p1.Discard) != 2 || p1.Discard[0].Key != "scanner" || p1.Discard[1].Key != "thrusters" {
		t.Errorf("P1 discard = %v, want scanner and thrusters", p1.Discard)
	}
	if n := len(p2.Discard); n == 0 || p2.Discard[n-1] != h {
		t.Fatalf("P2 discard = %v, want the hull breach", p2.Discard)
	}
	if p1.Hazards != 0 || p2.Hazards != 1 {
		t.Errorf("hazards = %d/%d, want 0/1", p1.Hazards, p2.Hazards)
	}
	if len(e.state.HazardDeck) != deckSize {
		t.Errorf("hazard deck = %d, want unchanged %d", len(e.state.HazardDeck), deckSize)
	}
	if !hasLog(logger.Entries(), "P1 gives Hull Breach to P2") {
		t.Error("missing give log")
	}
	checkInvariants(t, e)
}

func TestHullBreachNeedsCards(t *testing.T) {
	e, _ := newTestGame(t, 2)
	p := e.state.Players[0]
	p.Hand = nil
	addToHand(e, 0, "salvage")
	h := giveHazardCard(e, 0, "hull_breach")
	giveHazardCard(e, 0, "space_debris")
	mustReject(t, e, ClearHazard(h.ID), ErrInsufficientCards)
}

func TestHullBreachTargetsWithThreePlayers(t *testing.T) {
	e, _ := newTestGame(t, 3)
	h := giveHazardCard(e, 0, "hull_breach")
	mustDispatch(t, e, ClearHazard(h.ID))

	pa := e.Pending()
	if pa == nil || pa.Kind != PendingTargetPlayer {
		t.Fatalf("pending = %+v, want target_player", pa)
	}
	if len(pa.Targets) != 2 || pa.Targets[0] != "p2" || pa.Targets[1] != "p3" {
		t.Errorf("targets = %v, want [p2 p3]", pa.Targets)
	}
	mustReject(t, e, Resolve(Choice{Target: "p1"}), ErrInvalidTarget)
	mustReject(t, e, EndTurn(), ErrPendingAction)

	mustDispatch(t, e, Resolve(Choice{Target: "p3"}))
	p3 := e.state.Players[2]
	if n := len(p3.Discard); n == 0 || p3.Discard[n-1] != h {
		t.Errorf("P3 discard = %v, want the hull breach", p3.Discard)
	}
	checkInvariants(t, e)
}

func TestActivateSystem(t *testing.T) {
	e, _ := newTestGame(t, 2)
	p := e.state.Players[0]

	mustReject(t, e, ActivateSystem(SystemLogistics, 0, ""), ErrInsufficientPower)
	mustReject(t, e, ActivateSystem(SystemEngines, 1, ""), ErrInvalidAbility)
	mustReject(t, e, GameAction{Kind: ActionActivateSystem}, ErrInvalidSystem)

	p.Power.Logistics = 4
	mustDispatch(t, e, ActivateSystem(SystemLogistics, 0, ""))
	if p.Credits != 2 || p.Power.Logistics != 2 {
		t.Errorf("credits/logistics = %d/%d, want 2/2", p.Credits, p.Power.Logistics)
	}
	mustReject(t, e, ActivateSystem(SystemLogistics, 0, ""), ErrAbilityUsed)

	p.Power.Computers = 5
	mustDispatch(t, e, ActivateSystem(SystemComputers, 0, ""))
	if len(p.Hand) != HandSize+1 {
		t.Errorf("hand = %d, want %d", len(p.Hand), HandSize+1)
	}

	p.Power.Engines = 2
	moves := p.Turn.MovesRemaining
	mustDispatch(t, e, ActivateSystem(SystemEngines, 0, ""))
	if p.Turn.MovesRemaining != moves+1 {
		t.Errorf("moves = %d, want %d", p.Turn.MovesRemaining, moves+1)
	}
	if !e.CanUndo() {
		t.Error("undo should be available before any reveal")
	}

	// Scanning flips the next mission and closes undo.
	mustDispatch(t, e, ActivateSystem(SystemComputers, 1, ""))
	if m := e.state.MissionAt(2); m == nil || !m.Revealed {
		t.Errorf("location 2 = %+v, want revealed", m)
	}
	if e.CanUndo() {
		t.Error("undo should be closed after a scan")
	}
	checkInvariants(t, e)
}

func TestScanNeedsHiddenMission(t *testing.T) {
	e, _ := newTestGame(t, 2)
	p := e.state.Players[0]
	p.Power.Computers = 3
	e.state.Track[1].Revealed = true
	mustReject(t, e, ActivateSystem(SystemComputers, 1, ""), ErrNothingToReveal)

	p.Location = LocationCount
	mustReject(t, e, ActivateSystem(SystemComputers, 1, ""), ErrNothingToReveal)
}

func TestWeaponsGivesHazard(t *testing.T) {
	e, logger := newTestGame(t, 2)
	p1, p2 := e.state.Players[0], e.state.Players[1]
	p1.Captain = CaptainRaider
	addToHand(e, 1, "deflector")
	p1.Power.Weapons = 3
	top := e.state.HazardDeck[len(e.state.HazardDeck)-1]

	mustDispatch(t, e, ActivateSystem(SystemWeapons, 0, ""))

	if n := len(p2.Discard); n == 0 || p2.Discard[n-1] != top {
		t.Fatalf("P2 discard = %v, want %s", p2.Discard, top.Key)
	}
	if p2.Hazards != 1 {
		t.Errorf("P2 hazards = %d, want 1", p2.Hazards)
	}
	if p2.Fame != 1 {
		t.Errorf("P2 fame = %d, want 1 from the deflector", p2.Fame)
	}
	if p1.Fame != 1 {
		t.Errorf("P1 fame = %d, want 1 from the raider captain", p1.Fame)
	}
	if !hasLog(logger.Entries(), "P2 reacts with Deflector Array") {
		t.Error("missing reaction log")
	}
	checkInvariants(t, e)
}

func TestWeaponsTargeting(t *testing.T) {
	e, _ := newTestGame(t, 3)
	p := e.state.Players[0]
	p.Power.Weapons = 3

	mustReject(t, e, ActivateSystem(SystemWeapons, 0, "p1"), ErrInvalidTarget)
	mustReject(t, e, ActivateSystem(SystemWeapons, 0, "nobody"), ErrInvalidTarget)

	mustDispatch(t, e, ActivateSystem(SystemWeapons, 0, ""))
	pa := e.Pending()
	if pa == nil || pa.Kind != PendingTargetPlayer {
		t.Fatalf("pending = %+v, want target_player", pa)
	}
	if p.Power.Weapons != 0 {
		t.Errorf("weapons = %d, want paid up front", p.Power.Weapons)
	}
	mustDispatch(t, e, Resolve(Choice{Target: "p3"}))
	if e.state.Players[2].Hazards != 1 || e.state.Players[1].Hazards != 0 {
		t.Error("hazard went to the wrong player")
	}

	// A named target skips the interrupt.
	e2, _ := newTestGame(t, 3)
	e2.state.Players[0].Power.Weapons = 3
	mustDispatch(t, e2, ActivateSystem(SystemWeapons, 0, "p2"))
	if e2.Pending() != nil {
		t.Error("named target should not raise a pending action")
	}
	if e2.state.Players[1].Hazards != 1 {
		t.Error("P2 should hold the hazard")
	}
}

func TestWeaponsSolo(t *testing.T) {
	e, _ := newTestGame(t, 1)
	e.state.Players[0].Power.Weapons = 3
	mustReject(t, e, ActivateSystem(SystemWeapons, 0, ""), ErrNoTarget)
}

func TestEmptyHazardDeck(t *testing.T) {
	e, logger := newTestGame(t, 2)
	e.state.HazardDeck = nil
	e.state.Players[0].Power.Weapons = 3
	mustDispatch(t, e, ActivateSystem(SystemWeapons, 0, ""))
	if e.state.Players[1].Hazards != 0 {
		t.Error("no hazard should be given from an empty deck")
	}
	if !hasLog(logger.Entries(), "hazard deck is empty") {
		t.Error("missing empty-deck log")
	}
}

func TestFleetBroadcastHitsEveryone(t *testing.T) {
	e, _ := newTestGame(t, 3)
	c := addToHand(e, 0, "fleet_broadcast")
	deck := len(e.state.HazardDeck)

	mustDispatch(t, e, PlayCard(c.ID, nil))

	for _, p := range e.state.Players[1:] {
		if p.Hazards != 1 {
			t.Errorf("%s hazards = %d, want 1", p.Name, p.Hazards)
		}
	}
	if e.state.Players[0].Hazards != 0 {
		t.Error("the player of the broadcast should not receive a hazard")
	}
	if e.state.Players[0].Credits != 1 {
		t.Errorf("credits = %d, want 1", e.state.Players[0].Credits)
	}
	if len(e.state.HazardDeck) != deck-2 {
		t.Errorf("hazard deck = %d, want %d", len(e.state.HazardDeck), deck-2)
	}
	checkInvariants(t, e)
}

func TestSabotageTargetsThenMoves(t *testing.T) {
	e, logger := newTestGame(t, 3)
	c := addToHand(e, 0, "sabotage_kit")

	mustDispatch(t, e, PlayCard(c.ID, nil))
	pa := e.Pending()
	if pa == nil || pa.Kind != PendingTargetPlayer || !pa.ChainMove {
		t.Fatalf("pending = %+v, want target_player with a chained move", pa)
	}

	mustDispatch(t, e, Resolve(Choice{Target: "p2"}))
	pa = e.Pending()
	if pa == nil || pa.Kind != PendingMoveOther || pa.Target != "p2" {
		t.Fatalf("pending = %+v, want move_other_player on p2", pa)
	}
	if e.state.Players[1].Hazards != 1 {
		t.Error("P2 should have received a hazard first")
	}

	mustReject(t, e, Resolve(Choice{Direction: -1}), ErrOffTrack)
	mustReject(t, e, Resolve(Choice{Direction: 2}), ErrInvalidDirection)
	mustDispatch(t, e, Resolve(Choice{Direction: 1}))

	if got := e.state.Players[1].Location; got != 2 {
		t.Errorf("P2 location = %d, want 2", got)
	}
	if !e.state.MissionAt(2).Revealed {
		t.Error("pushing onto a hidden mission should reveal it")
	}
	if !hasLog(logger.Entries(), "P1 pushes P2 to location 2") {
		t.Error("missing push log")
	}
	if e.Pending() != nil {
		t.Error("pending should be cleared")
	}
	checkInvariants(t, e)
}

func TestSabotageTwoPlayers(t *testing.T) {
	e, _ := newTestGame(t, 2)
	c := addToHand(e, 0, "sabotage_kit")
	mustDispatch(t, e, PlayCard(c.ID, nil))

	pa := e.Pending()
	if pa == nil || pa.Kind != PendingMoveOther {
		t.Fatalf("pending = %+v, want move_other_player", pa)
	}
	if e.state.Players[1].Hazards != 1 {
		t.Error("the only opponent should be targeted automatically")
	}
}

func TestMoveCosts(t *testing.T) {
	e, _ := newTestGame(t, 2)
	p := e.state.Players[0]

	mustReject(t, e, Move(-1), ErrOffTrack)
	mustReject(t, e, Move(0), ErrInvalidDirection)

	// The navigator's free move goes first, then engines power.
	mustDispatch(t, e, Move(1))
	if p.Turn.MovesRemaining != 0 || p.Power.Engines != 1 {
		t.Errorf("moves/engines = %d/%d, want 0/1", p.Turn.MovesRemaining, p.Power.Engines)
	}
	mustDispatch(t, e, Move(1))
	if p.Location != 3 || p.Power.Engines != 0 {
		t.Errorf("location/engines = %d/%d, want 3/0", p.Location, p.Power.Engines)
	}
	mustReject(t, e, Move(1), ErrInsufficientPower)
	if !e.state.MissionAt(3).Revealed {
		t.Error("location 3 should be revealed on arrival")
	}
}

func TestStaticBlocksMissions(t *testing.T) {
	e, _ := newTestGame(t, 2)
	e.state.Players[0].Power = NewPowerState(5)
	giveHazardCard(e, 0, "static_storm")
	mustReject(t, e, CompleteMission(), ErrRestricted)
}
