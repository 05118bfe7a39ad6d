package game

import (
	"github.com/peterkuimelis/starwake/internal/log"
)

// Board is the mutable board sub-state captured by undo snapshots and the
// network snapshot channel. It excludes the log.
type Board struct {
	Players      []*Player                       `json:"players"`
	Track        [LocationCount]*MissionInstance `json:"track"`
	Pools        [ZoneCount][]*MissionInstance   `json:"pools"`
	Market       Market                          `json:"market"`
	HazardDeck   []*CardInstance                 `json:"hazard_deck"`
	Replacements []Replacement                   `json:"replacements"`
	Pending      *PendingAction                  `json:"pending"`
	NextID       int                             `json:"next_id"`
}

// Replacement is a completed mission slot waiting for its owner's cleanup.
type Replacement struct {
	Location int `json:"location"`
	Owner    int `json:"owner"`
}

// Standing is one player's final result.
type Standing struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Fame     int    `json:"fame"`
	Hazards  int    `json:"hazards"`
	Missions int    `json:"missions"`
	Credits  int    `json:"credits"`
}

// GameState aggregates the whole game. Callers receive copies through
// Engine.Export; only the engine mutates the live value.
type GameState struct {
	GameID string `json:"game_id"`
	Board

	Phase         Phase `json:"phase"`
	CurrentPlayer int   `json:"current_player"`
	Turn          int   `json:"turn"`

	Log []log.Entry `json:"log"`

	History         []Board `json:"history"`
	TurnStart       *Board  `json:"turn_start"`
	HasRevealedInfo bool    `json:"has_revealed_info"`

	EndGameTriggeredBy string     `json:"end_game_triggered_by"`
	GameOver           bool       `json:"game_over"`
	Winner             string     `json:"winner"`
	Standings          []Standing `json:"standings"`
}

// Current returns the player whose turn it is.
func (gs *GameState) Current() *Player {
	return gs.Players[gs.CurrentPlayer]
}

// PlayerByID returns the player with the given ID and its seat index.
func (gs *GameState) PlayerByID(id string) (*Player, int) {
	for i, p := range gs.Players {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

// MissionAt returns the mission at a 1-based track location, or nil.
func (gs *GameState) MissionAt(location int) *MissionInstance {
	if location < 1 || location > LocationCount {
		return nil
	}
	return gs.Track[location-1]
}

func (b Board) clone() Board {
	c := b
	c.Players = make([]*Player, len(b.Players))
	for i, p := range b.Players {
		c.Players[i] = p.clone()
	}
	for i := range b.Track {
		c.Track[i] = b.Track[i].clone()
	}
	for z := range b.Pools {
		c.Pools[z] = cloneMissions(b.Pools[z])
	}
	c.Market = b.Market.clone()
	c.HazardDeck = cloneCards(b.HazardDeck)
	if b.Replacements != nil {
		c.Replacements = append([]Replacement(nil), b.Replacements...)
	}
	c.Pending = b.Pending.clone()
	return c
}

func (gs *GameState) clone() *GameState {
	c := *gs
	c.Board = gs.Board.clone()
	if gs.Log != nil {
		c.Log = append([]log.Entry(nil), gs.Log...)
	}
	if gs.History != nil {
		c.History = make([]Board, len(gs.History))
		for i, b := range gs.History {
			c.History[i] = b.clone()
		}
	}
	if gs.TurnStart != nil {
		ts := gs.TurnStart.clone()
		c.TurnStart = &ts
	}
	if gs.Standings != nil {
		c.Standings = append([]Standing(nil), gs.Standings...)
	}
	return &c
}
