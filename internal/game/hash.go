package game

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"lukechampine.com/blake3"
)

// hashView is the hashed part of the state: the board plus turn bookkeeping.
// Log and undo history do not take part in equality.
type hashView struct {
	GameID             string `json:"game_id"`
	Board              Board  `json:"board"`
	Phase              Phase  `json:"phase"`
	CurrentPlayer      int    `json:"current_player"`
	Turn               int    `json:"turn"`
	HasRevealedInfo    bool   `json:"has_revealed_info"`
	EndGameTriggeredBy string `json:"end_game_triggered_by"`
	GameOver           bool   `json:"game_over"`
	Winner             string `json:"winner"`
}

// HashState returns a hex content hash of gs. encoding/json emits struct
// fields in declaration order, so equal states hash equally.
func HashState(gs *GameState) (string, error) {
	data, err := json.Marshal(hashView{
		GameID:             gs.GameID,
		Board:              gs.Board,
		Phase:              gs.Phase,
		CurrentPlayer:      gs.CurrentPlayer,
		Turn:               gs.Turn,
		HasRevealedInfo:    gs.HasRevealedInfo,
		EndGameTriggeredBy: gs.EndGameTriggeredBy,
		GameOver:           gs.GameOver,
		Winner:             gs.Winner,
	})
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:16]), nil
}

// Hash returns the content hash of the current state.
func (e *Engine) Hash() (string, error) {
	return HashState(e.state)
}

// Equal reports whether two boards have identical content.
func (b Board) Equal(o Board) bool {
	h1, err1 := HashState(&GameState{Board: b})
	h2, err2 := HashState(&GameState{Board: o})
	return err1 == nil && err2 == nil && h1 == h2
}
