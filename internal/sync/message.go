package sync

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/peterkuimelis/starwake/internal/game"
)

// Kind tags a wire envelope.
type Kind string

const (
	KindAction        Kind = "broadcast-action"
	KindSnapshot      Kind = "full-snapshot"
	KindResyncRequest Kind = "resync-request"
	KindGameOver      Kind = "game-over"
)

// Envelope is the transport-agnostic payload exchanged between peers.
// Only the fields relevant to Kind are set.
type Envelope struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"kind"`
	GameID string `json:"game_id"`
	From   string `json:"from"`

	Action *game.GameAction `json:"action,omitempty"`
	// Hash is the sender's post-action hash on host actions and the state
	// hash on snapshots.
	Hash     string           `json:"hash,omitempty"`
	State    *game.GameState  `json:"state,omitempty"`
	GameOver *GameOverSummary `json:"game_over,omitempty"`
}

// GameOverSummary is the final result broadcast once the game ends.
type GameOverSummary struct {
	WinnerID   string          `json:"winner_id"`
	WinnerName string          `json:"winner_name"`
	Stats      []game.Standing `json:"stats"`
}

func newEnvelope(kind Kind, gameID, from string) Envelope {
	return Envelope{ID: uuid.NewString(), Kind: kind, GameID: gameID, From: from}
}

// ActionMessage wraps a dispatched action. hash is empty for non-host senders.
func ActionMessage(gameID, from string, a game.GameAction, hash string) Envelope {
	env := newEnvelope(KindAction, gameID, from)
	env.Action = &a
	env.Hash = hash
	return env
}

// SnapshotMessage wraps a full state export and its hash.
func SnapshotMessage(gameID, from string, gs *game.GameState, hash string) Envelope {
	env := newEnvelope(KindSnapshot, gameID, from)
	env.State = gs
	env.Hash = hash
	return env
}

// ResyncRequest asks the host for a fresh snapshot.
func ResyncRequest(gameID, from string) Envelope {
	return newEnvelope(KindResyncRequest, gameID, from)
}

// GameOverMessage wraps the final standings.
func GameOverMessage(gameID, from string, summary GameOverSummary) Envelope {
	env := newEnvelope(KindGameOver, gameID, from)
	env.GameOver = &summary
	return env
}

// Validate checks that the payload matching Kind is present.
func (e Envelope) Validate() error {
	switch e.Kind {
	case KindAction:
		if e.Action == nil {
			return fmt.Errorf("%s %s: missing action", e.Kind, e.ID)
		}
	case KindSnapshot:
		if e.State == nil {
			return fmt.Errorf("%s %s: missing state", e.Kind, e.ID)
		}
	case KindGameOver:
		if e.GameOver == nil {
			return fmt.Errorf("%s %s: missing summary", e.Kind, e.ID)
		}
	case KindResyncRequest:
	default:
		return fmt.Errorf("unknown message kind %q", e.Kind)
	}
	return nil
}

// Encode marshals an envelope for the wire.
func Encode(e Envelope) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Kind, err)
	}
	return data, nil
}

// Decode unmarshals and validates a wire envelope.
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode message: %w", err)
	}
	if err := e.Validate(); err != nil {
		return Envelope{}, err
	}
	return e, nil
}
