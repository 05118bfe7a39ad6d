package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	gosync "sync"

	"github.com/peterkuimelis/starwake/internal/game"
	"github.com/peterkuimelis/starwake/internal/log"
	"github.com/peterkuimelis/starwake/internal/net"
	starsync "github.com/peterkuimelis/starwake/internal/sync"
)

// ToolResponse is the JSON envelope returned by every tool.
type ToolResponse struct {
	Events   []string                  `json:"events"`
	State    *net.StateView            `json:"state,omitempty"`
	YourMove bool                      `json:"your_move"`
	Rejected string                    `json:"rejected,omitempty"`
	GameOver bool                      `json:"game_over"`
	Summary  *starsync.GameOverSummary `json:"summary,omitempty"`
}

// Seat is one automated player: a sync session plus the bookkeeping the
// tools need between calls.
type Seat struct {
	session *starsync.Session

	mu      gosync.Mutex
	seenLog int
	summary *starsync.GameOverSummary
	changes chan struct{}
}

// NewSeat creates an unbound seat. Pass its Notify and GameOver methods to
// the session options, then Bind the session.
func NewSeat() *Seat {
	return &Seat{changes: make(chan struct{}, 1)}
}

// Bind attaches the session the seat plays through.
func (s *Seat) Bind(session *starsync.Session) {
	s.session = session
}

// Notify wakes a pending wait. It never blocks.
func (s *Seat) Notify(starsync.Envelope) {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// GameOver records the final summary.
func (s *Seat) GameOver(summary starsync.GameOverSummary) {
	s.mu.Lock()
	s.summary = &summary
	s.mu.Unlock()
	s.Notify(starsync.Envelope{})
}

// respond builds a response with the log entries appended since the last
// call.
func (s *Seat) respond() *ToolResponse {
	return s.build(true)
}

// peek reports the seat's status without consuming log entries.
func (s *Seat) peek() *ToolResponse {
	return s.build(false)
}

func (s *Seat) build(consume bool) *ToolResponse {
	resp := &ToolResponse{Events: []string{}}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.View(func(e *game.Engine) {
		gs := e.Export()
		if s.seenLog > len(gs.Log) {
			s.seenLog = len(gs.Log)
		}
		for _, entry := range gs.Log[s.seenLog:] {
			resp.Events = append(resp.Events, log.FormatEntry(entry))
		}
		if consume {
			s.seenLog = len(gs.Log)
		}
		resp.State = net.BuildStateView(e, s.session.PeerID(), 0)
	})
	resp.YourMove = yourMove(resp.State)
	resp.GameOver = resp.State.GameOver
	if s.summary != nil {
		summary := *s.summary
		resp.Summary = &summary
		resp.GameOver = true
	}
	return resp
}

// dispatch applies an action through the session and reports the result.
func (s *Seat) dispatch(ctx context.Context, a game.GameAction) (*ToolResponse, error) {
	rejected, err := s.session.Apply(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("broadcast %s: %w", a, err)
	}
	resp := s.respond()
	if rejected != nil {
		resp.Rejected = rejected.Error()
	}
	return resp, nil
}

func yourMove(sv *net.StateView) bool {
	return !sv.GameOver && net.WaitingOn(sv) == sv.You
}

// respondJSON marshals a ToolResponse to a JSON string.
func respondJSON(resp *ToolResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}
