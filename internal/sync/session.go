package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/peterkuimelis/starwake/internal/game"
)

const (
	DefaultResyncInterval  = 10 * time.Second
	DefaultDesyncThreshold = 2
)

// Options configures a Session.
type Options struct {
	// PeerID identifies this participant on the wire. Local actions are
	// stamped with it as the acting player.
	PeerID string
	// Host marks the authoritative participant. Exactly one peer is host.
	Host bool

	ResyncInterval  time.Duration // minimum gap between resync requests
	DesyncThreshold int           // consecutive mismatches before a resync

	Logger *slog.Logger
	// Now is the clock used for resync rate limiting.
	Now func() time.Time
	// OnChange runs after every applied local or remote message, with the
	// session lock released.
	OnChange func(Envelope)
	// OnGameOver runs when the host's summary arrives or, on the host, when
	// the game ends.
	OnGameOver func(GameOverSummary)
}

// Session keeps one local engine in step with its peers. The host pushes
// snapshots and hashes; other participants replay actions and resync when
// their hash drifts from the host's.
type Session struct {
	mu        gosync.Mutex
	engine    *game.Engine
	transport Transport
	opts      Options
	log       *slog.Logger
	limiter   *rate.Limiter

	mismatches int
	resyncs    int
	summary    *GameOverSummary
	rejected   error
}

// NewSession wraps an engine and a transport.
func NewSession(engine *game.Engine, transport Transport, opts Options) *Session {
	if opts.ResyncInterval <= 0 {
		opts.ResyncInterval = DefaultResyncInterval
	}
	if opts.DesyncThreshold <= 0 {
		opts.DesyncThreshold = DefaultDesyncThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	role := "peer"
	if opts.Host {
		role = "host"
	}
	return &Session{
		engine:    engine,
		transport: transport,
		opts:      opts,
		log:       logger.With("peer", opts.PeerID, "role", role),
		limiter:   rate.NewLimiter(rate.Every(opts.ResyncInterval), 1),
	}
}

// IsHost reports whether this session is authoritative.
func (s *Session) IsHost() bool {
	return s.opts.Host
}

// PeerID returns the participant id used on the wire.
func (s *Session) PeerID() string {
	return s.opts.PeerID
}

// Start pushes the host's initial snapshot. Other participants do nothing.
func (s *Session) Start(ctx context.Context) error {
	if !s.opts.Host {
		return nil
	}
	s.mu.Lock()
	env, err := s.snapshotLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.send(ctx, env)
}

// Dispatch applies a local action and broadcasts it. It returns the
// engine's verdict; a rejected action is not broadcast. The host also
// checkpoints after every end-turn and announces the game's end.
func (s *Session) Dispatch(ctx context.Context, a game.GameAction) (bool, error) {
	rejected, err := s.Apply(ctx, a)
	return rejected == nil, err
}

// Apply is Dispatch reporting the engine's rejection of a itself, so
// callers need not read Rejection after another action may have reset it.
func (s *Session) Apply(ctx context.Context, a game.GameAction) (rejected, err error) {
	if a.PlayerID == "" {
		a.PlayerID = s.opts.PeerID
	}

	s.mu.Lock()
	s.rejected = nil
	if !s.engine.Dispatch(a) {
		rejected = s.engine.LastError()
		s.rejected = rejected
		s.mu.Unlock()
		s.log.Debug("action rejected", "action", a.String(), "error", rejected)
		return rejected, nil
	}

	var hash string
	if s.opts.Host {
		h, err := s.engine.Hash()
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		hash = h
	}
	out := []Envelope{ActionMessage(s.gameID(), s.opts.PeerID, a, hash)}
	var summary *GameOverSummary
	if s.opts.Host {
		if a.Kind == game.ActionEndTurn {
			snap, err := s.snapshotLocked()
			if err != nil {
				s.mu.Unlock()
				return nil, err
			}
			out = append(out, snap)
		}
		if msg, ok := s.gameOverLocked(); ok {
			out = append(out, msg)
			summary = msg.GameOver
		}
	}
	s.mu.Unlock()

	s.changed(out[0])
	if summary != nil && s.opts.OnGameOver != nil {
		s.opts.OnGameOver(*summary)
	}
	for _, env := range out {
		if err := s.send(ctx, env); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// Run receives and handles peer messages until ctx ends or the transport
// fails.
func (s *Session) Run(ctx context.Context) error {
	for {
		env, err := s.transport.Receive(ctx)
		if err != nil {
			if errors.Is(err, ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}
		if err := s.Handle(ctx, env); err != nil {
			s.log.Warn("handle message", "kind", env.Kind, "id", env.ID, "error", err)
		}
	}
}

// Handle applies one peer message.
func (s *Session) Handle(ctx context.Context, env Envelope) error {
	if err := env.Validate(); err != nil {
		return err
	}
	if env.From == s.opts.PeerID {
		return nil
	}
	switch env.Kind {
	case KindAction:
		return s.handleAction(ctx, env)
	case KindSnapshot:
		return s.handleSnapshot(env)
	case KindResyncRequest:
		return s.handleResyncRequest(ctx, env)
	case KindGameOver:
		s.mu.Lock()
		summary := *env.GameOver
		s.summary = &summary
		s.mu.Unlock()
		s.log.Info("game over", "winner", summary.WinnerName)
		s.changed(env)
		if s.opts.OnGameOver != nil {
			s.opts.OnGameOver(summary)
		}
	}
	return nil
}

func (s *Session) handleAction(ctx context.Context, env Envelope) error {
	a := *env.Action
	s.mu.Lock()
	ok := s.engine.Dispatch(a)
	rejectErr := s.engine.LastError()

	var out []Envelope
	var summary *GameOverSummary
	if s.opts.Host {
		// A peer's action the host cannot apply means that peer drifted;
		// push the authoritative state back.
		if !ok || a.Kind == game.ActionEndTurn {
			snap, err := s.snapshotLocked()
			if err != nil {
				s.mu.Unlock()
				return err
			}
			out = append(out, snap)
		}
		if msg, done := s.gameOverLocked(); done {
			out = append(out, msg)
			summary = msg.GameOver
		}
	} else if env.Hash != "" || !ok {
		if req, send := s.checkHashLocked(env.Hash, ok); send {
			out = append(out, req)
		}
	}
	s.mu.Unlock()

	if !ok {
		s.log.Warn("replayed action rejected", "action", a.String(), "from", env.From, "error", rejectErr)
	}
	s.changed(env)
	if summary != nil && s.opts.OnGameOver != nil {
		s.opts.OnGameOver(*summary)
	}
	for _, e := range out {
		if err := s.send(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// checkHashLocked compares the local hash after a replay with the host's.
// A rejected replay counts as a mismatch.
func (s *Session) checkHashLocked(want string, applied bool) (Envelope, bool) {
	match := applied
	if applied {
		got, err := s.engine.Hash()
		match = err == nil && got == want
	}
	if match {
		s.mismatches = 0
		return Envelope{}, false
	}
	s.mismatches++
	s.log.Debug("state hash mismatch", "count", s.mismatches)
	if s.mismatches < s.opts.DesyncThreshold {
		return Envelope{}, false
	}
	if !s.limiter.AllowN(s.opts.Now(), 1) {
		s.log.Debug("resync suppressed by rate limit", "count", s.mismatches)
		return Envelope{}, false
	}
	s.mismatches = 0
	s.resyncs++
	s.log.Warn("desync detected, requesting snapshot", "resyncs", s.resyncs)
	return ResyncRequest(s.gameID(), s.opts.PeerID), true
}

func (s *Session) handleSnapshot(env Envelope) error {
	if s.opts.Host {
		return nil
	}
	s.mu.Lock()
	if err := s.engine.Load(env.State); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("load snapshot: %w", err)
	}
	s.mismatches = 0
	got, err := s.engine.Hash()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if env.Hash != "" && got != env.Hash {
		s.log.Warn("snapshot hash differs after load", "want", env.Hash, "got", got)
	}
	s.log.Debug("snapshot loaded", "hash", got)
	s.changed(env)
	return nil
}

func (s *Session) handleResyncRequest(ctx context.Context, env Envelope) error {
	if !s.opts.Host {
		return nil
	}
	s.log.Info("resync requested", "from", env.From)
	s.mu.Lock()
	snap, err := s.snapshotLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.send(ctx, snap)
}

func (s *Session) snapshotLocked() (Envelope, error) {
	hash, err := s.engine.Hash()
	if err != nil {
		return Envelope{}, err
	}
	return SnapshotMessage(s.gameID(), s.opts.PeerID, s.engine.Export(), hash), nil
}

// gameOverLocked builds the summary the first time the game is seen over.
func (s *Session) gameOverLocked() (Envelope, bool) {
	if s.summary != nil || !s.engine.GameOver() {
		return Envelope{}, false
	}
	standings := s.engine.Standings()
	summary := GameOverSummary{Stats: standings}
	if len(standings) > 0 {
		summary.WinnerID = standings[0].PlayerID
		summary.WinnerName = standings[0].Name
	}
	s.summary = &summary
	return GameOverMessage(s.gameID(), s.opts.PeerID, summary), true
}

func (s *Session) gameID() string {
	return s.engine.GameID()
}

func (s *Session) send(ctx context.Context, env Envelope) error {
	if err := s.transport.Send(ctx, env); err != nil {
		return fmt.Errorf("send %s: %w", env.Kind, err)
	}
	return nil
}

func (s *Session) changed(env Envelope) {
	if s.opts.OnChange != nil {
		s.opts.OnChange(env)
	}
}

// View runs fn with exclusive access to the engine. fn must not dispatch.
func (s *Session) View(fn func(e *game.Engine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.engine)
}

// Hash returns the local state hash.
func (s *Session) Hash() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Hash()
}

// Mismatches returns the current consecutive mismatch count.
func (s *Session) Mismatches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mismatches
}

// Rejection returns why the last local Dispatch was refused, or nil.
func (s *Session) Rejection() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rejected
}

// Summary returns the game-over summary once known.
func (s *Session) Summary() (GameOverSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return GameOverSummary{}, false
	}
	return *s.summary, true
}
