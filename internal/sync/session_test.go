package sync

import (
	"context"
	"io"
	"log/slog"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/starwake/internal/game"
)

// fakeTransport records sends and serves receives from a channel.
type fakeTransport struct {
	mu   gosync.Mutex
	sent []Envelope
	in   chan Envelope
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{in: make(chan Envelope, 16)}
}

func (f *fakeTransport) Send(_ context.Context, e Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, e)
	return nil
}

func (f *fakeTransport) Receive(ctx context.Context) (Envelope, error) {
	select {
	case e, ok := <-f.in:
		if !ok {
			return Envelope{}, ErrClosed
		}
		return e, nil
	case <-ctx.Done():
		return Envelope{}, ctx.Err()
	}
}

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) kinds() []Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Kind
	for _, e := range f.sent {
		out = append(out, e.Kind)
	}
	return out
}

func (f *fakeTransport) last() Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func (f *fakeTransport) count(k Kind) int {
	n := 0
	for _, got := range f.kinds() {
		if got == k {
			n++
		}
	}
	return n
}

type fakeClock struct {
	mu  gosync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newEngine(t *testing.T, seed int64) *game.Engine {
	t.Helper()
	e, err := game.NewEngine(game.Config{
		GameID: "sync-test",
		Players: []game.PlayerSpec{
			{ID: "p1", Name: "Host", Captain: game.CaptainNavigator},
			{ID: "p2", Name: "Guest", Captain: game.CaptainBroker},
		},
		Seed: seed,
	})
	require.NoError(t, err)
	return e
}

// twinEngines returns a host engine and a peer engine loaded from its export.
func twinEngines(t *testing.T) (*game.Engine, *game.Engine) {
	t.Helper()
	host := newEngine(t, 1)
	peer := newEngine(t, 2)
	require.NoError(t, peer.Load(host.Export()))
	return host, peer
}

func endTurnBy(e *game.Engine) game.GameAction {
	a := game.EndTurn()
	a.PlayerID = e.CurrentPlayerID()
	return a
}

func TestHostStartSendsSnapshot(t *testing.T) {
	tr := newFakeTransport()
	e := newEngine(t, 1)
	s := NewSession(e, tr, Options{PeerID: "p1", Host: true, Logger: quietLogger})

	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, []Kind{KindSnapshot}, tr.kinds())

	snap := tr.last()
	want, err := e.Hash()
	require.NoError(t, err)
	assert.Equal(t, want, snap.Hash)
	assert.Equal(t, "sync-test", snap.GameID)
	assert.NotEmpty(t, snap.ID)

	// Non-host participants wait for the host.
	peerTr := newFakeTransport()
	peer := NewSession(newEngine(t, 2), peerTr, Options{PeerID: "p2", Logger: quietLogger})
	require.NoError(t, peer.Start(context.Background()))
	assert.Empty(t, peerTr.kinds())
}

func TestApplyReturnsItsOwnRejection(t *testing.T) {
	s := NewSession(newEngine(t, 1), newFakeTransport(), Options{PeerID: "p1", Host: true, Logger: quietLogger})
	ctx := context.Background()

	rejected, err := s.Apply(ctx, game.Move(-1))
	require.NoError(t, err)
	require.ErrorIs(t, rejected, game.ErrOffTrack)

	rejected2, err := s.Apply(ctx, game.EndTurn())
	require.NoError(t, err)
	assert.NoError(t, rejected2)
	assert.NoError(t, s.Rejection(), "a later action resets the session's rejection")
	assert.ErrorIs(t, rejected, game.ErrOffTrack, "the first caller keeps its own verdict")
}

func TestHostDispatchAttachesHashAndCheckpoints(t *testing.T) {
	tr := newFakeTransport()
	e := newEngine(t, 1)
	s := NewSession(e, tr, Options{PeerID: "p1", Host: true, Logger: quietLogger})
	ctx := context.Background()

	ok, err := s.Dispatch(ctx, game.Move(-1))
	require.NoError(t, err)
	assert.False(t, ok, "moving off the track is rejected")
	assert.ErrorIs(t, s.Rejection(), game.ErrOffTrack)
	assert.Empty(t, tr.kinds(), "rejected actions are not broadcast")

	ok, err = s.Dispatch(ctx, game.EndTurn())
	require.NoError(t, err)
	require.True(t, ok)
	assert.NoError(t, s.Rejection())
	require.Equal(t, []Kind{KindAction, KindSnapshot}, tr.kinds())

	want, err := e.Hash()
	require.NoError(t, err)
	tr.mu.Lock()
	action := tr.sent[0]
	tr.mu.Unlock()
	assert.Equal(t, want, action.Hash)
	assert.Equal(t, "p1", action.Action.PlayerID)
	assert.Equal(t, game.ActionEndTurn, action.Action.Kind)
}

func TestPeerDispatchSendsActionOnly(t *testing.T) {
	tr := newFakeTransport()
	s := NewSession(newEngine(t, 1), tr, Options{PeerID: "p1", Logger: quietLogger})

	ok, err := s.Dispatch(context.Background(), game.EndTurn())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []Kind{KindAction}, tr.kinds())
	assert.Empty(t, tr.last().Hash)

	// Acting out of turn is refused locally.
	ok, err = s.Dispatch(context.Background(), game.EndTurn())
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestResyncAfterConsecutiveMismatches: two mismatches in a row emit one
// resync request; further mismatches inside the interval are suppressed.
func TestResyncAfterConsecutiveMismatches(t *testing.T) {
	host, peer := twinEngines(t)
	tr := newFakeTransport()
	clock := &fakeClock{now: time.Unix(1_000, 0)}
	s := NewSession(peer, tr, Options{PeerID: "p2", Logger: quietLogger, Now: clock.Now})
	ctx := context.Background()

	// In step: replaying the host's action reproduces its hash.
	a := endTurnBy(host)
	require.True(t, host.Dispatch(a))
	h, err := host.Hash()
	require.NoError(t, err)
	require.NoError(t, s.Handle(ctx, ActionMessage("sync-test", "p1", a, h)))
	assert.Equal(t, 0, s.Mismatches())

	bad := func() Envelope {
		var a game.GameAction
		s.View(func(e *game.Engine) { a = endTurnBy(e) })
		return ActionMessage("sync-test", "p1", a, "not-the-hash")
	}

	require.NoError(t, s.Handle(ctx, bad()))
	assert.Equal(t, 1, s.Mismatches())
	assert.Equal(t, 0, tr.count(KindResyncRequest))

	clock.Advance(2 * time.Second)
	require.NoError(t, s.Handle(ctx, bad()))
	assert.Equal(t, 1, tr.count(KindResyncRequest), "exactly one request after two mismatches")
	assert.Equal(t, 0, s.Mismatches())

	clock.Advance(3 * time.Second)
	require.NoError(t, s.Handle(ctx, bad()))
	require.NoError(t, s.Handle(ctx, bad()))
	assert.Equal(t, 1, tr.count(KindResyncRequest), "rate limited inside the interval")
	assert.Equal(t, 2, s.Mismatches())

	clock.Advance(10 * time.Second)
	require.NoError(t, s.Handle(ctx, bad()))
	assert.Equal(t, 2, tr.count(KindResyncRequest))
	assert.Equal(t, 0, s.Mismatches())
}

func TestMatchResetsMismatchCounter(t *testing.T) {
	host, peer := twinEngines(t)
	s := NewSession(peer, newFakeTransport(), Options{PeerID: "p2", Logger: quietLogger})
	ctx := context.Background()

	a := endTurnBy(host)
	require.True(t, host.Dispatch(a))
	require.NoError(t, s.Handle(ctx, ActionMessage("sync-test", "p1", a, "stale")))
	assert.Equal(t, 1, s.Mismatches())

	a = endTurnBy(host)
	require.True(t, host.Dispatch(a))
	h, err := host.Hash()
	require.NoError(t, err)
	require.NoError(t, s.Handle(ctx, ActionMessage("sync-test", "p1", a, h)))
	assert.Equal(t, 0, s.Mismatches())
}

func TestRejectedReplayCountsAsMismatch(t *testing.T) {
	_, peer := twinEngines(t)
	s := NewSession(peer, newFakeTransport(), Options{PeerID: "p2", Logger: quietLogger})

	// p2 is not the current player on the peer's engine.
	a := game.EndTurn()
	a.PlayerID = "p2"
	require.NoError(t, s.Handle(context.Background(), ActionMessage("sync-test", "p3", a, "")))
	assert.Equal(t, 1, s.Mismatches())
}

func TestSnapshotReplacesLocalState(t *testing.T) {
	host := newEngine(t, 1)
	peer := newEngine(t, 99)
	hh, err := host.Hash()
	require.NoError(t, err)
	ph, err := peer.Hash()
	require.NoError(t, err)
	require.NotEqual(t, hh, ph, "independent shuffles diverge")

	var changes []Kind
	s := NewSession(peer, newFakeTransport(), Options{
		PeerID:   "p2",
		Logger:   quietLogger,
		OnChange: func(e Envelope) { changes = append(changes, e.Kind) },
	})
	require.NoError(t, s.Handle(context.Background(), SnapshotMessage("sync-test", "p1", host.Export(), hh)))

	got, err := s.Hash()
	require.NoError(t, err)
	assert.Equal(t, hh, got)
	assert.Equal(t, []Kind{KindSnapshot}, changes)

	// The host ignores snapshots.
	hs := NewSession(host, newFakeTransport(), Options{PeerID: "p1", Host: true, Logger: quietLogger})
	require.NoError(t, hs.Handle(context.Background(), SnapshotMessage("sync-test", "p2", peer.Export(), "")))
	after, err := host.Hash()
	require.NoError(t, err)
	assert.Equal(t, hh, after)
}

func TestHostAnswersResyncRequest(t *testing.T) {
	tr := newFakeTransport()
	s := NewSession(newEngine(t, 1), tr, Options{PeerID: "p1", Host: true, Logger: quietLogger})
	require.NoError(t, s.Handle(context.Background(), ResyncRequest("sync-test", "p2")))
	assert.Equal(t, []Kind{KindSnapshot}, tr.kinds())

	// Its own echo is ignored.
	require.NoError(t, s.Handle(context.Background(), ResyncRequest("sync-test", "p1")))
	assert.Len(t, tr.kinds(), 1)
}

func TestHostCorrectsRejectedPeerAction(t *testing.T) {
	tr := newFakeTransport()
	s := NewSession(newEngine(t, 1), tr, Options{PeerID: "p1", Host: true, Logger: quietLogger})

	a := game.EndTurn()
	a.PlayerID = "p2"
	require.NoError(t, s.Handle(context.Background(), ActionMessage("sync-test", "p2", a, "")))
	assert.Equal(t, []Kind{KindSnapshot}, tr.kinds())
}

func TestGameOverSummary(t *testing.T) {
	tr := newFakeTransport()
	e := newEngine(t, 1)
	var got []GameOverSummary
	s := NewSession(e, tr, Options{
		PeerID:     "p1",
		Host:       true,
		Logger:     quietLogger,
		OnGameOver: func(g GameOverSummary) { got = append(got, g) },
	})
	s.View(func(e *game.Engine) {
		gs := e.Export()
		gs.Players[0].Fame = game.FameThreshold
		require.NoError(t, e.Load(gs))
	})
	ctx := context.Background()

	ok, err := s.Dispatch(ctx, game.EndTurn())
	require.NoError(t, err)
	require.True(t, ok)

	// The peer's end-turn closes the round on the host.
	a := game.EndTurn()
	a.PlayerID = "p2"
	require.NoError(t, s.Handle(ctx, ActionMessage("sync-test", "p2", a, "")))

	require.Equal(t, 1, tr.count(KindGameOver))
	msg := tr.last()
	require.Equal(t, KindGameOver, msg.Kind)
	assert.Equal(t, "p1", msg.GameOver.WinnerID)
	assert.Equal(t, "Host", msg.GameOver.WinnerName)
	assert.Len(t, msg.GameOver.Stats, 2)
	require.Len(t, got, 1)

	summary, ok := s.Summary()
	require.True(t, ok)
	assert.Equal(t, msg.GameOver.WinnerID, summary.WinnerID)

	// A peer learns the result from the host's broadcast.
	var peerGot GameOverSummary
	peer := NewSession(newEngine(t, 2), newFakeTransport(), Options{
		PeerID:     "p2",
		Logger:     quietLogger,
		OnGameOver: func(g GameOverSummary) { peerGot = g },
	})
	require.NoError(t, peer.Handle(ctx, msg))
	assert.Equal(t, "Host", peerGot.WinnerName)
}

func TestRunStopsOnClose(t *testing.T) {
	tr := newFakeTransport()
	s := NewSession(newEngine(t, 1), tr, Options{PeerID: "p2", Logger: quietLogger})
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	tr.in <- ResyncRequest("sync-test", "p1")
	close(tr.in)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}
