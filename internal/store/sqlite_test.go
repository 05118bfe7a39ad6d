package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "checkpoints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndLatest(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, Checkpoint{
		GameID: "g1", Hash: "h1", Payload: []byte(`{"n":1}`), SavedBy: "p1", Turn: 1, UpdatedAt: at,
	}))
	require.NoError(t, s.Save(ctx, Checkpoint{
		GameID: "g1", Hash: "h2", Payload: []byte(`{"n":2}`), SavedBy: "p1", Turn: 2, UpdatedAt: at.Add(time.Minute),
	}))

	cp, err := s.Latest(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "h2", cp.Hash)
	assert.JSONEq(t, `{"n":2}`, string(cp.Payload))
	assert.Equal(t, 2, cp.Turn)
	assert.Equal(t, "p1", cp.SavedBy)
	assert.True(t, cp.UpdatedAt.Equal(at.Add(time.Minute)))
}

func TestLatestMissing(t *testing.T) {
	s := openTempStore(t)
	_, err := s.Latest(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGamesAndDelete(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(ctx, Checkpoint{GameID: "old", Payload: []byte("a"), UpdatedAt: at}))
	require.NoError(t, s.Save(ctx, Checkpoint{GameID: "new", Payload: []byte("b"), UpdatedAt: at.Add(time.Hour)}))

	ids, err := s.Games(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, ids)

	require.NoError(t, s.Delete(ctx, "old"))
	require.NoError(t, s.Delete(ctx, "old"))
	ids, err = s.Games(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids)
}

func TestSaveValidation(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	assert.Error(t, s.Save(ctx, Checkpoint{Payload: []byte("x")}))
	assert.Error(t, s.Save(ctx, Checkpoint{GameID: "g1"}))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.Save(cancelled, Checkpoint{GameID: "g1", Payload: []byte("x")}), context.Canceled)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), Checkpoint{GameID: "g1", Hash: "h", Payload: []byte("x")}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	cp, err := s.Latest(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "h", cp.Hash)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}
