package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/starwake/internal/game"
	"github.com/peterkuimelis/starwake/internal/store"
)

func TestParsePlayers(t *testing.T) {
	players, err := parsePlayers([]string{"p1:Ada:navigator", "p2:Bo"})
	require.NoError(t, err)
	assert.Equal(t, []game.PlayerSpec{
		{ID: "p1", Name: "Ada", Captain: game.CaptainNavigator},
		{ID: "p2", Name: "Bo", Captain: game.CaptainVanguard},
	}, players)

	for _, bad := range []string{"p1", ":Ada", "p1:", "p1:Ada:admiral", "p1:Ada:raider:x"} {
		_, err := parsePlayers([]string{bad})
		assert.Error(t, err, bad)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--env-file", ""))
	err := root.Execute()
	return out.String(), err
}

func TestCheckpointsCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	for _, id := range []string{"alpha", "beta"} {
		require.NoError(t, st.Save(context.Background(), store.Checkpoint{
			GameID: id, Hash: "h-" + id, Payload: []byte("{}"), SavedBy: "p1", Turn: 3,
		}))
	}
	require.NoError(t, st.Close())

	out, err := run(t, "checkpoints", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "beta")
	assert.Contains(t, out, "turn 3")

	out, err = run(t, "checkpoints", "--db", path, "--delete", "alpha")
	require.NoError(t, err)
	assert.NotContains(t, out, "alpha")
	assert.Contains(t, out, "beta")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "starwake v"+version)
}

func TestLocalRejectsBadSeating(t *testing.T) {
	_, err := run(t, "local", "--players", "p1:Ada:admiral,p2:Bo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown captain")
}
