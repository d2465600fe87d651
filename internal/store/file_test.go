package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Resteral/DiscordActivity/internal/player"
)

func TestFileStore_MissingFileLoadsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "players.json"))

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, snap.Players)
	require.Empty(t, snap.ConnectedID)
}

func TestFileStore_RoundTrip(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "players.json"))

	in := player.Snapshot{
		Players: []player.Player{
			{ID: "p1", Name: "Ovie", Rating: 1042, Balance: 860, Stats: player.Stats{Goals: 7, Games: 3}},
			{ID: "p2", Name: "Sid", Rating: 958, Balance: 1140},
		},
		ConnectedID: "p1",
	}
	require.NoError(t, s.Save(context.Background(), in))

	out, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "players.json"))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, player.Snapshot{Players: []player.Player{{ID: "p1"}, {ID: "p2"}}}))
	require.NoError(t, s.Save(ctx, player.Snapshot{Players: []player.Player{{ID: "p3"}}}))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out.Players, 1)
	require.Equal(t, "p3", out.Players[0].ID)
}

func TestFileStore_CorruptFileFailsLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.json")
	s := NewFileStore(path)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := s.Load(context.Background())
	require.Error(t, err)
}
