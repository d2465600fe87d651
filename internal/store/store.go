package store

import (
	"context"

	"github.com/Resteral/DiscordActivity/internal/player"
)

// Store persists the player snapshot across restarts. The snapshot is
// deliberately flat: a player list plus the connected id.
type Store interface {
	Load(ctx context.Context) (player.Snapshot, error)
	Save(ctx context.Context, snap player.Snapshot) error
}
