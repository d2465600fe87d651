package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Resteral/DiscordActivity/internal/player"
)

// FileStore keeps the snapshot as pretty-printed JSON on disk. A
// missing file loads as an empty snapshot so first boot just works.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Load(_ context.Context) (player.Snapshot, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return player.Snapshot{}, nil
	}
	if err != nil {
		return player.Snapshot{}, fmt.Errorf("store: read %s: %w", s.Path, err)
	}

	var snap player.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return player.Snapshot{}, fmt.Errorf("store: decode %s: %w", s.Path, err)
	}
	return snap, nil
}

func (s *FileStore) Save(_ context.Context, snap player.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}

	// write-then-rename so a crash mid-save never truncates the file
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("store: rename: %w", err)
	}
	return nil
}
