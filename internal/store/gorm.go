package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/Resteral/DiscordActivity/internal/player"
)

// playerRecord is the row shape for a persisted player. Stats are kept
// as a JSON blob; nothing queries individual stat columns.
type playerRecord struct {
	ID      string `gorm:"primaryKey"`
	Name    string
	Rating  int
	Balance int
	Stats   []byte
}

func (playerRecord) TableName() string { return "players" }

// metaRecord is a single-row table for snapshot-level fields.
type metaRecord struct {
	ID          int `gorm:"primaryKey"`
	ConnectedID string
}

func (metaRecord) TableName() string { return "registry_meta" }

// GormStore persists the snapshot to Postgres.
type GormStore struct {
	db *gorm.DB
}

func OpenGorm(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	if err := db.AutoMigrate(&playerRecord{}, &metaRecord{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Load(ctx context.Context) (player.Snapshot, error) {
	var records []playerRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return player.Snapshot{}, fmt.Errorf("store: load players: %w", err)
	}

	snap := player.Snapshot{}
	for _, rec := range records {
		p := player.Player{
			ID:      rec.ID,
			Name:    rec.Name,
			Rating:  rec.Rating,
			Balance: rec.Balance,
		}
		if len(rec.Stats) > 0 {
			if err := json.Unmarshal(rec.Stats, &p.Stats); err != nil {
				return player.Snapshot{}, fmt.Errorf("store: decode stats for %s: %w", rec.ID, err)
			}
		}
		snap.Players = append(snap.Players, p)
	}

	var meta metaRecord
	err := s.db.WithContext(ctx).First(&meta, 1).Error
	switch {
	case err == nil:
		snap.ConnectedID = meta.ConnectedID
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fresh database
	default:
		return player.Snapshot{}, fmt.Errorf("store: load meta: %w", err)
	}
	return snap, nil
}

func (s *GormStore) Save(ctx context.Context, snap player.Snapshot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range snap.Players {
			stats, err := json.Marshal(p.Stats)
			if err != nil {
				return fmt.Errorf("store: encode stats for %s: %w", p.ID, err)
			}
			rec := playerRecord{
				ID:      p.ID,
				Name:    p.Name,
				Rating:  p.Rating,
				Balance: p.Balance,
				Stats:   stats,
			}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
				return fmt.Errorf("store: upsert player %s: %w", p.ID, err)
			}
		}
		meta := metaRecord{ID: 1, ConnectedID: snap.ConnectedID}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&meta).Error; err != nil {
			return fmt.Errorf("store: upsert meta: %w", err)
		}
		return nil
	})
}
