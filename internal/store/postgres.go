package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type lobbyRow struct {
	ID        string `gorm:"primaryKey;size:32"`
	CreatorID string `gorm:"size:32"`
	Topic     string
}

func (lobbyRow) TableName() string { return "lobbies" }

type participantRow struct {
	LobbyID string `gorm:"primaryKey;size:32"`
	UserID  string `gorm:"primaryKey;size:32"`
	Name    string
}

func (participantRow) TableName() string { return "lobby_participants" }

// PostgresStore persists lobby state in Postgres. Lobby deletion removes the
// lobby row and its participant rows in one transaction.
type PostgresStore struct {
	db *gorm.DB
}

func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	if err := db.AutoMigrate(&lobbyRow{}, &participantRow{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) CreateLobby(ctx context.Context, l Lobby) error {
	row := lobbyRow{ID: l.ID, CreatorID: l.CreatorID, Topic: l.Topic}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("store: create lobby: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetLobby(ctx context.Context, id string) (Lobby, error) {
	var row lobbyRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Lobby{}, ErrNotFound
	}
	if err != nil {
		return Lobby{}, fmt.Errorf("store: get lobby: %w", err)
	}
	return Lobby{ID: row.ID, CreatorID: row.CreatorID, Topic: row.Topic}, nil
}

func (s *PostgresStore) DeleteLobby(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&participantRow{}, "lobby_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&lobbyRow{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("store: delete lobby: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddParticipant(ctx context.Context, lobbyID, userID, name string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row lobbyRow
		if err := tx.First(&row, "id = ?", lobbyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lobby_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).Create(&participantRow{LobbyID: lobbyID, UserID: userID, Name: name}).Error
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: add participant: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveParticipant(ctx context.Context, lobbyID, userID string) error {
	err := s.db.WithContext(ctx).
		Delete(&participantRow{}, "lobby_id = ? AND user_id = ?", lobbyID, userID).Error
	if err != nil {
		return fmt.Errorf("store: remove participant: %w", err)
	}
	return nil
}

func (s *PostgresStore) Participants(ctx context.Context, lobbyID string) ([]Participant, error) {
	var lobby lobbyRow
	err := s.db.WithContext(ctx).First(&lobby, "id = ?", lobbyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: lookup lobby: %w", err)
	}

	var rows []participantRow
	if err := s.db.WithContext(ctx).Find(&rows, "lobby_id = ?", lobbyID).Error; err != nil {
		return nil, fmt.Errorf("store: list participants: %w", err)
	}
	out := make([]Participant, 0, len(rows))
	for _, r := range rows {
		out = append(out, Participant{UserID: r.UserID, Name: r.Name})
	}
	return out, nil
}
