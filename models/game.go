package models

import (
	"errors"
	"strings"
	"time"
)

type Game struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	GameCode    string    `json:"game_code" gorm:"uniqueIndex;not null"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewGame creates an active game. Code uniqueness is enforced by the store.
func NewGame(code, name, description string) (*Game, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" {
		return nil, errors.New("game code must not be empty")
	}
	if name == "" {
		return nil, errors.New("game name must not be empty")
	}
	return &Game{
		GameCode:    code,
		Name:        name,
		Description: description,
		IsActive:    true,
	}, nil
}

// GameLaunchRecord marks that a user launched a game. Only the first launch
// per (user, game) matters for missions; the launch command skips repeats.
type GameLaunchRecord struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"not null;index:idx_launch_user_game"`
	GameID     uint      `json:"game_id" gorm:"not null;index:idx_launch_user_game"`
	LaunchedAt time.Time `json:"launched_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewGameLaunchRecord(userID, gameID uint, at time.Time) *GameLaunchRecord {
	return &GameLaunchRecord{
		UserID:     userID,
		GameID:     gameID,
		LaunchedAt: at,
	}
}

// GamePlayRecord is an append-only play fact contributing to the play-count
// and score-sum aggregates.
type GamePlayRecord struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"not null;index"`
	GameID       uint      `json:"game_id" gorm:"not null"`
	Score        int       `json:"score" gorm:"not null"`
	PlayDuration int       `json:"play_duration" gorm:"not null"` // seconds
	PlayedAt     time.Time `json:"played_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewGamePlayRecord(userID, gameID uint, score, playDuration int, at time.Time) (*GamePlayRecord, error) {
	if score < 0 {
		return nil, errors.New("score must not be negative")
	}
	if playDuration <= 0 {
		return nil, errors.New("play duration must be positive")
	}
	return &GamePlayRecord{
		UserID:       userID,
		GameID:       gameID,
		Score:        score,
		PlayDuration: playDuration,
		PlayedAt:     at,
	}, nil
}
