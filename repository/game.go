package repository

import (
	"context"
	"errors"

	"task-center/models"

	"gorm.io/gorm"
)

type GameRepository struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) Save(ctx context.Context, game *models.Game) error {
	return r.db.WithContext(ctx).Save(game).Error
}

func (r *GameRepository) FindByCode(ctx context.Context, gameCode string) (*models.Game, error) {
	var game models.Game
	if err := r.db.WithContext(ctx).Where("game_code = ?", gameCode).First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return &game, nil
}

func (r *GameRepository) FindAllActive(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&games).Error
	return games, err
}
