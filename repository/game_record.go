package repository

import (
	"context"

	"task-center/models"

	"gorm.io/gorm"
)

type GameLaunchRecordRepository struct {
	db *gorm.DB
}

func NewGameLaunchRecordRepository(db *gorm.DB) *GameLaunchRecordRepository {
	return &GameLaunchRecordRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *GameLaunchRecordRepository) WithTx(tx *gorm.DB) *GameLaunchRecordRepository {
	return &GameLaunchRecordRepository{db: tx}
}

func (r *GameLaunchRecordRepository) Save(ctx context.Context, record *models.GameLaunchRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *GameLaunchRecordRepository) ExistsByUserIDAndGameID(ctx context.Context, userID, gameID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GameLaunchRecord{}).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Count(&count).Error
	return count > 0, err
}

// CountDistinctGamesLaunched counts the distinct games a user has ever
// launched, which is the LAUNCH_GAMES progress value.
func (r *GameLaunchRecordRepository) CountDistinctGamesLaunched(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GameLaunchRecord{}).
		Where("user_id = ?", userID).
		Distinct("game_id").
		Count(&count).Error
	return count, err
}

type GamePlayRecordRepository struct {
	db *gorm.DB
}

func NewGamePlayRecordRepository(db *gorm.DB) *GamePlayRecordRepository {
	return &GamePlayRecordRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *GamePlayRecordRepository) WithTx(tx *gorm.DB) *GamePlayRecordRepository {
	return &GamePlayRecordRepository{db: tx}
}

func (r *GamePlayRecordRepository) Save(ctx context.Context, record *models.GamePlayRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *GamePlayRecordRepository) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GamePlayRecord{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *GamePlayRecordRepository) SumScoreByUserID(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.GamePlayRecord{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(score), 0)").
		Scan(&total).Error
	return total, err
}
