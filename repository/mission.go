package repository

import (
	"context"
	"errors"
	"time"

	"task-center/models"

	"gorm.io/gorm"
)

type MissionRepository struct {
	db *gorm.DB
}

func NewMissionRepository(db *gorm.DB) *MissionRepository {
	return &MissionRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *MissionRepository) WithTx(tx *gorm.DB) *MissionRepository {
	return &MissionRepository{db: tx}
}

func (r *MissionRepository) Save(ctx context.Context, mission *models.Mission) error {
	return r.db.WithContext(ctx).Save(mission).Error
}

// CreateAll inserts mission rows in one transaction so initialization is
// all-or-nothing: a user ends up with every mission type or none.
func (r *MissionRepository) CreateAll(ctx context.Context, missions []*models.Mission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range missions {
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *MissionRepository) FindByUserID(ctx context.Context, userID uint) ([]models.Mission, error) {
	var missions []models.Mission
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&missions).Error
	return missions, err
}

func (r *MissionRepository) FindByUserIDAndType(ctx context.Context, userID uint, missionType models.MissionType) (*models.Mission, error) {
	var mission models.Mission
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND mission_type = ?", userID, missionType).
		First(&mission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMissionNotFound
		}
		return nil, err
	}
	return &mission, nil
}

func (r *MissionRepository) ExistsByUserIDAndType(ctx context.Context, userID uint, missionType models.MissionType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Mission{}).
		Where("user_id = ? AND mission_type = ?", userID, missionType).
		Count(&count).Error
	return count > 0, err
}

// AreAllMissionsCompleted reports whether the user has a completed row for
// every mission type.
func (r *MissionRepository) AreAllMissionsCompleted(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Mission{}).
		Where("user_id = ? AND is_completed = ?", userID, true).
		Count(&count).Error
	return count == int64(len(models.AllMissionTypes)), err
}

// ClaimUnrewarded flips every completed-but-unrewarded mission of the user
// to rewarded in a single conditional UPDATE and returns how many rows it
// captured. Concurrent "all missions complete" triggers race on this
// statement; only the caller that claims len(AllMissionTypes) rows may grant
// the completion reward, so the reward is granted at most once.
func (r *MissionRepository) ClaimUnrewarded(ctx context.Context, userID uint, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Mission{}).
		Where("user_id = ? AND is_completed = ? AND is_rewarded = ?", userID, true, false).
		Updates(map[string]interface{}{
			"is_rewarded": true,
			"rewarded_at": now,
			"updated_at":  now,
		})
	return res.RowsAffected, res.Error
}
