package repository

import (
	"context"
	"time"

	"task-center/models"

	"gorm.io/gorm"
)

type LoginRecordRepository struct {
	db *gorm.DB
}

func NewLoginRecordRepository(db *gorm.DB) *LoginRecordRepository {
	return &LoginRecordRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *LoginRecordRepository) WithTx(tx *gorm.DB) *LoginRecordRepository {
	return &LoginRecordRepository{db: tx}
}

func (r *LoginRecordRepository) Save(ctx context.Context, record *models.LoginRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *LoginRecordRepository) ExistsByUserIDAndDate(ctx context.Context, userID uint, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LoginRecord{}).
		Where("user_id = ? AND login_date = ?", userID, models.TruncateToDate(date)).
		Count(&count).Error
	return count > 0, err
}

// FindRecentByUserID returns up to limit records, newest first.
func (r *LoginRecordRepository) FindRecentByUserID(ctx context.Context, userID uint, limit int) ([]models.LoginRecord, error) {
	var records []models.LoginRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("login_date DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
