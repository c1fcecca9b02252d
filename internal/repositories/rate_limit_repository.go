package repositories

import (
	"errors"
	"time"

	"qaforum_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RateLimitRepository interface {
	// LockBucket creates the bucket row if needed and locks it for the transaction.
	LockBucket(tx *gorm.DB, key string, now time.Time) error
	CountHitsSince(tx *gorm.DB, key string, since time.Time) (int64, error)
	OldestHitSince(tx *gorm.DB, key string, since time.Time) (time.Time, error)
	AddHit(tx *gorm.DB, key string, at time.Time) error
	DeleteHitsBefore(db *gorm.DB, before time.Time) (int64, error)
}

type RateLimitRepositoryImpl struct{}

func NewRateLimitRepository() RateLimitRepository {
	return &RateLimitRepositoryImpl{}
}

func (r *RateLimitRepositoryImpl) LockBucket(tx *gorm.DB, key string, now time.Time) error {
	bucket := models.RateLimitBucket{Key: key, CreatedAt: now}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&bucket).Error; err != nil {
		return err
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&models.RateLimitBucket{}, "bucket_key = ?", key).Error
}

func (r *RateLimitRepositoryImpl) CountHitsSince(tx *gorm.DB, key string, since time.Time) (int64, error) {
	var count int64
	err := tx.Model(&models.RateLimitHit{}).
		Where("bucket_key = ? AND hit_at > ?", key, since).
		Count(&count).Error
	return count, err
}

func (r *RateLimitRepositoryImpl) OldestHitSince(tx *gorm.DB, key string, since time.Time) (time.Time, error) {
	var hit models.RateLimitHit
	err := tx.Where("bucket_key = ? AND hit_at > ?", key, since).Order("hit_at ASC").First(&hit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return hit.HitAt, nil
}

func (r *RateLimitRepositoryImpl) AddHit(tx *gorm.DB, key string, at time.Time) error {
	return tx.Create(&models.RateLimitHit{Key: key, HitAt: at}).Error
}

func (r *RateLimitRepositoryImpl) DeleteHitsBefore(db *gorm.DB, before time.Time) (int64, error) {
	result := db.Where("hit_at <= ?", before).Delete(&models.RateLimitHit{})
	return result.RowsAffected, result.Error
}
