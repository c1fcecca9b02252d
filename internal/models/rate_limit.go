package models

import "time"

// RateLimitBucket is locked per key so that concurrent processes serialize
// their sliding-window checks on the same identity.
type RateLimitBucket struct {
	Key       string `gorm:"column:bucket_key;primaryKey;size:191"`
	CreatedAt time.Time
}

type RateLimitHit struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Key   string    `gorm:"column:bucket_key;size:191;not null;index:idx_rate_limit_key_time"`
	HitAt time.Time `gorm:"not null;index:idx_rate_limit_key_time"`
}
