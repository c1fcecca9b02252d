package repositories

import (
	"errors"
	"time"

	"qaforum_backend/internal/models"

	"gorm.io/gorm"
)

// NotificationCriteria - фильтр списка уведомлений получателя
type NotificationCriteria struct {
	UnreadOnly bool
	Type       models.NotificationType
	Page       int
	Limit      int
}

// NotificationStats - сводка по уведомлениям пользователя
type NotificationStats struct {
	Total  int64            `json:"total"`
	Unread int64            `json:"unread"`
	ByType map[string]int64 `json:"byType"`
	// UnreadByType считает только непрочитанные
	UnreadByType map[string]int64 `json:"unreadByType"`
}

// Every read takes now and ignores rows whose expires_at has passed, whether or
// not the sweeper has removed them yet.
type NotificationRepository interface {
	Create(db *gorm.DB, notification *models.Notification) error
	FindByID(db *gorm.DB, id string, now time.Time) (*models.Notification, error)
	FindByRecipient(db *gorm.DB, recipientID string, criteria NotificationCriteria, now time.Time) ([]models.Notification, int64, error)
	CountUnread(db *gorm.DB, recipientID string, now time.Time) (int64, error)
	MarkAsRead(db *gorm.DB, id string, at time.Time) error
	MarkAllAsRead(db *gorm.DB, recipientID string, at time.Time) (int64, error)
	Delete(db *gorm.DB, id string) error
	DeleteByRecipient(db *gorm.DB, recipientID string) (int64, error)
	Stats(db *gorm.DB, recipientID string, now time.Time) (*NotificationStats, error)
	DeleteExpired(db *gorm.DB, now time.Time) (int64, error)

	// Email queue support
	FindPendingEmail(db *gorm.DB, types []models.NotificationType, now time.Time, limit int) ([]models.Notification, error)
	MarkEmailSent(db *gorm.DB, id string) error
}

type NotificationRepositoryImpl struct{}

func NewNotificationRepository() NotificationRepository {
	return &NotificationRepositoryImpl{}
}

func (r *NotificationRepositoryImpl) Create(db *gorm.DB, notification *models.Notification) error {
	return db.Create(notification).Error
}

func (r *NotificationRepositoryImpl) FindByID(db *gorm.DB, id string, now time.Time) (*models.Notification, error) {
	var notification models.Notification
	err := live(db, now).First(&notification, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (r *NotificationRepositoryImpl) FindByRecipient(db *gorm.DB, recipientID string, criteria NotificationCriteria, now time.Time) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	query := live(db, now).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
	if criteria.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if criteria.Type != "" {
		query = query.Where("type = ?", criteria.Type)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (criteria.Page - 1) * criteria.Limit
	err := query.
		Order("created_at DESC, id DESC").
		Limit(criteria.Limit).
		Offset(offset).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *NotificationRepositoryImpl) CountUnread(db *gorm.DB, recipientID string, now time.Time) (int64, error) {
	var count int64
	err := live(db, now).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepositoryImpl) MarkAsRead(db *gorm.DB, id string, at time.Time) error {
	return db.Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_read": true, "read_at": at}).Error
}

func (r *NotificationRepositoryImpl) MarkAllAsRead(db *gorm.DB, recipientID string, at time.Time) (int64, error) {
	result := live(db, at).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	return result.RowsAffected, result.Error
}

func (r *NotificationRepositoryImpl) Delete(db *gorm.DB, id string) error {
	return db.Where("id = ?", id).Delete(&models.Notification{}).Error
}

func (r *NotificationRepositoryImpl) DeleteByRecipient(db *gorm.DB, recipientID string) (int64, error) {
	result := db.Where("recipient_id = ?", recipientID).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

func (r *NotificationRepositoryImpl) Stats(db *gorm.DB, recipientID string, now time.Time) (*NotificationStats, error) {
	stats := &NotificationStats{
		ByType:       make(map[string]int64),
		UnreadByType: make(map[string]int64),
	}

	var rows []struct {
		Type   string
		IsRead bool
		Count  int64
	}
	err := live(db, now).Model(&models.Notification{}).
		Select("type, is_read, COUNT(*) as count").
		Where("recipient_id = ?", recipientID).
		Group("type, is_read").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		stats.Total += row.Count
		stats.ByType[row.Type] += row.Count
		if !row.IsRead {
			stats.Unread += row.Count
			stats.UnreadByType[row.Type] += row.Count
		}
	}
	return stats, nil
}

func (r *NotificationRepositoryImpl) DeleteExpired(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Where("expires_at <= ?", now).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

func (r *NotificationRepositoryImpl) FindPendingEmail(db *gorm.DB, types []models.NotificationType, now time.Time, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	if len(types) == 0 {
		return notifications, nil
	}
	err := live(db, now).
		Where("is_email_sent = ? AND type IN ?", false, types).
		Order("created_at ASC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepositoryImpl) MarkEmailSent(db *gorm.DB, id string) error {
	return db.Model(&models.Notification{}).Where("id = ?", id).Update("is_email_sent", true).Error
}

func live(db *gorm.DB, now time.Time) *gorm.DB {
	return db.Where("expires_at > ?", now)
}
