package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"qaforum_backend/internal/models"
	"qaforum_backend/internal/repositories"
	"qaforum_backend/internal/services/dto"
	"qaforum_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultNotificationTTL = 30 * 24 * time.Hour
	MaxNotificationContent = 500

	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

// Текст по умолчанию, если content не задан
var defaultNotificationContent = map[models.NotificationType]string{
	models.NotificationTypeAnswer:  "Someone answered your question",
	models.NotificationTypeComment: "Someone commented on your question/answer",
	models.NotificationTypeVote:    "Someone voted on your question/answer",
	models.NotificationTypeAccept:  "Your answer was accepted as the best answer",
	models.NotificationTypeMention: "Someone mentioned you in a comment",
	models.NotificationTypeBounty:  "A bounty was added to your question",
	models.NotificationTypeSystem:  "System notification",
}

// NotificationDraft - данные для создания уведомления
type NotificationDraft struct {
	Type           models.NotificationType
	RecipientID    string
	SenderID       string
	SenderUsername string
	QuestionID     *string
	AnswerID       *string
	CommentID      *string
	Content        string
	Metadata       map[string]any
}

type NotificationService interface {
	Create(ctx context.Context, db *gorm.DB, draft NotificationDraft) (*models.Notification, error)
	List(ctx context.Context, db *gorm.DB, userID string, criteria dto.NotificationCriteria) (*dto.NotificationListResponse, error)
	Get(ctx context.Context, db *gorm.DB, userID, notificationID string) (*dto.NotificationResponse, error)
	MarkRead(ctx context.Context, db *gorm.DB, userID, notificationID string) (*dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, db *gorm.DB, userID string) (int64, error)
	UnreadCount(ctx context.Context, db *gorm.DB, userID string) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, userID, notificationID string) error
	DeleteAll(ctx context.Context, db *gorm.DB, userID string) (int64, error)
	Stats(ctx context.Context, db *gorm.DB, userID string) (*repositories.NotificationStats, error)
	PurgeExpired(ctx context.Context, db *gorm.DB) (int64, error)
}

type NotificationServiceOption func(*notificationService)

// WithClock подменяет источник времени (тесты TTL)
func WithClock(now func() time.Time) NotificationServiceOption {
	return func(s *notificationService) { s.now = now }
}

func WithNotificationTTL(ttl time.Duration) NotificationServiceOption {
	return func(s *notificationService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	now              func() time.Time
	ttl              time.Duration
}

func NewNotificationService(notificationRepo repositories.NotificationRepository, opts ...NotificationServiceOption) NotificationService {
	s := &notificationService{
		notificationRepo: notificationRepo,
		now:              time.Now,
		ttl:              DefaultNotificationTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *notificationService) Create(ctx context.Context, db *gorm.DB, draft NotificationDraft) (*models.Notification, error) {
	if !draft.Type.IsValid() {
		return nil, apperrors.ValidationError(map[string]string{"type": "unknown notification type"})
	}
	if draft.RecipientID == "" || draft.SenderID == "" {
		return nil, apperrors.ValidationError(map[string]string{"recipient": "recipient and sender are required"})
	}

	content := draft.Content
	if content == "" {
		content = defaultNotificationContent[draft.Type]
	}

	var metadata datatypes.JSON
	if len(draft.Metadata) > 0 {
		raw, err := json.Marshal(draft.Metadata)
		if err != nil {
			return nil, apperrors.InternalError(fmt.Errorf("failed to marshal notification metadata: %w", err))
		}
		metadata = datatypes.JSON(raw)
	}

	now := s.now()
	notification := &models.Notification{
		Type:           draft.Type,
		RecipientID:    draft.RecipientID,
		SenderID:       draft.SenderID,
		SenderUsername: draft.SenderUsername,
		QuestionID:     draft.QuestionID,
		AnswerID:       draft.AnswerID,
		CommentID:      draft.CommentID,
		Content:        truncateRunes(content, MaxNotificationContent),
		Metadata:       metadata,
		ExpiresAt:      now.Add(s.ttl),
	}
	notification.CreatedAt = now
	notification.UpdatedAt = now

	if err := s.notificationRepo.Create(db.WithContext(ctx), notification); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return notification, nil
}

func (s *notificationService) List(ctx context.Context, db *gorm.DB, userID string, criteria dto.NotificationCriteria) (*dto.NotificationListResponse, error) {
	if criteria.Page < 1 {
		criteria.Page = 1
	}
	if criteria.Limit < 1 {
		criteria.Limit = defaultNotificationLimit
	}
	if criteria.Limit > maxNotificationLimit {
		criteria.Limit = maxNotificationLimit
	}

	db = db.WithContext(ctx)
	now := s.now()

	notifications, total, err := s.notificationRepo.FindByRecipient(db, userID, repositories.NotificationCriteria{
		UnreadOnly: criteria.UnreadOnly,
		Type:       models.NotificationType(criteria.Type),
		Page:       criteria.Page,
		Limit:      criteria.Limit,
	}, now)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	unread, err := s.notificationRepo.CountUnread(db, userID, now)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]*dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		items = append(items, dto.NewNotificationResponse(&notifications[i]))
	}

	totalPages := int(total) / criteria.Limit
	if int(total)%criteria.Limit > 0 {
		totalPages++
	}

	return &dto.NotificationListResponse{
		Notifications: items,
		Total:         total,
		Page:          criteria.Page,
		Limit:         criteria.Limit,
		TotalPages:    totalPages,
		UnreadCount:   unread,
	}, nil
}

func (s *notificationService) Get(ctx context.Context, db *gorm.DB, userID, notificationID string) (*dto.NotificationResponse, error) {
	notification, err := s.findOwned(db.WithContext(ctx), userID, notificationID)
	if err != nil {
		return nil, err
	}
	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) MarkRead(ctx context.Context, db *gorm.DB, userID, notificationID string) (*dto.NotificationResponse, error) {
	db = db.WithContext(ctx)

	notification, err := s.findOwned(db, userID, notificationID)
	if err != nil {
		return nil, err
	}

	// Повторная отметка не меняет readAt
	if !notification.IsRead {
		now := s.now()
		if err := s.notificationRepo.MarkAsRead(db, notification.ID, now); err != nil {
			return nil, apperrors.InternalError(err)
		}
		notification.IsRead = true
		notification.ReadAt = &now
	}
	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	updated, err := s.notificationRepo.MarkAllAsRead(db.WithContext(ctx), userID, s.now())
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return updated, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	count, err := s.notificationRepo.CountUnread(db.WithContext(ctx), userID, s.now())
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return count, nil
}

func (s *notificationService) Delete(ctx context.Context, db *gorm.DB, userID, notificationID string) error {
	db = db.WithContext(ctx)

	notification, err := s.findOwned(db, userID, notificationID)
	if err != nil {
		return err
	}
	if err := s.notificationRepo.Delete(db, notification.ID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *notificationService) DeleteAll(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	deleted, err := s.notificationRepo.DeleteByRecipient(db.WithContext(ctx), userID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return deleted, nil
}

func (s *notificationService) Stats(ctx context.Context, db *gorm.DB, userID string) (*repositories.NotificationStats, error) {
	stats, err := s.notificationRepo.Stats(db.WithContext(ctx), userID, s.now())
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return stats, nil
}

func (s *notificationService) PurgeExpired(ctx context.Context, db *gorm.DB) (int64, error) {
	return s.notificationRepo.DeleteExpired(db.WithContext(ctx), s.now())
}

// findOwned: отсутствующее или просроченное -> 404, чужое -> 403
func (s *notificationService) findOwned(db *gorm.DB, userID, notificationID string) (*models.Notification, error) {
	notification, err := s.notificationRepo.FindByID(db, notificationID, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	if notification.RecipientID != userID {
		return nil, apperrors.ErrNotificationAccessDenied
	}
	return notification, nil
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
