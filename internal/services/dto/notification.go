package dto

import (
	"encoding/json"
	"time"

	"qaforum_backend/internal/models"
)

// NotificationCriteria - query параметры списка
type NotificationCriteria struct {
	Page       int    `form:"page" json:"page" validate:"omitempty,min=1"`
	Limit      int    `form:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
	UnreadOnly bool   `form:"unreadOnly" json:"unreadOnly"`
	Type       string `form:"type" json:"type" validate:"omitempty,is-notification-type"`
}

type NotificationResponse struct {
	ID         string                  `json:"id"`
	Type       models.NotificationType `json:"type"`
	Content    string                  `json:"content"`
	QuestionID *string                 `json:"questionId,omitempty"`
	AnswerID   *string                 `json:"answerId,omitempty"`
	CommentID  *string                 `json:"commentId,omitempty"`
	Sender     string                  `json:"sender"`
	Username   string                  `json:"username"`
	IsRead     bool                    `json:"isRead"`
	ReadAt     *time.Time              `json:"readAt,omitempty"`
	Metadata   map[string]any          `json:"metadata,omitempty"`
	CreatedAt  time.Time               `json:"createdAt"`
	ExpiresAt  time.Time               `json:"expiresAt"`
}

type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	Total         int64                   `json:"total"`
	Page          int                     `json:"page"`
	Limit         int                     `json:"limit"`
	TotalPages    int                     `json:"totalPages"`
	UnreadCount   int64                   `json:"unreadCount"`
}

// NotificationEvent is the payload pushed on the real-time channel.
type NotificationEvent struct {
	ID         string                  `json:"id"`
	Type       models.NotificationType `json:"type"`
	Content    string                  `json:"content"`
	QuestionID *string                 `json:"questionId,omitempty"`
	AnswerID   *string                 `json:"answerId,omitempty"`
	CommentID  *string                 `json:"commentId,omitempty"`
	Username   string                  `json:"username"`
	Sender     string                  `json:"sender"`
	CreatedAt  time.Time               `json:"createdAt"`
}

func NewNotificationResponse(n *models.Notification) *NotificationResponse {
	resp := &NotificationResponse{
		ID:         n.ID,
		Type:       n.Type,
		Content:    n.Content,
		QuestionID: n.QuestionID,
		AnswerID:   n.AnswerID,
		CommentID:  n.CommentID,
		Sender:     n.SenderID,
		Username:   n.SenderUsername,
		IsRead:     n.IsRead,
		ReadAt:     n.ReadAt,
		CreatedAt:  n.CreatedAt,
		ExpiresAt:  n.ExpiresAt,
	}
	if len(n.Metadata) > 0 {
		_ = json.Unmarshal(n.Metadata, &resp.Metadata)
	}
	return resp
}

func NewNotificationEvent(n *models.Notification) NotificationEvent {
	return NotificationEvent{
		ID:         n.ID,
		Type:       n.Type,
		Content:    n.Content,
		QuestionID: n.QuestionID,
		AnswerID:   n.AnswerID,
		CommentID:  n.CommentID,
		Username:   n.SenderUsername,
		Sender:     n.SenderID,
		CreatedAt:  n.CreatedAt,
	}
}
