package models

import (
	"time"

	"gorm.io/datatypes"
)

type Notification struct {
	BaseModel
	Type           NotificationType `gorm:"type:varchar(16);not null;index" json:"type"`
	RecipientID    string           `gorm:"type:varchar(36);not null;index:idx_notification_recipient_read" json:"recipientId"`
	SenderID       string           `gorm:"type:varchar(36);not null" json:"senderId"`
	SenderUsername string           `gorm:"size:50" json:"username"`
	QuestionID     *string          `gorm:"type:varchar(36)" json:"questionId,omitempty"`
	AnswerID       *string          `gorm:"type:varchar(36)" json:"answerId,omitempty"`
	CommentID      *string          `gorm:"type:varchar(36)" json:"commentId,omitempty"`
	Content        string           `gorm:"size:500;not null" json:"content"`
	IsRead         bool             `gorm:"not null;default:false;index:idx_notification_recipient_read" json:"isRead"`
	ReadAt         *time.Time       `json:"readAt,omitempty"`
	IsEmailSent    bool             `gorm:"not null;default:false" json:"-"`
	Metadata       datatypes.JSON   `json:"metadata,omitempty"`
	ExpiresAt      time.Time        `gorm:"not null;index" json:"expiresAt"`
}
