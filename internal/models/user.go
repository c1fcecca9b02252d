package models

type User struct {
	BaseModel
	Username           string  `gorm:"uniqueIndex;not null;size:50" json:"username"`
	Email              string  `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash       string  `gorm:"not null" json:"-"`
	APITokenHash       *string `gorm:"uniqueIndex;size:64" json:"-"`
	IsActive           bool    `gorm:"not null;default:true" json:"isActive"`
	EmailNotifications bool    `gorm:"not null;default:false" json:"emailNotifications"`
}
