package models

import "gorm.io/datatypes"

type Comment struct {
	BaseModel
	AnswerID string `gorm:"type:varchar(36);not null;index" json:"answerId"`
	AuthorID string `gorm:"type:varchar(36);not null" json:"authorId"`
	Content  string `gorm:"type:text;not null" json:"content"`
	// Mentions - JSON массив ID упомянутых пользователей
	Mentions datatypes.JSON `json:"mentions"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}
