package models

type Answer struct {
	BaseModel
	QuestionID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_answer_question_author" json:"questionId"`
	AuthorID   string `gorm:"type:varchar(36);not null;uniqueIndex:idx_answer_question_author;index" json:"authorId"`
	Content    string `gorm:"type:text;not null" json:"content"`
	VoteScore  int    `gorm:"not null;default:0" json:"voteScore"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}
