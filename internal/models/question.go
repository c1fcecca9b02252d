package models

type Question struct {
	BaseModel
	AuthorID         string  `gorm:"type:varchar(36);not null;index" json:"authorId"`
	Title            string  `gorm:"not null;size:300" json:"title"`
	Content          string  `gorm:"type:text;not null" json:"content"`
	VoteScore        int     `gorm:"not null;default:0" json:"voteScore"`
	AcceptedAnswerID *string `gorm:"type:varchar(36)" json:"acceptedAnswerId"`
	// Version guards acceptance transitions against concurrent writers.
	Version int `gorm:"not null;default:0" json:"-"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// IsSolved is derived from AcceptedAnswerID and is never stored.
func (q *Question) IsSolved() bool {
	return q.AcceptedAnswerID != nil
}

// IsAccepted reports whether answerID is the accepted answer of q.
func (q *Question) IsAccepted(answerID string) bool {
	return q.AcceptedAnswerID != nil && *q.AcceptedAnswerID == answerID
}
