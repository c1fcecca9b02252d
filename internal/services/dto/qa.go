package dto

import (
	"time"

	"qaforum_backend/internal/models"
)

// ---------------- Requests ----------------

type CreateQuestionRequest struct {
	Title   string `json:"title" validate:"required,min=5,max=300"`
	Content string `json:"content" validate:"required,min=10"`
}

type CreateAnswerRequest struct {
	QuestionID string `json:"questionId" validate:"required"`
	Content    string `json:"content" validate:"required,max=10000"`
}

type VoteRequest struct {
	VoteType string `json:"voteType" validate:"required,is-vote-type"`
}

// AcceptAnswerRequest - questionId необязателен; если передан, должен совпадать
type AcceptAnswerRequest struct {
	QuestionID string `json:"questionId" validate:"omitempty"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// UpdatePreferencesRequest - PUT /me/preferences
type UpdatePreferencesRequest struct {
	EmailNotifications *bool `json:"emailNotifications" validate:"required"`
}

// ---------------- Responses ----------------

type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type MeResponse struct {
	ID                 string `json:"id"`
	Username           string `json:"username"`
	Email              string `json:"email"`
	EmailNotifications bool   `json:"emailNotifications"`
}

func NewMeResponse(u *models.User) MeResponse {
	return MeResponse{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		EmailNotifications: u.EmailNotifications,
	}
}

type QuestionResponse struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Content          string           `json:"content"`
	Author           *UserSummary     `json:"author,omitempty"`
	VoteScore        int              `json:"voteScore"`
	AcceptedAnswerID *string          `json:"acceptedAnswerId"`
	IsSolved         bool             `json:"isSolved"`
	Answers          []AnswerResponse `json:"answers,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}

type AnswerResponse struct {
	ID         string       `json:"id"`
	QuestionID string       `json:"questionId"`
	Content    string       `json:"content"`
	Author     *UserSummary `json:"author,omitempty"`
	VoteScore  int          `json:"voteScore"`
	IsAccepted bool         `json:"isAccepted"`
	CreatedAt  time.Time    `json:"createdAt"`
}

type CommentResponse struct {
	ID        string       `json:"id"`
	AnswerID  string       `json:"answerId"`
	Content   string       `json:"content"`
	Author    *UserSummary `json:"author,omitempty"`
	Mentions  []string     `json:"mentions"`
	CreatedAt time.Time    `json:"createdAt"`
}

type VoteResponse struct {
	VoteScore int     `json:"voteScore"`
	UserVote  *string `json:"userVote"`
}

type AcceptResponse struct {
	QuestionID       string  `json:"questionId"`
	AnswerID         string  `json:"answerId"`
	IsAccepted       bool    `json:"isAccepted"`
	IsSolved         bool    `json:"isSolved"`
	AcceptedAnswerID *string `json:"acceptedAnswerId"`
}
