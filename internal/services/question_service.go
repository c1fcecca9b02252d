package services

import (
	"context"
	"errors"

	"qaforum_backend/internal/models"
	"qaforum_backend/internal/repositories"
	"qaforum_backend/internal/services/dto"
	"qaforum_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type QuestionService interface {
	Create(ctx context.Context, db *gorm.DB, authorID string, req *dto.CreateQuestionRequest) (*dto.QuestionResponse, error)
	Get(ctx context.Context, db *gorm.DB, questionID string) (*dto.QuestionResponse, error)
}

type questionService struct {
	questionRepo repositories.QuestionRepository
	answerRepo   repositories.AnswerRepository
}

func NewQuestionService(questionRepo repositories.QuestionRepository, answerRepo repositories.AnswerRepository) QuestionService {
	return &questionService{questionRepo: questionRepo, answerRepo: answerRepo}
}

func (s *questionService) Create(ctx context.Context, db *gorm.DB, authorID string, req *dto.CreateQuestionRequest) (*dto.QuestionResponse, error) {
	question := &models.Question{
		AuthorID: authorID,
		Title:    req.Title,
		Content:  req.Content,
	}
	if err := s.questionRepo.Create(db.WithContext(ctx), question); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return buildQuestionResponse(question, nil), nil
}

// Get returns the question with its answers; accepted/solved flags are derived
// from the question's AcceptedAnswerID.
func (s *questionService) Get(ctx context.Context, db *gorm.DB, questionID string) (*dto.QuestionResponse, error) {
	db = db.WithContext(ctx)

	question, err := s.questionRepo.FindByID(db, questionID)
	if err != nil {
		if errors.Is(err, repositories.ErrQuestionNotFound) {
			return nil, apperrors.ErrQuestionNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	answers, err := s.answerRepo.FindByQuestion(db, questionID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return buildQuestionResponse(question, answers), nil
}

func buildQuestionResponse(q *models.Question, answers []models.Answer) *dto.QuestionResponse {
	resp := &dto.QuestionResponse{
		ID:               q.ID,
		Title:            q.Title,
		Content:          q.Content,
		Author:           userSummary(q.Author),
		VoteScore:        q.VoteScore,
		AcceptedAnswerID: q.AcceptedAnswerID,
		IsSolved:         q.IsSolved(),
		CreatedAt:        q.CreatedAt,
	}
	for i := range answers {
		resp.Answers = append(resp.Answers, buildAnswerResponse(&answers[i], q))
	}
	return resp
}

func buildAnswerResponse(a *models.Answer, q *models.Question) dto.AnswerResponse {
	return dto.AnswerResponse{
		ID:         a.ID,
		QuestionID: a.QuestionID,
		Content:    a.Content,
		Author:     userSummary(a.Author),
		VoteScore:  a.VoteScore,
		IsAccepted: q != nil && q.IsAccepted(a.ID),
		CreatedAt:  a.CreatedAt,
	}
}

func userSummary(u *models.User) *dto.UserSummary {
	if u == nil {
		return nil
	}
	return &dto.UserSummary{ID: u.ID, Username: u.Username}
}
