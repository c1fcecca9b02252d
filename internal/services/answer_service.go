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

type AnswerService interface {
	Create(ctx context.Context, db *gorm.DB, actor *models.User, req *dto.CreateAnswerRequest) (*dto.AnswerResponse, error)
}

type answerService struct {
	questionRepo repositories.QuestionRepository
	answerRepo   repositories.AnswerRepository
	dispatcher   *Dispatcher
}

func NewAnswerService(questionRepo repositories.QuestionRepository, answerRepo repositories.AnswerRepository, dispatcher *Dispatcher) AnswerService {
	return &answerService{
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		dispatcher:   dispatcher,
	}
}

func (s *answerService) Create(ctx context.Context, db *gorm.DB, actor *models.User, req *dto.CreateAnswerRequest) (*dto.AnswerResponse, error) {
	db = db.WithContext(ctx)

	question, err := s.questionRepo.FindByID(db, req.QuestionID)
	if err != nil {
		if errors.Is(err, repositories.ErrQuestionNotFound) {
			return nil, apperrors.ErrQuestionNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	answer := &models.Answer{
		QuestionID: question.ID,
		AuthorID:   actor.ID,
		Content:    req.Content,
	}
	if err := s.answerRepo.Create(db, answer); err != nil {
		if errors.Is(err, repositories.ErrAnswerAlreadyExists) {
			return nil, apperrors.ErrDuplicateAnswer
		}
		return nil, apperrors.InternalError(err)
	}
	answer.Author = actor

	if s.dispatcher != nil {
		s.dispatcher.AnswerPosted(ctx, db, actor, question, answer)
	}

	resp := buildAnswerResponse(answer, question)
	return &resp, nil
}
