package services

import (
	"context"
	"errors"

	"qaforum_backend/internal/metrics"
	"qaforum_backend/internal/models"
	"qaforum_backend/internal/repositories"
	"qaforum_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AcceptanceResult struct {
	QuestionID     string
	AnswerID       string
	AnswerAuthorID string
	// Accepted - состояние ответа после перехода
	Accepted bool
	// PreviousAnswerID - ранее принятый ответ, если был
	PreviousAnswerID *string
}

// AcceptedAnswerID returns the question's accepted answer after the transition.
func (r *AcceptanceResult) AcceptedAnswerID() *string {
	if r.Accepted {
		id := r.AnswerID
		return &id
	}
	return nil
}

type AcceptanceService interface {
	// ToggleAcceptance accepts answerID, or unaccepts it if it is already the
	// accepted answer. expectedQuestionID may be empty.
	ToggleAcceptance(ctx context.Context, db *gorm.DB, actorID, answerID, expectedQuestionID string) (*AcceptanceResult, error)
	// Toggle runs ToggleAcceptance and notifies the answer author on accept.
	Toggle(ctx context.Context, db *gorm.DB, actor *models.User, answerID, expectedQuestionID string) (*AcceptanceResult, error)
}

type acceptanceService struct {
	questionRepo repositories.QuestionRepository
	answerRepo   repositories.AnswerRepository
	dispatcher   *Dispatcher
}

func NewAcceptanceService(
	questionRepo repositories.QuestionRepository,
	answerRepo repositories.AnswerRepository,
	dispatcher *Dispatcher,
) AcceptanceService {
	return &acceptanceService{
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		dispatcher:   dispatcher,
	}
}

func (s *acceptanceService) ToggleAcceptance(ctx context.Context, db *gorm.DB, actorID, answerID, expectedQuestionID string) (*AcceptanceResult, error) {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	answer, err := s.answerRepo.FindByID(tx, answerID)
	if err != nil {
		if errors.Is(err, repositories.ErrAnswerNotFound) {
			return nil, apperrors.ErrAnswerNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	if expectedQuestionID != "" && expectedQuestionID != answer.QuestionID {
		return nil, apperrors.ErrAnswerQuestionMismatch
	}

	question, err := s.questionRepo.FindByIDForUpdate(tx, answer.QuestionID)
	if err != nil {
		if errors.Is(err, repositories.ErrQuestionNotFound) {
			return nil, apperrors.ErrQuestionNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	if question.AuthorID != actorID {
		return nil, apperrors.ErrNotQuestionAuthor
	}

	result := &AcceptanceResult{
		QuestionID:       question.ID,
		AnswerID:         answer.ID,
		AnswerAuthorID:   answer.AuthorID,
		PreviousAnswerID: question.AcceptedAnswerID,
	}

	var next *string
	if !question.IsAccepted(answer.ID) {
		next = &answer.ID
		result.Accepted = true
	}

	if err := s.questionRepo.SetAcceptedAnswer(tx, question.ID, next, question.Version); err != nil {
		if errors.Is(err, repositories.ErrStaleVersion) {
			metrics.AcceptanceTransitions.WithLabelValues("conflict").Inc()
			return nil, apperrors.ErrAcceptanceConflict
		}
		return nil, apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	if result.Accepted {
		metrics.AcceptanceTransitions.WithLabelValues("accepted").Inc()
	} else {
		metrics.AcceptanceTransitions.WithLabelValues("unaccepted").Inc()
	}
	return result, nil
}

func (s *acceptanceService) Toggle(ctx context.Context, db *gorm.DB, actor *models.User, answerID, expectedQuestionID string) (*AcceptanceResult, error) {
	result, err := s.ToggleAcceptance(ctx, db, actor.ID, answerID, expectedQuestionID)
	if err != nil {
		return nil, err
	}
	if s.dispatcher != nil {
		s.dispatcher.AnswerAccepted(ctx, db, actor, result)
	}
	return result, nil
}
