package services

import (
	"context"
	"errors"
	"strconv"

	"qaforum_backend/internal/metrics"
	"qaforum_backend/internal/models"
	"qaforum_backend/internal/repositories"
	"qaforum_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// VoteTarget - сущность, за которую голосуют
type VoteTarget struct {
	Type models.TargetType
	ID   string
}

type VoteResult struct {
	Score    int
	Previous models.VoteType // "" если голоса не было
	Current  models.VoteType // "" после remove
	AuthorID string
	// QuestionID заполнен для ответов
	QuestionID string
	Changed    bool
}

type VoteService interface {
	// ApplyVote mutates the ledger only.
	ApplyVote(ctx context.Context, db *gorm.DB, target VoteTarget, voterID string, voteType models.VoteType) (*VoteResult, error)
	// CastVote applies the vote and notifies the author when the vote state changed.
	CastVote(ctx context.Context, db *gorm.DB, actor *models.User, target VoteTarget, voteType models.VoteType) (*VoteResult, error)
}

type voteService struct {
	voteRepo     repositories.VoteRepository
	questionRepo repositories.QuestionRepository
	answerRepo   repositories.AnswerRepository
	dispatcher   *Dispatcher
}

func NewVoteService(
	voteRepo repositories.VoteRepository,
	questionRepo repositories.QuestionRepository,
	answerRepo repositories.AnswerRepository,
	dispatcher *Dispatcher,
) VoteService {
	return &voteService{
		voteRepo:     voteRepo,
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		dispatcher:   dispatcher,
	}
}

func (s *voteService) ApplyVote(ctx context.Context, db *gorm.DB, target VoteTarget, voterID string, voteType models.VoteType) (*VoteResult, error) {
	if !voteType.IsValid() {
		return nil, apperrors.ErrInvalidVoteType
	}
	if !target.Type.IsValid() {
		return nil, apperrors.ValidationError(map[string]string{"target": "unknown vote target"})
	}

	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	// Блокировка строки сущности сериализует голоса по ней
	result, err := s.lockTarget(tx, target)
	if err != nil {
		return nil, err
	}

	previous, err := s.voteRepo.FindValue(tx, target.Type, target.ID, voterID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if voteType == models.VoteTypeRemove {
		err = s.voteRepo.Delete(tx, target.Type, target.ID, voterID)
	} else {
		err = s.voteRepo.Upsert(tx, &models.Vote{
			TargetType: target.Type,
			TargetID:   target.ID,
			UserID:     voterID,
			Value:      voteType.Value(),
		})
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	score, err := s.voteRepo.RefreshScore(tx, target.Type, target.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	result.Score = score
	result.Previous = models.VoteTypeFromValue(previous)
	result.Current = models.VoteTypeFromValue(voteType.Value())
	result.Changed = previous != voteType.Value()

	metrics.VotesApplied.WithLabelValues(string(target.Type), string(voteType), strconv.FormatBool(result.Changed)).Inc()
	return result, nil
}

func (s *voteService) CastVote(ctx context.Context, db *gorm.DB, actor *models.User, target VoteTarget, voteType models.VoteType) (*VoteResult, error) {
	result, err := s.ApplyVote(ctx, db, target, actor.ID, voteType)
	if err != nil {
		return nil, err
	}

	if result.Changed && voteType != models.VoteTypeRemove && s.dispatcher != nil {
		s.dispatcher.VoteCast(ctx, db, actor, target, result)
	}
	return result, nil
}

func (s *voteService) lockTarget(tx *gorm.DB, target VoteTarget) (*VoteResult, error) {
	switch target.Type {
	case models.TargetQuestion:
		question, err := s.questionRepo.FindByIDForUpdate(tx, target.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrQuestionNotFound) {
				return nil, apperrors.ErrQuestionNotFound
			}
			return nil, apperrors.InternalError(err)
		}
		return &VoteResult{AuthorID: question.AuthorID}, nil
	default:
		answer, err := s.answerRepo.FindByIDForUpdate(tx, target.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrAnswerNotFound) {
				return nil, apperrors.ErrAnswerNotFound
			}
			return nil, apperrors.InternalError(err)
		}
		return &VoteResult{AuthorID: answer.AuthorID, QuestionID: answer.QuestionID}, nil
	}
}
