package services

import (
	"context"
	"encoding/json"
	"errors"

	"qaforum_backend/internal/models"
	"qaforum_backend/internal/repositories"
	"qaforum_backend/internal/services/dto"
	"qaforum_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CommentService interface {
	Create(ctx context.Context, db *gorm.DB, actor *models.User, answerID string, req *dto.CreateCommentRequest) (*dto.CommentResponse, error)
	ListByAnswer(ctx context.Context, db *gorm.DB, answerID string) ([]*dto.CommentResponse, error)
}

type commentService struct {
	answerRepo  repositories.AnswerRepository
	commentRepo repositories.CommentRepository
	userRepo    repositories.UserRepository
	dispatcher  *Dispatcher
}

func NewCommentService(
	answerRepo repositories.AnswerRepository,
	commentRepo repositories.CommentRepository,
	userRepo repositories.UserRepository,
	dispatcher *Dispatcher,
) CommentService {
	return &commentService{
		answerRepo:  answerRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		dispatcher:  dispatcher,
	}
}

func (s *commentService) Create(ctx context.Context, db *gorm.DB, actor *models.User, answerID string, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	db = db.WithContext(ctx)

	answer, err := s.answerRepo.FindByID(db, answerID)
	if err != nil {
		if errors.Is(err, repositories.ErrAnswerNotFound) {
			return nil, apperrors.ErrAnswerNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	mentioned, err := s.resolveMentions(db, req.Content)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	mentionIDs := make([]string, 0, len(mentioned))
	for _, u := range mentioned {
		mentionIDs = append(mentionIDs, u.ID)
	}
	raw, err := json.Marshal(mentionIDs)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	comment := &models.Comment{
		AnswerID: answer.ID,
		AuthorID: actor.ID,
		Content:  req.Content,
		Mentions: datatypes.JSON(raw),
	}
	if err := s.commentRepo.Create(db, comment); err != nil {
		return nil, apperrors.InternalError(err)
	}
	comment.Author = actor

	if s.dispatcher != nil {
		s.dispatcher.CommentPosted(ctx, db, actor, answer, comment, mentioned)
	}
	return buildCommentResponse(comment), nil
}

func (s *commentService) ListByAnswer(ctx context.Context, db *gorm.DB, answerID string) ([]*dto.CommentResponse, error) {
	db = db.WithContext(ctx)

	if _, err := s.answerRepo.FindByID(db, answerID); err != nil {
		if errors.Is(err, repositories.ErrAnswerNotFound) {
			return nil, apperrors.ErrAnswerNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	comments, err := s.commentRepo.FindByAnswer(db, answerID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp := make([]*dto.CommentResponse, 0, len(comments))
	for i := range comments {
		resp = append(resp, buildCommentResponse(&comments[i]))
	}
	return resp, nil
}

// resolveMentions keeps the order of first appearance; unknown usernames are dropped.
func (s *commentService) resolveMentions(db *gorm.DB, content string) ([]models.User, error) {
	usernames := ParseMentions(content)
	if len(usernames) == 0 {
		return nil, nil
	}

	found, err := s.userRepo.FindByUsernames(db, usernames)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]models.User, len(found))
	for _, u := range found {
		byName[u.Username] = u
	}

	users := make([]models.User, 0, len(found))
	for _, name := range usernames {
		if u, ok := byName[name]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func buildCommentResponse(c *models.Comment) *dto.CommentResponse {
	mentions := []string{}
	if len(c.Mentions) > 0 {
		_ = json.Unmarshal(c.Mentions, &mentions)
	}
	return &dto.CommentResponse{
		ID:        c.ID,
		AnswerID:  c.AnswerID,
		Content:   c.Content,
		Author:    userSummary(c.Author),
		Mentions:  mentions,
		CreatedAt: c.CreatedAt,
	}
}
