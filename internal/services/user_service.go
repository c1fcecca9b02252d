package services

import (
	"context"
	"errors"

	"qaforum_backend/internal/auth"
	"qaforum_backend/internal/models"
	"qaforum_backend/internal/repositories"
	"qaforum_backend/internal/services/dto"
	"qaforum_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type UserService interface {
	Register(ctx context.Context, db *gorm.DB, username, email, password string) (*models.User, error)
	GetByID(ctx context.Context, db *gorm.DB, userID string) (*models.User, error)
	// IssueAPIToken replaces the user's API token and returns the plaintext once.
	IssueAPIToken(ctx context.Context, db *gorm.DB, userID string) (string, error)
	UpdatePreferences(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdatePreferencesRequest) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) Register(ctx context.Context, db *gorm.DB, username, email, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperrors.ValidationError(map[string]string{"password": err.Error()})
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash:       hash,
		IsActive:           true,
		EmailNotifications: true,
	}
	if err := s.userRepo.Create(db.WithContext(ctx), user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrConflict(err, "user", "Username or email already taken")
		}
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, db *gorm.DB, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(db.WithContext(ctx), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}

func (s *userService) IssueAPIToken(ctx context.Context, db *gorm.DB, userID string) (string, error) {
	token, hash, err := auth.GenerateAPIToken()
	if err != nil {
		return "", apperrors.InternalError(err)
	}
	if err := s.userRepo.SetAPITokenHash(db.WithContext(ctx), userID, hash); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", apperrors.ErrUserNotFound
		}
		return "", apperrors.InternalError(err)
	}
	return token, nil
}

func (s *userService) UpdatePreferences(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdatePreferencesRequest) (*models.User, error) {
	tx := db.WithContext(ctx)
	if req.EmailNotifications != nil {
		if err := s.userRepo.SetEmailNotifications(tx, userID, *req.EmailNotifications); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return nil, apperrors.ErrUserNotFound
			}
			return nil, apperrors.InternalError(err)
		}
	}
	return s.GetByID(ctx, db, userID)
}
