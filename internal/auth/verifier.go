package auth

import (
	"context"
	"errors"

	"qaforum_backend/internal/models"
	"qaforum_backend/internal/repositories"

	"gorm.io/gorm"
)

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrInactiveUser      = errors.New("user is inactive")
)

// Verifier resolves a presented credential to an active user.
type Verifier interface {
	Verify(ctx context.Context, token string) (*models.User, error)
}

// ChainVerifier tries each verifier in order; the first success wins.
// A failure that is not about the credential itself (e.g. the user store is
// down) is reported as is, so callers can answer 500 rather than 401.
type ChainVerifier struct {
	verifiers []Verifier
}

func NewChainVerifier(verifiers ...Verifier) *ChainVerifier {
	return &ChainVerifier{verifiers: verifiers}
}

func (c *ChainVerifier) Verify(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidCredential
	}

	var credErr, internalErr error
	for _, v := range c.verifiers {
		user, err := v.Verify(ctx, token)
		switch {
		case err == nil:
			return user, nil
		case errors.Is(err, ErrInactiveUser):
			credErr = err
		case errors.Is(err, ErrInvalidCredential):
		default:
			if internalErr == nil {
				internalErr = err
			}
		}
	}

	if internalErr != nil {
		return nil, internalErr
	}
	if credErr != nil {
		return nil, credErr
	}
	return nil, ErrInvalidCredential
}

// loadActiveUser - общая часть всех верификаторов
func loadActiveUser(ctx context.Context, db *gorm.DB, find func(*gorm.DB) (*models.User, error)) (*models.User, error) {
	user, err := find(db.WithContext(ctx))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}
