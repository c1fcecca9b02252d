package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"qaforum_backend/internal/models"
	"qaforum_backend/internal/repositories"

	"gorm.io/gorm"
)

// APITokenVerifier accepts opaque long-lived tokens; only their SHA-256 is stored.
type APITokenVerifier struct {
	db    *gorm.DB
	users repositories.UserRepository
}

func NewAPITokenVerifier(db *gorm.DB, users repositories.UserRepository) *APITokenVerifier {
	return &APITokenVerifier{db: db, users: users}
}

func (v *APITokenVerifier) Verify(ctx context.Context, token string) (*models.User, error) {
	return loadActiveUser(ctx, v.db, func(db *gorm.DB) (*models.User, error) {
		return v.users.FindByAPITokenHash(db, HashAPIToken(token))
	})
}

func HashAPIToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GenerateAPIToken возвращает новый токен и его хеш для хранения
func GenerateAPIToken() (token, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	token = "qa_" + hex.EncodeToString(buf)
	return token, HashAPIToken(token), nil
}
