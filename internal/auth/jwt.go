package auth

import (
	"context"
	"fmt"
	"time"

	"qaforum_backend/internal/models"
	"qaforum_backend/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// GenerateToken выпускает HS256 токен для пользователя
func GenerateToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken проверяет подпись и срок действия токена
func ParseToken(secret, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidCredential)
	}
	return claims, nil
}

type JWTVerifier struct {
	secret string
	db     *gorm.DB
	users  repositories.UserRepository
}

func NewJWTVerifier(secret string, db *gorm.DB, users repositories.UserRepository) *JWTVerifier {
	return &JWTVerifier{secret: secret, db: db, users: users}
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (*models.User, error) {
	claims, err := ParseToken(v.secret, token)
	if err != nil {
		return nil, ErrInvalidCredential
	}
	return loadActiveUser(ctx, v.db, func(db *gorm.DB) (*models.User, error) {
		return v.users.FindByID(db, claims.UserID)
	})
}
