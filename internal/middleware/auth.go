package middleware

import (
	"errors"
	"strings"

	"qaforum_backend/internal/auth"
	"qaforum_backend/internal/logger"
	"qaforum_backend/internal/models"
	"qaforum_backend/pkg/apperrors"
	"qaforum_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// ExtractToken достаёт токен из "Authorization: Bearer ..." или из ?token= (для браузерного WebSocket)
func ExtractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return c.Query("token")
}

// AuthMiddleware - проверка токена через цепочку верификаторов (JWT, API-токен)
func AuthMiddleware(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		token := ExtractToken(c)
		if token == "" {
			apperrors.HandleError(c, apperrors.ErrMissingToken)
			return
		}

		user, err := verifier.Verify(ctx, token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredential) || errors.Is(err, auth.ErrInactiveUser) {
				logger.CtxWarn(ctx, "Authentication failed", "error", err.Error(), "ip", c.ClientIP())
				apperrors.HandleError(c, apperrors.ErrInvalidToken)
				return
			}
			logger.CtxWithError(ctx, "Token verification error", err)
			apperrors.HandleError(c, apperrors.InternalError(err))
			return
		}

		c.Set(string(contextkeys.UserContextKey), user)
		c.Set(string(contextkeys.UserIDContextKey), user.ID)
		c.Request = c.Request.WithContext(logger.WithUserID(ctx, user.ID))

		c.Next()
	}
}

// GetCurrentUser возвращает аутентифицированного пользователя (nil, если его нет)
func GetCurrentUser(c *gin.Context) *models.User {
	val, exists := c.Get(string(contextkeys.UserContextKey))
	if !exists {
		return nil
	}
	user, _ := val.(*models.User)
	return user
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get(string(contextkeys.UserIDContextKey))
	if !exists {
		return ""
	}

	id, ok := userID.(string)
	if !ok {
		return ""
	}

	return id
}
