package middleware

import (
	"strconv"

	"qaforum_backend/internal/logger"
	"qaforum_backend/internal/metrics"
	"qaforum_backend/internal/ratelimit"
	"qaforum_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// RateLimit ограничивает действие action по пользователю (или по IP, если запрос анонимный).
// Должен стоять после AuthMiddleware.
func RateLimit(limiter ratelimit.Limiter, action string, rule ratelimit.Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		identity := GetUserID(c)
		if identity == "" {
			identity = "ip:" + c.ClientIP()
		}

		decision, err := limiter.Allow(ctx, ratelimit.Key(action, identity), rule)
		if err != nil {
			// Хранилище лимитов недоступно - не блокируем пользователя
			logger.CtxWithError(ctx, "Rate limiter failure", err, "action", action)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			metrics.RateLimited.WithLabelValues(action).Inc()
			logger.CtxWarn(ctx, "Rate limit exceeded", "action", action, "retry_after", decision.RetryAfter)
			apperrors.HandleError(c, apperrors.NewRateLimitedError(action, decision.RetryAfter))
			return
		}

		c.Next()
	}
}
