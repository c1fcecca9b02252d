package middleware

import (
	"context"
	"strconv"
	"time"

	"qaforum_backend/internal/logger"
	"qaforum_backend/internal/metrics"
	"qaforum_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware добавляет уникальный ID к каждому запросу.
// Если клиент прислал свой X-Request-ID, используем его.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggingMiddleware логирует входящие запросы и их результат
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		args := []any{
			"status", status,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
			"latency", time.Since(start),
		}

		switch {
		case status >= 500:
			logger.CtxError(ctx, "Request completed", args...)
		case status >= 400:
			logger.CtxWarn(ctx, "Request completed", args...)
		default:
			logger.CtxInfo(ctx, "Request completed", args...)
		}
	}
}

// MetricsMiddleware пишет счётчик и гистограмму запросов в Prometheus.
// Маршрут берётся из шаблона (c.FullPath), чтобы не раздувать кардинальность.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, status).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// DBMiddleware кладёт *gorm.DB, привязанный к контексту запроса, в gin.Context
func DBMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqCtx := c.Request.Context()
		dbWithCtx := db.WithContext(reqCtx)

		c.Set(string(contextkeys.DBContextKey), dbWithCtx)

		newCtx := context.WithValue(reqCtx, contextkeys.DBContextKey, dbWithCtx)
		c.Request = c.Request.WithContext(newCtx)

		c.Next()
	}
}

// CORSMiddleware разрешает запросы с указанных origin ("*" - с любых)
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Expose-Headers", "X-Request-ID, Retry-After, X-RateLimit-Remaining")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
