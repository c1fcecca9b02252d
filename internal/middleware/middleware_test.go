package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qaforum_backend/internal/auth"
	"qaforum_backend/internal/middleware"
	"qaforum_backend/internal/models"
	"qaforum_backend/internal/ratelimit"
	"qaforum_backend/internal/repositories"
	"qaforum_backend/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	users map[string]*models.User
	err   error
}

func (s *stubVerifier) Verify(_ context.Context, token string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, auth.ErrInvalidCredential
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.GET("/test", append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": middleware.GetUserID(c)})
	})...)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	r := newRouter()

	w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w = serve(r, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestAuthMiddleware(t *testing.T) {
	alice := &models.User{Username: "alice"}
	alice.ID = "u-alice"
	r := newRouter(middleware.AuthMiddleware(&stubVerifier{users: map[string]*models.User{"good": alice}}))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer bad")
	w = serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer good")
	w = serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u-alice")

	// токен в query для WebSocket
	w = serve(r, httptest.NewRequest(http.MethodGet, "/test?token=good", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_VerifierFailureIs500(t *testing.T) {
	r := newRouter(middleware.AuthMiddleware(&stubVerifier{err: errors.New("db down")}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer any")
	w := serve(r, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthMiddleware_StoreFailureThroughChainIs500(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := repositories.NewUserRepository()
	alice := testutil.CreateUser(t, db, "alice")
	token, err := auth.GenerateToken("mw-secret", alice.ID, time.Hour)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	chain := auth.NewChainVerifier(auth.NewJWTVerifier("mw-secret", db, users), auth.NewAPITokenVerifier(db, users))
	r := newRouter(middleware.AuthMiddleware(chain))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := serve(r, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateLimit_RejectsWithRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := ratelimit.NewMemoryLimiter().WithClock(func() time.Time { return now })
	r := newRouter(middleware.RateLimit(limiter, "votes", ratelimit.Rule{Limit: 2, Window: time.Minute}))

	for i := 0; i < 2; i++ {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestCORS_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CORSMiddleware([]string{"http://localhost:3000"}))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = serve(r, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
