package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qaforum_backend/internal/auth"
	"qaforum_backend/internal/config"
	"qaforum_backend/internal/email"
	"qaforum_backend/internal/models"
	"qaforum_backend/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "app-test-secret"

type TestServer struct {
	t      *testing.T
	app    *App
	db     *gorm.DB
	mail   *email.MemoryProvider
	router *gin.Engine
}

func newTestServer(t *testing.T, tweak func(cfg *config.Config)) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Server.Env = "test"
	cfg.JWT.Secret = testSecret
	if tweak != nil {
		tweak(cfg)
	}

	db := testutil.NewTestDB(t)
	mail := email.NewMemoryProvider()

	application, err := New(cfg, db, Options{EmailProvider: mail})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	application.Start(ctx)

	return &TestServer{t: t, app: application, db: db, mail: mail, router: application.Router()}
}

func (s *TestServer) token(user *models.User) string {
	tok, err := auth.GenerateToken(testSecret, user.ID, time.Hour)
	require.NoError(s.t, err)
	return tok
}

// SendRequest выполняет запрос к роутеру; token может быть пустым
func (s *TestServer) SendRequest(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, w)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, w.Body.String())
	return errObj["code"].(string)
}

func (s *TestServer) notifications(token string) []map[string]any {
	s.t.Helper()
	w := s.SendRequest(http.MethodGet, "/api/v1/notifications", token, nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var list struct {
		Notifications []map[string]any `json:"notifications"`
		UnreadCount   int64            `json:"unreadCount"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &list))
	return list.Notifications
}

// ---------------------------------------------------------------------------

func TestQAFlow_AnswerVoteAccept(t *testing.T) {
	s := newTestServer(t, nil)
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	require.NoError(t, s.db.Model(bob).Update("email_notifications", true).Error)
	aliceTok, bobTok := s.token(alice), s.token(bob)

	// alice задаёт вопрос
	w := s.SendRequest(http.MethodPost, "/api/v1/questions", aliceTok, map[string]string{
		"title":   "How do I close a channel?",
		"content": "Is it safe to close a channel from the receiver side?",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	questionID := decode(t, w)["id"].(string)

	// bob отвечает
	w = s.SendRequest(http.MethodPost, "/api/v1/answers", bobTok, map[string]string{
		"questionId": questionID,
		"content":    "Only the sender should close it.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	answerID := decode(t, w)["id"].(string)

	// повторный ответ того же автора
	w = s.SendRequest(http.MethodPost, "/api/v1/answers", bobTok, map[string]string{
		"questionId": questionID,
		"content":    "Second try.",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", errorCode(t, w))

	notes := s.notifications(aliceTok)
	require.Len(t, notes, 1)
	assert.Equal(t, "answer", notes[0]["type"])
	assert.Equal(t, "bob answered your question", notes[0]["content"])
	assert.Equal(t, bob.ID, notes[0]["sender"])

	// alice голосует за ответ
	w = s.SendRequest(http.MethodPost, "/api/v1/answers/"+answerID+"/vote", aliceTok, map[string]string{"voteType": "upvote"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	vote := decode(t, w)
	assert.EqualValues(t, 1, vote["voteScore"])
	assert.Equal(t, "upvote", vote["userVote"])

	// повтор - без изменений
	w = s.SendRequest(http.MethodPost, "/api/v1/answers/"+answerID+"/vote", aliceTok, map[string]string{"voteType": "upvote"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["voteScore"])

	// alice принимает ответ
	w = s.SendRequest(http.MethodPut, "/api/v1/answers/"+answerID+"/accept", aliceTok, map[string]string{"questionId": questionID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	accept := decode(t, w)
	assert.Equal(t, true, accept["isAccepted"])
	assert.Equal(t, answerID, accept["acceptedAnswerId"])

	w = s.SendRequest(http.MethodGet, "/api/v1/questions/"+questionID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	question := decode(t, w)
	assert.Equal(t, true, question["isSolved"])
	answers := question["answers"].([]any)
	require.Len(t, answers, 1)
	assert.Equal(t, true, answers[0].(map[string]any)["isAccepted"])
	assert.EqualValues(t, 1, answers[0].(map[string]any)["voteScore"])

	bobNotes := s.notifications(bobTok)
	require.Len(t, bobNotes, 2)
	types := []string{bobNotes[0]["type"].(string), bobNotes[1]["type"].(string)}
	assert.ElementsMatch(t, []string{"vote", "accept"}, types)

	// e-mail о принятии уходит через воркер
	require.Eventually(t, func() bool { return len(s.mail.Sent()) == 1 }, 3*time.Second, 20*time.Millisecond)
	sent := s.mail.Sent()[0]
	assert.Equal(t, []string{bob.Email}, sent.To)
	assert.Equal(t, "Your answer was accepted", sent.Subject)

	// повторный toggle снимает принятие
	w = s.SendRequest(http.MethodPut, "/api/v1/answers/"+answerID+"/accept", aliceTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, decode(t, w)["isSolved"])
}

func TestAccept_Errors(t *testing.T) {
	s := newTestServer(t, nil)
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	q := testutil.CreateQuestion(t, s.db, alice.ID)
	other := testutil.CreateQuestion(t, s.db, alice.ID)
	a := testutil.CreateAnswer(t, s.db, q.ID, bob.ID)

	w := s.SendRequest(http.MethodPut, "/api/v1/answers/"+a.ID+"/accept", s.token(bob), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.SendRequest(http.MethodPut, "/api/v1/answers/"+a.ID+"/accept", s.token(alice), map[string]string{"questionId": other.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.SendRequest(http.MethodPut, "/api/v1/answers/missing/accept", s.token(alice), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVote_ValidationAndAuth(t *testing.T) {
	s := newTestServer(t, nil)
	alice := testutil.CreateUser(t, s.db, "alice")
	q := testutil.CreateQuestion(t, s.db, alice.ID)

	w := s.SendRequest(http.MethodPost, "/api/v1/questions/"+q.ID+"/vote", "", map[string]string{"voteType": "upvote"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.SendRequest(http.MethodPost, "/api/v1/questions/"+q.ID+"/vote", "not-a-token", map[string]string{"voteType": "upvote"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.SendRequest(http.MethodPost, "/api/v1/questions/"+q.ID+"/vote", s.token(alice), map[string]string{"voteType": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, w))

	w = s.SendRequest(http.MethodPost, "/api/v1/questions/missing/vote", s.token(alice), map[string]string{"voteType": "upvote"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// голос за свой вопрос засчитывается, но уведомления нет
	w = s.SendRequest(http.MethodPost, "/api/v1/questions/"+q.ID+"/vote", s.token(alice), map[string]string{"voteType": "downvote"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, -1, decode(t, w)["voteScore"])
	assert.Empty(t, s.notifications(s.token(alice)))

	w = s.SendRequest(http.MethodPost, "/api/v1/questions/"+q.ID+"/vote", s.token(alice), map[string]string{"voteType": "remove"})
	require.Equal(t, http.StatusOK, w.Code)
	vote := decode(t, w)
	assert.EqualValues(t, 0, vote["voteScore"])
	assert.Nil(t, vote["userVote"])
}

func TestRateLimit_Votes(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.RateLimit.Votes = 3 })
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	q := testutil.CreateQuestion(t, s.db, alice.ID)
	tok := s.token(bob)

	for i := 0; i < 3; i++ {
		w := s.SendRequest(http.MethodPost, "/api/v1/questions/"+q.ID+"/vote", tok, map[string]string{"voteType": "upvote"})
		require.Equal(t, http.StatusOK, w.Code, "vote %d", i)
	}

	w := s.SendRequest(http.MethodPost, "/api/v1/questions/"+q.ID+"/vote", tok, map[string]string{"voteType": "downvote"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, w))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// отклонённый запрос не изменил счёт
	w = s.SendRequest(http.MethodGet, "/api/v1/questions/"+q.ID, "", nil)
	assert.EqualValues(t, 1, decode(t, w)["voteScore"])

	// лимит персональный
	w = s.SendRequest(http.MethodPost, "/api/v1/questions/"+q.ID+"/vote", s.token(alice), map[string]string{"voteType": "upvote"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_DatabaseStore(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Store = "database"
		cfg.RateLimit.Answers = 1
	})
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	q1 := testutil.CreateQuestion(t, s.db, alice.ID)
	q2 := testutil.CreateQuestion(t, s.db, alice.ID)
	tok := s.token(bob)

	w := s.SendRequest(http.MethodPost, "/api/v1/answers", tok, map[string]string{"questionId": q1.ID, "content": "first"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.SendRequest(http.MethodPost, "/api/v1/answers", tok, map[string]string{"questionId": q2.ID, "content": "second"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestNotifications_OwnershipAndReadState(t *testing.T) {
	s := newTestServer(t, nil)
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	carol := testutil.CreateUser(t, s.db, "carol")
	q := testutil.CreateQuestion(t, s.db, alice.ID)
	aliceTok, carolTok := s.token(alice), s.token(carol)

	w := s.SendRequest(http.MethodPost, "/api/v1/answers", s.token(bob), map[string]string{"questionId": q.ID, "content": "answer"})
	require.Equal(t, http.StatusCreated, w.Code)

	notes := s.notifications(aliceTok)
	require.Len(t, notes, 1)
	id := notes[0]["id"].(string)

	w = s.SendRequest(http.MethodGet, "/api/v1/notifications/"+id, carolTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.SendRequest(http.MethodPut, "/api/v1/notifications/"+id+"/read", carolTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.SendRequest(http.MethodDelete, "/api/v1/notifications/"+id, carolTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.SendRequest(http.MethodGet, "/api/v1/notifications/missing", aliceTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.SendRequest(http.MethodGet, "/api/v1/notifications/unread-count", aliceTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["unreadCount"])

	w = s.SendRequest(http.MethodPut, "/api/v1/notifications/"+id+"/read", aliceTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	first := decode(t, w)
	assert.Equal(t, true, first["isRead"])

	// идемпотентно
	w = s.SendRequest(http.MethodPut, "/api/v1/notifications/"+id+"/read", aliceTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first["readAt"], decode(t, w)["readAt"])

	w = s.SendRequest(http.MethodGet, "/api/v1/notifications?unreadOnly=true", aliceTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["total"])

	w = s.SendRequest(http.MethodGet, "/api/v1/notifications/stats", aliceTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.EqualValues(t, 1, stats["total"])
	assert.EqualValues(t, 0, stats["unread"])

	w = s.SendRequest(http.MethodGet, "/api/v1/notifications?type=bogus", aliceTok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.SendRequest(http.MethodPut, "/api/v1/notifications/read-all", aliceTok, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.SendRequest(http.MethodDelete, "/api/v1/notifications/clear", aliceTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["deleted"])
	assert.Empty(t, s.notifications(aliceTok))
}

func TestComments_MentionsSuppressCommentNotification(t *testing.T) {
	s := newTestServer(t, nil)
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	carol := testutil.CreateUser(t, s.db, "carol")
	q := testutil.CreateQuestion(t, s.db, alice.ID)
	a := testutil.CreateAnswer(t, s.db, q.ID, bob.ID)

	w := s.SendRequest(http.MethodPost, "/api/v1/answers/"+a.ID+"/comments", s.token(carol), map[string]string{
		"content": "@bob see @alice's note, cc @nobody",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := decode(t, w)
	assert.ElementsMatch(t, []any{bob.ID, alice.ID}, comment["mentions"])

	bobNotes := s.notifications(s.token(bob))
	require.Len(t, bobNotes, 1)
	assert.Equal(t, "mention", bobNotes[0]["type"])
	assert.Equal(t, "carol mentioned you in a comment", bobNotes[0]["content"])

	aliceNotes := s.notifications(s.token(alice))
	require.Len(t, aliceNotes, 1)
	assert.Equal(t, "mention", aliceNotes[0]["type"])

	w = s.SendRequest(http.MethodGet, "/api/v1/answers/"+a.ID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["comments"], 1)
}

func TestAPIToken_Authenticates(t *testing.T) {
	s := newTestServer(t, nil)
	alice := testutil.CreateUser(t, s.db, "alice")

	w := s.SendRequest(http.MethodPost, "/api/v1/me/api-token", s.token(alice), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	apiToken := decode(t, w)["token"].(string)

	w = s.SendRequest(http.MethodGet, "/api/v1/me", apiToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "alice", decode(t, w)["username"])

	// неактивный пользователь больше не проходит
	require.NoError(t, s.db.Model(alice).Update("is_active", false).Error)
	w = s.SendRequest(http.MethodGet, "/api/v1/me", apiToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPreferences_EmailOptIn(t *testing.T) {
	s := newTestServer(t, nil)
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	q := testutil.CreateQuestion(t, s.db, alice.ID)
	a := testutil.CreateAnswer(t, s.db, q.ID, bob.ID)
	aliceTok, bobTok := s.token(alice), s.token(bob)

	w := s.SendRequest(http.MethodPut, "/api/v1/me/preferences", bobTok, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.SendRequest(http.MethodPut, "/api/v1/me/preferences", bobTok, map[string]any{"emailNotifications": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["emailNotifications"])

	w = s.SendRequest(http.MethodGet, "/api/v1/me", bobTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["emailNotifications"])

	w = s.SendRequest(http.MethodPut, "/api/v1/answers/"+a.ID+"/accept", aliceTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Eventually(t, func() bool { return len(s.mail.Sent()) == 1 }, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{bob.Email}, s.mail.Sent()[0].To)

	// отписка: следующее принятие без письма
	w = s.SendRequest(http.MethodPut, "/api/v1/me/preferences", bobTok, map[string]any{"emailNotifications": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, decode(t, w)["emailNotifications"])

	w = s.SendRequest(http.MethodPut, "/api/v1/answers/"+a.ID+"/accept", aliceTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.SendRequest(http.MethodPut, "/api/v1/answers/"+a.ID+"/accept", aliceTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, s.notifications(bobTok), 2)

	assert.Never(t, func() bool { return len(s.mail.Sent()) > 1 }, 300*time.Millisecond, 20*time.Millisecond)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.SendRequest(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.SendRequest(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "qaforum_http_requests_total")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
