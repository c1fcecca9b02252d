package testutil

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"qaforum_backend/database"
	"qaforum_backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewTestDB открывает изолированную in-memory SQLite базу с миграциями.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Не удалось открыть тестовую БД")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Один коннект: транзакции сериализуются, in-memory база живет пока открыт пул
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// CreateUser создает активного пользователя; пароль хешируется bcrypt.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        strings.ToLower(username) + "@test.com",
		PasswordHash: string(hash),
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error, "Не удалось создать пользователя %s", username)
	return user
}

func CreateQuestion(t *testing.T, db *gorm.DB, authorID string) *models.Question {
	t.Helper()

	q := &models.Question{AuthorID: authorID, Title: "How do I test this?", Content: "Some details"}
	require.NoError(t, db.Create(q).Error)
	return q
}

func CreateAnswer(t *testing.T, db *gorm.DB, questionID, authorID string) *models.Answer {
	t.Helper()

	a := &models.Answer{QuestionID: questionID, AuthorID: authorID, Content: "Try this"}
	require.NoError(t, db.Create(a).Error)
	return a
}

// Clock - управляемые часы для тестов TTL и окон лимитов
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{current: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}
