package services_test

import (
	"sync"
	"testing"
	"time"

	"qaforum_backend/internal/models"
	"qaforum_backend/internal/services"
	"qaforum_backend/internal/services/dto"
	"qaforum_backend/internal/testutil"

	"gorm.io/gorm"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type published struct {
	UserID  string
	Event   string
	Payload dto.NotificationEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(userID, event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev, _ := payload.(dto.NotificationEvent)
	p.events = append(p.events, published{UserID: userID, Event: event, Payload: ev})
}

func (p *recordingPublisher) For(userID string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, e := range p.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

type recordingMailer struct {
	mu  sync.Mutex
	ids []string
}

func (m *recordingMailer) Enqueue(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, id)
}

type fixture struct {
	db    *gorm.DB
	clock *testutil.Clock
	pub   *recordingPublisher
	mail  *recordingMailer
	svc   *services.ServiceContainer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:    testutil.NewTestDB(t),
		clock: testutil.NewClock(epoch),
		pub:   &recordingPublisher{},
		mail:  &recordingMailer{},
	}
	f.svc = services.NewServiceContainer(services.ContainerOptions{
		Publisher:  f.pub,
		Mailer:     f.mail,
		EmailTypes: []models.NotificationType{models.NotificationTypeAccept, models.NotificationTypeMention},
		Now:        f.clock.Now,
	})
	return f
}

// notificationsFor читает уведомления напрямую из таблицы
func (f *fixture) notificationsFor(t *testing.T, userID string) []models.Notification {
	t.Helper()
	var out []models.Notification
	if err := f.db.Where("recipient_id = ?", userID).Order("created_at ASC").Find(&out).Error; err != nil {
		t.Fatalf("failed to load notifications: %v", err)
	}
	return out
}
