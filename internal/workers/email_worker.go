package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qaforum_backend/internal/email"
	"qaforum_backend/internal/logger"
	"qaforum_backend/internal/metrics"
	"qaforum_backend/internal/models"
	"qaforum_backend/internal/repositories"

	"gorm.io/gorm"
)

// EmailWorker delivers accept/mention notifications by e-mail to recipients
// who opted in. Every processed notification is flagged is_email_sent, whether
// or not a message went out, so the catch-up scan never revisits it.
type EmailWorker struct {
	db               *gorm.DB
	provider         email.Provider
	renderer         *email.TemplateManager
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	types            []models.NotificationType
	baseURL          string
	queue            chan string
	scanInterval     time.Duration
	now              func() time.Time
}

func NewEmailWorker(
	db *gorm.DB,
	provider email.Provider,
	renderer *email.TemplateManager,
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	types []models.NotificationType,
	baseURL string,
	queueSize int,
) *EmailWorker {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &EmailWorker{
		db:               db,
		provider:         provider,
		renderer:         renderer,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		types:            types,
		baseURL:          baseURL,
		queue:            make(chan string, queueSize),
		scanInterval:     5 * time.Minute,
		now:              time.Now,
	}
}

// Enqueue never blocks; a full queue leaves the notification to the catch-up scan.
func (w *EmailWorker) Enqueue(notificationID string) {
	select {
	case w.queue <- notificationID:
	default:
		logger.Warn("email queue full, deferring to scan", "notification_id", notificationID)
	}
}

func (w *EmailWorker) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *EmailWorker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email worker stopped")
			return
		case id := <-w.queue:
			err := w.Process(ctx, id)
			logger.WorkerLog("email", "process", err, "notification_id", id)
		case <-ticker.C:
			w.Scan(ctx)
		}
	}
}

// Scan picks up pending notifications that never made it through the queue.
func (w *EmailWorker) Scan(ctx context.Context) {
	pending, err := w.notificationRepo.FindPendingEmail(w.db.WithContext(ctx), w.types, w.now(), 100)
	if err != nil {
		logger.WorkerLog("email", "scan", err)
		return
	}
	for _, n := range pending {
		err := w.Process(ctx, n.ID)
		logger.WorkerLog("email", "process", err, "notification_id", n.ID)
	}
}

func (w *EmailWorker) Process(ctx context.Context, notificationID string) error {
	db := w.db.WithContext(ctx)

	notification, err := w.notificationRepo.FindByID(db, notificationID, w.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return nil
		}
		return err
	}
	if notification.IsEmailSent {
		return nil
	}

	recipient, err := w.userRepo.FindByID(db, notification.RecipientID)
	if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		return err
	}

	if recipient != nil && recipient.EmailNotifications && recipient.Email != "" {
		msg, err := w.compose(notification, recipient)
		if err != nil {
			return err
		}
		if err := w.provider.Send(ctx, msg); err != nil {
			metrics.EmailsSent.WithLabelValues("failed").Inc()
			return err
		}
		metrics.EmailsSent.WithLabelValues("sent").Inc()
	} else {
		metrics.EmailsSent.WithLabelValues("skipped").Inc()
	}

	return w.notificationRepo.MarkEmailSent(db, notification.ID)
}

func (w *EmailWorker) compose(n *models.Notification, recipient *models.User) (*email.Email, error) {
	var templateName, subject string
	switch n.Type {
	case models.NotificationTypeAccept:
		templateName, subject = email.TemplateAccept, "Your answer was accepted"
	case models.NotificationTypeMention:
		templateName, subject = email.TemplateMention, fmt.Sprintf("%s mentioned you", n.SenderUsername)
	default:
		return nil, fmt.Errorf("no e-mail template for notification type %q", n.Type)
	}

	link := w.baseURL
	if n.QuestionID != nil {
		link = fmt.Sprintf("%s/questions/%s", w.baseURL, *n.QuestionID)
	}

	body, err := w.renderer.Render(templateName, email.TemplateData{
		"Username": recipient.Username,
		"Content":  n.Content,
		"Link":     link,
	})
	if err != nil {
		return nil, err
	}

	return &email.Email{
		To:       []string{recipient.Email},
		Subject:  subject,
		Body:     n.Content,
		HTMLBody: body,
	}, nil
}
