package services

import (
	"context"
	"fmt"

	"qaforum_backend/internal/logger"
	"qaforum_backend/internal/metrics"
	"qaforum_backend/internal/models"
	"qaforum_backend/internal/services/dto"

	"gorm.io/gorm"
)

// EventNotification - имя события в real-time канале
const EventNotification = "notification"

// Publisher delivers an event to every live connection of a user. It must not
// block and must not fail when the user has no connections.
type Publisher interface {
	Publish(userID, event string, payload any)
}

// EmailEnqueuer hands a stored notification to the e-mail worker.
type EmailEnqueuer interface {
	Enqueue(notificationID string)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, string, any) {}

// Dispatcher turns committed domain events into notifications. Errors are
// logged and counted, never returned to the acting user.
type Dispatcher struct {
	notifications NotificationService
	publisher     Publisher
	mailer        EmailEnqueuer
	emailTypes    map[models.NotificationType]bool
}

func NewDispatcher(notifications NotificationService, publisher Publisher) *Dispatcher {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &Dispatcher{
		notifications: notifications,
		publisher:     publisher,
		emailTypes:    map[models.NotificationType]bool{},
	}
}

// WithEmail включает e-mail для перечисленных типов
func (d *Dispatcher) WithEmail(mailer EmailEnqueuer, types ...models.NotificationType) *Dispatcher {
	d.mailer = mailer
	for _, t := range types {
		d.emailTypes[t] = true
	}
	return d
}

// AnswerPosted notifies the question author.
func (d *Dispatcher) AnswerPosted(ctx context.Context, db *gorm.DB, actor *models.User, question *models.Question, answer *models.Answer) []*models.Notification {
	return d.emit(ctx, db, "answer_posted", NotificationDraft{
		Type:           models.NotificationTypeAnswer,
		RecipientID:    question.AuthorID,
		SenderID:       actor.ID,
		SenderUsername: actor.Username,
		QuestionID:     &question.ID,
		AnswerID:       &answer.ID,
		Content:        fmt.Sprintf("%s answered your question", actor.Username),
	})
}

// VoteCast notifies the author of the voted entity.
func (d *Dispatcher) VoteCast(ctx context.Context, db *gorm.DB, actor *models.User, target VoteTarget, result *VoteResult) []*models.Notification {
	draft := NotificationDraft{
		Type:           models.NotificationTypeVote,
		RecipientID:    result.AuthorID,
		SenderID:       actor.ID,
		SenderUsername: actor.Username,
		Content:        fmt.Sprintf("%s %sd your %s", actor.Username, result.Current, target.Type),
		Metadata: map[string]any{
			"voteType": string(result.Current),
			"itemType": string(target.Type),
		},
	}
	switch target.Type {
	case models.TargetQuestion:
		draft.QuestionID = &target.ID
	case models.TargetAnswer:
		draft.AnswerID = &target.ID
		if result.QuestionID != "" {
			draft.QuestionID = &result.QuestionID
		}
	}
	return d.emit(ctx, db, "vote_cast", draft)
}

// AnswerAccepted notifies the answer author. Unaccepting produces no event.
func (d *Dispatcher) AnswerAccepted(ctx context.Context, db *gorm.DB, actor *models.User, result *AcceptanceResult) []*models.Notification {
	if !result.Accepted {
		return nil
	}
	return d.emit(ctx, db, "answer_accepted", NotificationDraft{
		Type:           models.NotificationTypeAccept,
		RecipientID:    result.AnswerAuthorID,
		SenderID:       actor.ID,
		SenderUsername: actor.Username,
		QuestionID:     &result.QuestionID,
		AnswerID:       &result.AnswerID,
		Content:        "Your answer was accepted as the best answer",
	})
}

// CommentPosted sends one mention notification per resolved user and a comment
// notification to the answer author unless that author was already mentioned.
func (d *Dispatcher) CommentPosted(ctx context.Context, db *gorm.DB, actor *models.User, answer *models.Answer, comment *models.Comment, mentioned []models.User) []*models.Notification {
	var created []*models.Notification
	notified := make(map[string]bool, len(mentioned))

	for _, user := range mentioned {
		if user.ID == actor.ID || notified[user.ID] {
			continue
		}
		notified[user.ID] = true
		created = append(created, d.emit(ctx, db, "comment_mention", NotificationDraft{
			Type:           models.NotificationTypeMention,
			RecipientID:    user.ID,
			SenderID:       actor.ID,
			SenderUsername: actor.Username,
			QuestionID:     &answer.QuestionID,
			AnswerID:       &answer.ID,
			CommentID:      &comment.ID,
			Content:        fmt.Sprintf("%s mentioned you in a comment", actor.Username),
		})...)
	}

	if !notified[answer.AuthorID] {
		created = append(created, d.emit(ctx, db, "comment_posted", NotificationDraft{
			Type:           models.NotificationTypeComment,
			RecipientID:    answer.AuthorID,
			SenderID:       actor.ID,
			SenderUsername: actor.Username,
			QuestionID:     &answer.QuestionID,
			AnswerID:       &answer.ID,
			CommentID:      &comment.ID,
			Content:        fmt.Sprintf("%s commented on your answer", actor.Username),
		})...)
	}
	return created
}

// emit stores the notification, then pushes it. Self-actions never notify.
// The primary mutation is already committed here, so the write ignores
// cancellation of the request context (values such as request_id are kept).
func (d *Dispatcher) emit(ctx context.Context, db *gorm.DB, event string, draft NotificationDraft) []*models.Notification {
	if draft.RecipientID == "" || draft.RecipientID == draft.SenderID {
		return nil
	}
	ctx = context.WithoutCancel(ctx)

	notification, err := d.notifications.Create(ctx, db, draft)
	if err != nil {
		metrics.DispatchFailures.WithLabelValues(event).Inc()
		logger.CtxWithError(ctx, "failed to create notification", err,
			"event", event,
			"recipient_id", draft.RecipientID,
		)
		return nil
	}
	metrics.NotificationsCreated.WithLabelValues(string(notification.Type)).Inc()

	d.publisher.Publish(notification.RecipientID, EventNotification, dto.NewNotificationEvent(notification))

	if d.mailer != nil && d.emailTypes[notification.Type] {
		d.mailer.Enqueue(notification.ID)
	}

	logger.CtxDebug(ctx, "notification dispatched",
		"event", event,
		"notification_id", notification.ID,
		"recipient_id", notification.RecipientID,
	)
	return []*models.Notification{notification}
}
