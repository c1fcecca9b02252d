package services

import (
	"time"

	"qaforum_backend/internal/models"
	"qaforum_backend/internal/repositories"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	UserService         UserService
	QuestionService     QuestionService
	AnswerService       AnswerService
	CommentService      CommentService
	VoteService         VoteService
	AcceptanceService   AcceptanceService
	NotificationService NotificationService
	Dispatcher          *Dispatcher
}

// ContainerOptions - внешние зависимости контейнера
type ContainerOptions struct {
	Publisher       Publisher
	Mailer          EmailEnqueuer
	EmailTypes      []models.NotificationType
	NotificationTTL time.Duration
	Now             func() time.Time
}

// NewServiceContainer собирает сервисы поверх репозиториев.
func NewServiceContainer(opts ContainerOptions) *ServiceContainer {
	userRepo := repositories.NewUserRepository()
	questionRepo := repositories.NewQuestionRepository()
	answerRepo := repositories.NewAnswerRepository()
	commentRepo := repositories.NewCommentRepository()
	voteRepo := repositories.NewVoteRepository()
	notificationRepo := repositories.NewNotificationRepository()

	notifOpts := []NotificationServiceOption{WithNotificationTTL(opts.NotificationTTL)}
	if opts.Now != nil {
		notifOpts = append(notifOpts, WithClock(opts.Now))
	}
	notificationService := NewNotificationService(notificationRepo, notifOpts...)

	dispatcher := NewDispatcher(notificationService, opts.Publisher)
	if opts.Mailer != nil {
		dispatcher.WithEmail(opts.Mailer, opts.EmailTypes...)
	}

	return &ServiceContainer{
		UserService:         NewUserService(userRepo),
		QuestionService:     NewQuestionService(questionRepo, answerRepo),
		AnswerService:       NewAnswerService(questionRepo, answerRepo, dispatcher),
		CommentService:      NewCommentService(answerRepo, commentRepo, userRepo, dispatcher),
		VoteService:         NewVoteService(voteRepo, questionRepo, answerRepo, dispatcher),
		AcceptanceService:   NewAcceptanceService(questionRepo, answerRepo, dispatcher),
		NotificationService: notificationService,
		Dispatcher:          dispatcher,
	}
}
