package handlers

import (
	"qaforum_backend/internal/services"
	"qaforum_backend/internal/validator"

	"gorm.io/gorm"
)

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	QuestionHandler     *QuestionHandler
	AnswerHandler       *AnswerHandler
	NotificationHandler *NotificationHandler
	UserHandler         *UserHandler
	HealthHandler       *HealthHandler
}

func NewAppHandlers(db *gorm.DB, svc *services.ServiceContainer, v *validator.Validator) *AppHandlers {
	base := NewBaseHandler(v)
	return &AppHandlers{
		QuestionHandler:     NewQuestionHandler(base, svc.QuestionService, svc.VoteService),
		AnswerHandler:       NewAnswerHandler(base, svc.AnswerService, svc.VoteService, svc.AcceptanceService, svc.CommentService),
		NotificationHandler: NewNotificationHandler(base, svc.NotificationService),
		UserHandler:         NewUserHandler(base, svc.UserService),
		HealthHandler:       NewHealthHandler(db),
	}
}
