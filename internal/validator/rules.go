package validator

import (
	"qaforum_backend/internal/logger"
	"qaforum_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует кастомные функции валидации.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Ошибка времени запуска приложения
			logger.Fatal("failed to register custom validation tag", "tag", tag, "error", err)
		}
	}

	mustRegister("is-vote-type", validateVoteType)
	mustRegister("is-notification-type", validateNotificationType)
}

func validateVoteType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // для пустых есть 'required'
	}
	return models.VoteType(value).IsValid()
}

func validateNotificationType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.NotificationType(value).IsValid()
}
