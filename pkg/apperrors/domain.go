package apperrors

import (
	"net/http"
)

/*
Этот файл содержит фабрики и предопределенные переменные
для ошибок бизнес-логики Q&A домена.
*/

// ErrConflict - общая фабрика для конфликтов (409)
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// --- Questions & Answers ---

var ErrQuestionNotFound = New(
	CodeNotFound,
	"question",
	"Question not found",
	http.StatusNotFound,
)

var ErrAnswerNotFound = New(
	CodeNotFound,
	"answer",
	"Answer not found",
	http.StatusNotFound,
)

// ErrAnswerQuestionMismatch - ответ не принадлежит указанному вопросу.
var ErrAnswerQuestionMismatch = New(
	CodeNotFound,
	"answer",
	"Answer does not belong to the referenced question",
	http.StatusNotFound,
)

// ErrDuplicateAnswer - автор уже ответил на этот вопрос.
var ErrDuplicateAnswer = New(
	CodeConflict,
	"answer",
	"You have already answered this question",
	http.StatusConflict,
)

// ErrNotQuestionAuthor - принять ответ может только автор вопроса.
var ErrNotQuestionAuthor = New(
	CodeForbidden,
	"acceptance",
	"Only the question author can accept answers",
	http.StatusForbidden,
)

// ErrAcceptanceConflict - вопрос был изменен параллельным запросом.
var ErrAcceptanceConflict = New(
	CodeConflict,
	"acceptance",
	"Question was modified concurrently, reload and retry",
	http.StatusConflict,
)

// --- Votes ---

var ErrInvalidVoteType = New(
	CodeValidationFailed,
	"vote",
	"voteType must be one of: upvote, downvote, remove",
	http.StatusBadRequest,
)

// --- Notifications ---

var ErrNotificationNotFound = New(
	CodeNotFound,
	"notification",
	"Notification not found",
	http.StatusNotFound,
)

// ErrNotificationAccessDenied - уведомление принадлежит другому пользователю.
var ErrNotificationAccessDenied = New(
	CodeForbidden,
	"notification",
	"Not authorized to access this notification",
	http.StatusForbidden,
)

// --- Users & Auth ---

var ErrUserNotFound = New(
	CodeNotFound,
	"user",
	"User not found",
	http.StatusNotFound,
)

// ErrInvalidToken - неверный или просроченный токен.
var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

// ErrMissingToken - токен не передан.
var ErrMissingToken = New(
	CodeUnauthorized,
	"auth",
	"Access token required",
	http.StatusUnauthorized,
)
