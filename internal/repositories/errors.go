package repositories

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrAnswerNotFound       = errors.New("answer not found")
	ErrAnswerAlreadyExists  = errors.New("answer already exists for this author")
	ErrCommentNotFound      = errors.New("comment not found")
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrStaleVersion - строка вопроса изменилась между чтением и записью
	ErrStaleVersion = errors.New("stale question version")
)
