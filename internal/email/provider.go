package email

import "context"

// Provider определяет интерфейс для отправки email
type Provider interface {
	Send(ctx context.Context, email *Email) error
	Validate() error
	Close() error
}
