package ports

import (
	"context"

	"github.com/99minutos/auth-gateway/internal/core/domain"
)

// TaskService processes background email tasks.
type TaskService interface {
	Process(ctx context.Context, task domain.EmailTask) error
}

// EmailSender delivers a rendered notification.
type EmailSender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}
