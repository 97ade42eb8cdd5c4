package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/ports"
	"github.com/99minutos/auth-gateway/internal/pkg/metrics"
)

// TaskDedup abstracts the idempotency store (Redis).
type TaskDedup interface {
	IsDuplicate(ctx context.Context, taskID string) (bool, error)
	Mark(ctx context.Context, taskID string) error
}

type taskService struct {
	sender ports.EmailSender
	dedup  TaskDedup
	log    zerolog.Logger
}

// NewTaskService returns a TaskService implementation. dedup may be nil.
func NewTaskService(sender ports.EmailSender, dedup TaskDedup, log zerolog.Logger) ports.TaskService {
	return &taskService{sender: sender, dedup: dedup, log: log}
}

// Process deduplicates and sends a single email task.
func (s *taskService) Process(ctx context.Context, task domain.EmailTask) error {
	start := time.Now()
	defer func() { metrics.TaskProcessingDuration.Observe(time.Since(start).Seconds()) }()

	// 1. Idempotency check; a dedup outage does not block delivery.
	if s.dedup != nil {
		isDup, err := s.dedup.IsDuplicate(ctx, task.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("task_id", task.ID).Msg("dedup check failed, processing anyway")
		} else if isDup {
			metrics.TasksProcessedTotal.WithLabelValues("duplicate").Inc()
			s.log.Debug().Str("task_id", task.ID).Msg("duplicate task skipped")
			return nil
		}
	}

	// 2. Send.
	body := fmt.Sprintf("Hello %s, this is a test notification requested by %s at %s.",
		task.Recipient, task.RequestedBy, task.RequestedAt.Format(time.RFC3339))
	if err := s.sender.Send(ctx, task.Recipient, task.Subject, body); err != nil {
		metrics.TasksProcessedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("process task %s: %w", task.ID, err)
	}

	// 3. Mark as done.
	if s.dedup != nil {
		if err := s.dedup.Mark(ctx, task.ID); err != nil {
			s.log.Warn().Err(err).Str("task_id", task.ID).Msg("failed to set dedup key")
		}
	}

	metrics.TasksProcessedTotal.WithLabelValues("sent").Inc()
	s.log.Info().
		Str("task_id", task.ID).
		Str("recipient", task.Recipient).
		Str("requested_by", task.RequestedBy).
		Msg("task processed")
	return nil
}

// LogEmailSender is the mock transport: it logs the message after an optional
// simulated delay.
type LogEmailSender struct {
	delay time.Duration
	log   zerolog.Logger
}

func NewLogEmailSender(delay time.Duration, log zerolog.Logger) *LogEmailSender {
	return &LogEmailSender{delay: delay, log: log}
}

func (s *LogEmailSender) Send(ctx context.Context, recipient, subject, body string) error {
	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	s.log.Info().Str("to", recipient).Str("subject", subject).Int("body_len", len(body)).Msg("mock email sent")
	return nil
}
