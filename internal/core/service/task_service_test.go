package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-gateway/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubSender struct {
	sent []string
	err  error
}

func (s *stubSender) Send(_ context.Context, recipient, _, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, recipient)
	return nil
}

type stubDedup struct {
	seen   map[string]bool
	dupErr error
}

func newStubDedup() *stubDedup { return &stubDedup{seen: make(map[string]bool)} }

func (d *stubDedup) IsDuplicate(_ context.Context, id string) (bool, error) {
	if d.dupErr != nil {
		return false, d.dupErr
	}
	return d.seen[id], nil
}

func (d *stubDedup) Mark(_ context.Context, id string) error {
	d.seen[id] = true
	return nil
}

func task(id string) domain.EmailTask {
	return domain.EmailTask{ID: id, Recipient: "alice@example.com", Subject: "hi", RequestedBy: "alice", RequestedAt: time.Now()}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestTaskService_ProcessOnce(t *testing.T) {
	sender := &stubSender{}
	svc := NewTaskService(sender, newStubDedup(), zerolog.Nop())

	if err := svc.Process(context.Background(), task("t1")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := svc.Process(context.Background(), task("t1")); err != nil {
		t.Fatalf("duplicate process: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one send, got %d", len(sender.sent))
	}
}

func TestTaskService_DedupOutageStillSends(t *testing.T) {
	sender := &stubSender{}
	dedup := newStubDedup()
	dedup.dupErr = errors.New("redis down")
	svc := NewTaskService(sender, dedup, zerolog.Nop())

	if err := svc.Process(context.Background(), task("t2")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected send despite dedup outage")
	}
}

func TestTaskService_SendFailureNotMarked(t *testing.T) {
	sender := &stubSender{err: errors.New("smtp down")}
	dedup := newStubDedup()
	svc := NewTaskService(sender, dedup, zerolog.Nop())

	if err := svc.Process(context.Background(), task("t3")); err == nil {
		t.Fatalf("expected error")
	}
	if dedup.seen["t3"] {
		t.Fatalf("failed task must stay retryable")
	}
}

func TestLogEmailSender_RespectsContext(t *testing.T) {
	s := NewLogEmailSender(time.Hour, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Send(ctx, "a@example.com", "s", "b"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
