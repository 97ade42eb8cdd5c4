package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-gateway/internal/core/domain"
)

const defaultTaskSubject = "Notification"

// TaskQueue is the interface the handler uses to enqueue email tasks.
type TaskQueue interface {
	Enqueue(task domain.EmailTask) error
}

type triggerTaskRequest struct {
	Recipient string `json:"recipient" validate:"required,email"`
	Subject   string `json:"subject"   validate:"omitempty,max=200"`
}

type taskAcceptedResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
}

// TaskHandler starts background jobs on behalf of the authenticated user.
type TaskHandler struct {
	queue TaskQueue
	now   func() time.Time
}

func NewTaskHandler(queue TaskQueue, now func() time.Time) *TaskHandler {
	if now == nil {
		now = time.Now
	}
	return &TaskHandler{queue: queue, now: now}
}

// Trigger handles POST /trigger-task and returns 202 once the task is queued.
//
// @Summary      Send a mock email in the background
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      triggerTaskRequest  true  "Recipient"
// @Success      202   {object}  taskAcceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /trigger-task [post]
func (h *TaskHandler) Trigger(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req triggerTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Subject == "" {
		req.Subject = defaultTaskSubject
	}

	task := domain.EmailTask{
		ID:          uuid.NewString(),
		Recipient:   req.Recipient,
		Subject:     req.Subject,
		RequestedBy: user.Username,
		RequestedAt: h.now().UTC(),
	}
	if err := h.queue.Enqueue(task); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "task queue is full, retry later").SetInternal(err)
	}

	return c.JSON(http.StatusAccepted, taskAcceptedResponse{Message: "task started", TaskID: task.ID})
}
