package manager

import (
	"context"
	"time"

	"github.com/google/uuid"

	"reminder/internal/logger"
	"reminder/internal/models"
)

// Event: запись журнала изменений.
type Event struct {
	Op     string       `json:"op"`
	TaskID string       `json:"task_id,omitempty"`
	At     time.Time    `json:"at"`
	Before *models.Task `json:"before,omitempty"`
	After  *models.Task `json:"after,omitempty"`
}

type AuditLogger interface {
	LogEvent(ctx context.Context, ev Event) error
}

// emit вызывается после успешного сохранения. Ошибка аудита только логируется.
func (tm *TaskManager) emit(ctx context.Context, op string, id uuid.UUID, before, after *models.Task) {
	if tm.audit == nil {
		return
	}
	ev := Event{Op: op, At: models.Now().UTC(), Before: before, After: after}
	if id != uuid.Nil {
		ev.TaskID = id.String()
	}
	if err := tm.audit.LogEvent(ctx, ev); err != nil {
		logger.Error(ctx, err, "audit event dropped", "op", op, "task_id", ev.TaskID)
	}
}
