package worker

import (
	"context"
	"fmt"

	"github.com/ise-alumni/portal-sub001/internal/service"
	"github.com/ise-alumni/portal-sub001/pkg/queue"

	"github.com/sirupsen/logrus"
)

// TaskHandler обрабатывает задачи из очереди
type TaskHandler struct {
	reminderService service.ReminderService
	queueService    service.QueueService
}

// NewTaskHandler создает новый обработчик задач
func NewTaskHandler(reminderService service.ReminderService, queueService service.QueueService) *TaskHandler {
	return &TaskHandler{
		reminderService: reminderService,
		queueService:    queueService,
	}
}

// HandleTask обрабатывает задачу. Задачи несут только идентификаторы; текущее
// состояние всегда берется из базы, поэтому устаревшая или повторная задача
// безопасна.
func (h *TaskHandler) HandleTask(task *queue.Task) error {
	logrus.Debugf("Handling task %s of type %s", task.ID, task.Type)

	switch task.Type {
	case queue.TaskTypeReminderDue:
		return h.handleReminderDue(task)
	case queue.TaskTypeDispatchEmail:
		return h.handleDispatchEmail(task)
	default:
		return fmt.Errorf("unknown task type: %s", task.Type)
	}
}

// handleReminderDue доставляет одно напоминание по наступлению срока
func (h *TaskHandler) handleReminderDue(task *queue.Task) error {
	ctx := context.Background()

	reminderID, ok := task.Data["reminder_id"].(string)
	if !ok || reminderID == "" {
		return fmt.Errorf("missing reminder_id in task data")
	}

	return h.reminderService.DispatchReminder(ctx, reminderID)
}

// handleDispatchEmail доставляет одну запись из очереди писем
func (h *TaskHandler) handleDispatchEmail(task *queue.Task) error {
	ctx := context.Background()

	entryID, ok := task.Data["entry_id"].(string)
	if !ok || entryID == "" {
		return fmt.Errorf("missing entry_id in task data")
	}

	return h.queueService.DispatchByID(ctx, entryID)
}
