package worker

import (
	"context"
	"testing"

	"github.com/ise-alumni/portal-sub001/internal/service"
	"github.com/ise-alumni/portal-sub001/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReminderService struct {
	service.ReminderService
	dispatched []string
}

func (s *stubReminderService) DispatchReminder(_ context.Context, id string) error {
	s.dispatched = append(s.dispatched, id)
	return nil
}

type stubQueueService struct {
	service.QueueService
	dispatched []string
}

func (s *stubQueueService) DispatchByID(_ context.Context, id string) error {
	s.dispatched = append(s.dispatched, id)
	return nil
}

// TestHandleTask тестирует маршрутизацию задач по типу
func TestHandleTask(t *testing.T) {
	t.Run("reminder due task", func(t *testing.T) {
		reminders := &stubReminderService{}
		queueSvc := &stubQueueService{}
		h := NewTaskHandler(reminders, queueSvc)

		err := h.HandleTask(&queue.Task{
			ID:   "t1",
			Type: queue.TaskTypeReminderDue,
			Data: map[string]interface{}{"reminder_id": "r1"},
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"r1"}, reminders.dispatched)
		assert.Empty(t, queueSvc.dispatched)
	})

	t.Run("dispatch email task", func(t *testing.T) {
		reminders := &stubReminderService{}
		queueSvc := &stubQueueService{}
		h := NewTaskHandler(reminders, queueSvc)

		err := h.HandleTask(&queue.Task{
			ID:   "t2",
			Type: queue.TaskTypeDispatchEmail,
			Data: map[string]interface{}{"entry_id": "e1"},
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"e1"}, queueSvc.dispatched)
	})

	t.Run("missing id in payload", func(t *testing.T) {
		h := NewTaskHandler(&stubReminderService{}, &stubQueueService{})

		err := h.HandleTask(&queue.Task{
			ID:   "t3",
			Type: queue.TaskTypeReminderDue,
			Data: map[string]interface{}{},
		})

		assert.Error(t, err)
	})

	t.Run("unknown task type", func(t *testing.T) {
		h := NewTaskHandler(&stubReminderService{}, &stubQueueService{})

		err := h.HandleTask(&queue.Task{ID: "t4", Type: "resize_image"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown task type")
	})
}
