package queue

import (
	"context"
	"time"
)

// Queue интерфейс очереди
type Queue interface {
	Publish(ctx context.Context, task *Task) error
	Subscribe(ctx context.Context, handler func(*Task) error) error
	Close() error
}

// Task is one unit of deferred work. ExecuteAt in the future parks the task
// in the delayed set until due; zero or past means immediate.
type Task struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	ExecuteAt time.Time              `json:"execute_at"`
	Attempts  int                    `json:"attempts"`
}

// Task types produced by the notification subsystem.
const (
	TaskTypeReminderDue   = "reminder_due"
	TaskTypeDispatchEmail = "dispatch_email"
)
