package service

import (
	"context"
	"time"

	"github.com/ise-alumni/portal-sub001/internal/entity"
)

// ReminderService определяет интерфейс для операций с напоминаниями
type ReminderService interface {
	// Основные операции
	HasReminder(ctx context.Context, userID string, targetType entity.TargetType, targetID string) (bool, error)
	SetReminder(ctx context.Context, req *entity.SetReminderRequest) (*entity.Reminder, error)
	ClearReminder(ctx context.Context, userID string, targetType entity.TargetType, targetID string) (bool, error)
	ListReminders(ctx context.Context, userID string) ([]*entity.ReminderDetails, error)

	// Dispatch operations
	DispatchDueReminders(ctx context.Context) error
	DispatchReminder(ctx context.Context, id string) error
}

// QueueService coordinates the transactional email queue.
type QueueService interface {
	Enqueue(ctx context.Context, req *entity.EnqueueEmailRequest) (*entity.EmailQueueEntry, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.EmailQueueEntry, error)

	Dispatch(ctx context.Context, entry *entity.EmailQueueEntry) error
	DispatchByID(ctx context.Context, id string) error
	DispatchPending(ctx context.Context) error
	CancelPending(ctx context.Context, userID, emailType string) (int64, error)

	// SendEmail bypasses the queue: validate, render and send in one request.
	SendEmail(ctx context.Context, req *SendEmailRequest) (string, error)
}

// UnsubscribeService redeems opt-out tokens.
type UnsubscribeService interface {
	Redeem(ctx context.Context, tok string, typeOverride string) (*RedeemResult, error)
	TokenFor(userID, emailType string) string
}

// SendEmailRequest представляет данные для прямой отправки письма
type SendEmailRequest struct {
	To       string `json:"to" binding:"required,email"`
	Subject  string `json:"subject" binding:"required"`
	Markdown string `json:"markdown" binding:"required"`
	From     string `json:"from"`
}

// RedeemResult describes what a redeemed token changed.
type RedeemResult struct {
	UserID    string `json:"user_id"`
	EmailType string `json:"email_type"` // empty means all emails
	Cancelled int64  `json:"cancelled_pending"`
}

// TaskPublisher интерфейс для публикации задач в очередь
type TaskPublisher interface {
	Publish(ctx context.Context, task *Task) error
}

// Task представляет задачу для очереди
type Task struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	ExecuteAt time.Time              `json:"execute_at"`
}

// Константы типов задач
const (
	TaskTypeReminderDue   = "reminder_due"
	TaskTypeDispatchEmail = "dispatch_email"
)
