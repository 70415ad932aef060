package repository

import (
	"context"
	"time"

	"github.com/ise-alumni/portal-sub001/internal/entity"
)

type ReminderRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, reminder *entity.Reminder) error
	GetByID(ctx context.Context, id string) (*entity.Reminder, error)
	GetByKey(ctx context.Context, userID string, targetType entity.TargetType, targetID string) (*entity.Reminder, error)
	Exists(ctx context.Context, userID string, targetType entity.TargetType, targetID string) (bool, error)
	DeleteByKey(ctx context.Context, userID string, targetType entity.TargetType, targetID string) (bool, error)

	// Query operations
	ListByUser(ctx context.Context, userID string) ([]*entity.ReminderDetails, error)
	GetDuePending(ctx context.Context, before time.Time, limit int) ([]*entity.Reminder, error)

	// Status transitions; each only moves a row out of 'pending'
	MarkSent(ctx context.Context, id string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, id string, errorMessage string) (bool, error)
	MarkCancelled(ctx context.Context, id string) (bool, error)
}

type EmailQueueRepository interface {
	Create(ctx context.Context, entry *entity.EmailQueueEntry) error
	GetByID(ctx context.Context, id string) (*entity.EmailQueueEntry, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.EmailQueueEntry, error)
	GetPending(ctx context.Context, limit int) ([]*entity.EmailQueueEntry, error)

	// Guarded transitions: the WHERE status='pending' clause means a row that
	// was cancelled concurrently is never overwritten with sent/failed.
	MarkSent(ctx context.Context, id string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, id string, errorMessage string) (bool, error)
	MarkCancelled(ctx context.Context, id string) (bool, error)
	CancelPending(ctx context.Context, userID, emailType string) (int64, error)
}

type UnsubscribeRepository interface {
	Upsert(ctx context.Context, userID, emailType string) error
	// Matches reports whether a preference exists for (user, emailType) or the
	// user's global opt-out.
	Matches(ctx context.Context, userID, emailType string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.UnsubscribePreference, error)
}

// EventRepository and AnnouncementRepository are read-only views over tables
// owned by the portal's CRUD layer.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Event, error)
}

type AnnouncementRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Announcement, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
