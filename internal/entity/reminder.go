package entity

import (
	"time"
)

type ReminderStatus string

const (
	ReminderStatusPending   ReminderStatus = "pending"
	ReminderStatusSent      ReminderStatus = "sent"
	ReminderStatusFailed    ReminderStatus = "failed"
	ReminderStatusCancelled ReminderStatus = "cancelled"
)

type TargetType string

const (
	TargetTypeEvent        TargetType = "event"
	TargetTypeAnnouncement TargetType = "announcement"
)

// Valid reports whether the target type is one of the two supported kinds.
func (t TargetType) Valid() bool {
	return t == TargetTypeEvent || t == TargetTypeAnnouncement
}

// Reminder is a user-configured notification for a single target. At most one
// row exists per (user_id, target_type, target_id); toggling the reminder off
// deletes the row rather than moving it to a terminal status, so a re-created
// reminder for the same target is always a fresh row.
type Reminder struct {
	ID           string         `json:"id" db:"id"`
	UserID       string         `json:"user_id" db:"user_id"`
	TargetType   TargetType     `json:"target_type" db:"target_type"`
	TargetID     string         `json:"target_id" db:"target_id"`
	ReminderAt   time.Time      `json:"reminder_at" db:"reminder_at"`
	Status       ReminderStatus `json:"status" db:"status"`
	SentAt       *time.Time     `json:"sent_at,omitempty" db:"sent_at"`
	ErrorMessage *string        `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// ReminderDetails joins a reminder with a read-only snapshot of its target.
// A reminder whose target has since been deleted keeps empty detail fields.
type ReminderDetails struct {
	Reminder
	TargetTitle    string     `json:"target_title,omitempty"`
	TargetStartsAt *time.Time `json:"target_starts_at,omitempty"`
	TargetDeadline *time.Time `json:"target_deadline,omitempty"`
	TargetLocation string     `json:"target_location,omitempty"`
}

type SetReminderRequest struct {
	UserID     string     `json:"user_id" binding:"required"`
	TargetType TargetType `json:"target_type" binding:"required"`
	TargetID   string     `json:"target_id" binding:"required"`
}
