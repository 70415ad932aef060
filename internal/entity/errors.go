package entity

import "errors"

var (
	// Reminder errors
	ErrReminderNotFound      = errors.New("reminder not found")
	ErrReminderAlreadyExists = errors.New("reminder already exists for this target")
	ErrReminderTooLate       = errors.New("computed reminder time is already in the past")
	ErrInvalidTargetType     = errors.New("invalid target type")

	// Target errors
	ErrTargetNotFound = errors.New("target not found")
	ErrUserNotFound   = errors.New("user not found")

	// Queue errors
	ErrQueueEntryNotFound = errors.New("queue entry not found")
	ErrEntryNotPending    = errors.New("queue entry is no longer pending")

	// Token errors
	ErrTokenInvalid = errors.New("unsubscribe token is invalid")
	ErrTokenExpired = errors.New("unsubscribe token has expired")

	// General errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrDatabaseError = errors.New("database error")
)
