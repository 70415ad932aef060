package entity

import (
	"time"
)

type QueueStatus string

const (
	QueueStatusPending   QueueStatus = "pending"
	QueueStatusSent      QueueStatus = "sent"
	QueueStatusCancelled QueueStatus = "cancelled"
	QueueStatusFailed    QueueStatus = "failed"
)

// Email type tags used by the portal. EmailType on a queue entry is free-form;
// these are the values the portal itself produces.
const (
	EmailTypeWelcome  = "welcome"
	EmailTypeReminder = "reminder"
	EmailTypeDigest   = "digest"
)

// EmailQueueEntry is one outbound transactional email awaiting, having
// received, or having been denied delivery.
//
// pending --(send success)--> sent
// pending --(send failure)--> failed        (no automatic retry)
// pending --(unsubscribe redeemed)--> cancelled
//
// sent, failed and cancelled are terminal; any further event is a no-op.
type EmailQueueEntry struct {
	ID           string      `json:"id" db:"id"`
	UserID       string      `json:"user_id" db:"user_id"`
	EmailType    string      `json:"email_type" db:"email_type"`
	Recipient    string      `json:"recipient" db:"recipient"`
	Subject      string      `json:"subject" db:"subject"`
	Body         string      `json:"body" db:"body"` // markdown source, rendered at dispatch
	Status       QueueStatus `json:"status" db:"status"`
	SentAt       *time.Time  `json:"sent_at,omitempty" db:"sent_at"`
	ErrorMessage *string     `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

type EnqueueEmailRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	EmailType string `json:"email_type" binding:"required"`
	Recipient string `json:"recipient" binding:"required,email"`
	Subject   string `json:"subject" binding:"required"`
	Body      string `json:"body" binding:"required"`
}
