package entity

import "time"

// ScopeAll is the wildcard unsubscribe scope: a preference stored with an
// empty email type opts the user out of every email type.
const ScopeAll = ""

// UnsubscribePreference records a user's opt-out. EmailType empty means "all
// emails". Upserting the same key twice is a no-op.
type UnsubscribePreference struct {
	UserID    string    `json:"user_id" db:"user_id"`
	EmailType string    `json:"email_type" db:"email_type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
