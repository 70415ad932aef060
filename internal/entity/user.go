package entity

import "time"

// User is a read-only snapshot of a portal account, consulted only to resolve
// the recipient address for a notification. Account management lives in the
// portal's CRUD layer.
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
