package entity

import (
	"time"
)

// Event is a read-only snapshot of an event record owned by the portal's CRUD
// layer. The notification subsystem never writes these rows.
type Event struct {
	ID       string    `json:"id" db:"id"`
	Title    string    `json:"title" db:"title"`
	StartsAt time.Time `json:"starts_at" db:"starts_at"`
	Location string    `json:"location" db:"location"`
}

// Announcement is a read-only snapshot of an announcement record.
type Announcement struct {
	ID       string    `json:"id" db:"id"`
	Title    string    `json:"title" db:"title"`
	Deadline time.Time `json:"deadline" db:"deadline"`
}

// TriggerAt returns the target's own trigger instant used to derive
// reminder_at: event start, or announcement deadline.
func (e *Event) TriggerAt() time.Time        { return e.StartsAt }
func (a *Announcement) TriggerAt() time.Time { return a.Deadline }
