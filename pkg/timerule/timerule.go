package timerule

import (
	"fmt"
	"time"
)

// Default lead times subtracted from a target's trigger instant.
const (
	DefaultEventLead        = 24 * time.Hour
	DefaultAnnouncementLead = 24 * time.Hour
)

// Rules maps a target type to its lead time. The zero value falls back to the
// package defaults so callers without config overrides can use Rules{}.
type Rules struct {
	EventLead        time.Duration
	AnnouncementLead time.Duration
}

// ReminderTime computes the instant a reminder for the given target should
// fire: the target's own trigger instant minus the type's lead time. The
// result is always strictly earlier than targetDate. A targetDate already in
// the past is not an error here; rejecting stale reminders is caller policy.
func (r Rules) ReminderTime(targetType string, targetDate time.Time) (time.Time, error) {
	switch targetType {
	case "event":
		return targetDate.Add(-r.eventLead()), nil
	case "announcement":
		return targetDate.Add(-r.announcementLead()), nil
	default:
		return time.Time{}, fmt.Errorf("unknown target type %q", targetType)
	}
}

func (r Rules) eventLead() time.Duration {
	if r.EventLead > 0 {
		return r.EventLead
	}
	return DefaultEventLead
}

func (r Rules) announcementLead() time.Duration {
	if r.AnnouncementLead > 0 {
		return r.AnnouncementLead
	}
	return DefaultAnnouncementLead
}
