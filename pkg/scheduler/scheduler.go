package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ise-alumni/portal-sub001/internal/service"
)

// Scheduler polls for reminders whose time has arrived. It is the backstop
// behind the delayed task queue: a reminder whose task was lost is still
// picked up here.
type Scheduler struct {
	reminderService service.ReminderService
	interval        time.Duration
}

func NewScheduler(reminderService service.ReminderService, interval time.Duration) *Scheduler {
	return &Scheduler{
		reminderService: reminderService,
		interval:        interval,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.reminderService.DispatchDueReminders(ctx); err != nil {
				fmt.Printf("Error dispatching due reminders: %v\n", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
