package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ise-alumni/portal-sub001/internal/entity"
)

// In-memory repository doubles mirroring the guarded-transition semantics of
// the postgres layer, so service tests exercise the same status races.

func reminderKey(userID string, targetType entity.TargetType, targetID string) string {
	return fmt.Sprintf("%s/%s/%s", userID, targetType, targetID)
}

type fakeReminderRepo struct {
	mu        sync.Mutex
	reminders map[string]*entity.Reminder
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{reminders: make(map[string]*entity.Reminder)}
}

func (f *fakeReminderRepo) Create(_ context.Context, reminder *entity.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reminders {
		if reminderKey(r.UserID, r.TargetType, r.TargetID) ==
			reminderKey(reminder.UserID, reminder.TargetType, reminder.TargetID) {
			return entity.ErrReminderAlreadyExists
		}
	}
	cp := *reminder
	f.reminders[reminder.ID] = &cp
	return nil
}

func (f *fakeReminderRepo) GetByID(_ context.Context, id string) (*entity.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok {
		return nil, entity.ErrReminderNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReminderRepo) GetByKey(_ context.Context, userID string, targetType entity.TargetType, targetID string) (*entity.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reminders {
		if reminderKey(r.UserID, r.TargetType, r.TargetID) == reminderKey(userID, targetType, targetID) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, entity.ErrReminderNotFound
}

func (f *fakeReminderRepo) Exists(ctx context.Context, userID string, targetType entity.TargetType, targetID string) (bool, error) {
	_, err := f.GetByKey(ctx, userID, targetType, targetID)
	if err == entity.ErrReminderNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakeReminderRepo) DeleteByKey(_ context.Context, userID string, targetType entity.TargetType, targetID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.reminders {
		if reminderKey(r.UserID, r.TargetType, r.TargetID) == reminderKey(userID, targetType, targetID) {
			delete(f.reminders, id)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReminderRepo) ListByUser(_ context.Context, userID string) ([]*entity.ReminderDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.ReminderDetails
	for _, r := range f.reminders {
		if r.UserID == userID {
			cp := *r
			out = append(out, &entity.ReminderDetails{Reminder: cp})
		}
	}
	return out, nil
}

func (f *fakeReminderRepo) GetDuePending(_ context.Context, before time.Time, limit int) ([]*entity.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Reminder
	for _, r := range f.reminders {
		if r.Status == entity.ReminderStatusPending && !r.ReminderAt.After(before) {
			cp := *r
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeReminderRepo) MarkSent(_ context.Context, id string, at time.Time) (bool, error) {
	return f.transition(id, func(r *entity.Reminder) {
		r.Status = entity.ReminderStatusSent
		r.SentAt = &at
	})
}

func (f *fakeReminderRepo) MarkFailed(_ context.Context, id string, errorMessage string) (bool, error) {
	return f.transition(id, func(r *entity.Reminder) {
		r.Status = entity.ReminderStatusFailed
		r.ErrorMessage = &errorMessage
	})
}

func (f *fakeReminderRepo) MarkCancelled(_ context.Context, id string) (bool, error) {
	return f.transition(id, func(r *entity.Reminder) {
		r.Status = entity.ReminderStatusCancelled
	})
}

func (f *fakeReminderRepo) transition(id string, apply func(*entity.Reminder)) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok || r.Status != entity.ReminderStatusPending {
		return false, nil
	}
	apply(r)
	return true, nil
}

type fakeQueueRepo struct {
	mu      sync.Mutex
	entries map[string]*entity.EmailQueueEntry
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{entries: make(map[string]*entity.EmailQueueEntry)}
}

func (f *fakeQueueRepo) Create(_ context.Context, entry *entity.EmailQueueEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *entry
	f.entries[entry.ID] = &cp
	return nil
}

func (f *fakeQueueRepo) GetByID(_ context.Context, id string) (*entity.EmailQueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok {
		return nil, entity.ErrQueueEntryNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeQueueRepo) ListByUser(_ context.Context, userID string) ([]*entity.EmailQueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.EmailQueueEntry
	for _, e := range f.entries {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeQueueRepo) GetPending(_ context.Context, limit int) ([]*entity.EmailQueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.EmailQueueEntry
	for _, e := range f.entries {
		if e.Status == entity.QueueStatusPending {
			cp := *e
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeQueueRepo) MarkSent(_ context.Context, id string, at time.Time) (bool, error) {
	return f.transition(id, func(e *entity.EmailQueueEntry) {
		e.Status = entity.QueueStatusSent
		e.SentAt = &at
	})
}

func (f *fakeQueueRepo) MarkFailed(_ context.Context, id string, errorMessage string) (bool, error) {
	return f.transition(id, func(e *entity.EmailQueueEntry) {
		e.Status = entity.QueueStatusFailed
		e.ErrorMessage = &errorMessage
	})
}

func (f *fakeQueueRepo) MarkCancelled(_ context.Context, id string) (bool, error) {
	return f.transition(id, func(e *entity.EmailQueueEntry) {
		e.Status = entity.QueueStatusCancelled
	})
}

func (f *fakeQueueRepo) CancelPending(_ context.Context, userID, emailType string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, e := range f.entries {
		if e.UserID != userID || e.Status != entity.QueueStatusPending {
			continue
		}
		if emailType != entity.ScopeAll && e.EmailType != emailType {
			continue
		}
		e.Status = entity.QueueStatusCancelled
		n++
	}
	return n, nil
}

func (f *fakeQueueRepo) transition(id string, apply func(*entity.EmailQueueEntry)) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok || e.Status != entity.QueueStatusPending {
		return false, nil
	}
	apply(e)
	return true, nil
}

type fakeUnsubRepo struct {
	mu    sync.Mutex
	prefs map[string]map[string]bool // userID -> emailType -> opted out
}

func newFakeUnsubRepo() *fakeUnsubRepo {
	return &fakeUnsubRepo{prefs: make(map[string]map[string]bool)}
}

func (f *fakeUnsubRepo) Upsert(_ context.Context, userID, emailType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prefs[userID] == nil {
		f.prefs[userID] = make(map[string]bool)
	}
	f.prefs[userID][emailType] = true
	return nil
}

func (f *fakeUnsubRepo) Matches(_ context.Context, userID, emailType string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.prefs[userID]
	return p[entity.ScopeAll] || p[emailType], nil
}

func (f *fakeUnsubRepo) ListByUser(_ context.Context, userID string) ([]*entity.UnsubscribePreference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.UnsubscribePreference
	for emailType := range f.prefs[userID] {
		out = append(out, &entity.UnsubscribePreference{UserID: userID, EmailType: emailType})
	}
	return out, nil
}

type fakeEventRepo struct {
	events map[string]*entity.Event
}

func (f *fakeEventRepo) GetByID(_ context.Context, id string) (*entity.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, entity.ErrTargetNotFound
	}
	return e, nil
}

type fakeAnnouncementRepo struct {
	announcements map[string]*entity.Announcement
}

func (f *fakeAnnouncementRepo) GetByID(_ context.Context, id string) (*entity.Announcement, error) {
	a, ok := f.announcements[id]
	if !ok {
		return nil, entity.ErrTargetNotFound
	}
	return a, nil
}

type fakeUserRepo struct {
	users map[string]*entity.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, entity.ErrUserNotFound
	}
	return u, nil
}

type sentMail struct {
	To      string
	Subject string
	HTML    string
	From    string
}

type fakeMailer struct {
	mu         sync.Mutex
	sent       []sentMail
	sendErr    error
	configured bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{configured: true}
}

func (f *fakeMailer) Send(to, subject, html, from string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, HTML: html, From: from})
	return nil
}

func (f *fakeMailer) Configured() bool { return f.configured }

func (f *fakeMailer) DefaultFrom() string { return "Alumni Portal <noreply@alumni.example.com>" }

type fakePublisher struct {
	mu         sync.Mutex
	published  []*Task
	publishErr error
}

func (f *fakePublisher) Publish(_ context.Context, task *Task) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, task)
	return nil
}
