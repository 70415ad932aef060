package service

import (
	"context"
	"fmt"
	"time"

	repository "github.com/ise-alumni/portal-sub001/internal/database/postgres"
	"github.com/ise-alumni/portal-sub001/internal/entity"
	"github.com/ise-alumni/portal-sub001/pkg/mailer"
	"github.com/ise-alumni/portal-sub001/pkg/markdown"
	"github.com/ise-alumni/portal-sub001/pkg/timerule"
	"github.com/ise-alumni/portal-sub001/pkg/token"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ReminderServiceConfig carries the values the lifecycle controller needs
// from application config, resolved once at startup.
type ReminderServiceConfig struct {
	Rules     timerule.Rules
	BaseURL   string
	TokenTTL  time.Duration
	BatchSize int
}

type reminderService struct {
	reminderRepo     repository.ReminderRepository
	eventRepo        repository.EventRepository
	announcementRepo repository.AnnouncementRepository
	userRepo         repository.UserRepository
	unsubRepo        repository.UnsubscribeRepository
	mail             mailer.Mailer
	queue            TaskPublisher
	cfg              ReminderServiceConfig
}

// NewReminderService создает новый экземпляр ReminderService
func NewReminderService(
	reminderRepo repository.ReminderRepository,
	eventRepo repository.EventRepository,
	announcementRepo repository.AnnouncementRepository,
	userRepo repository.UserRepository,
	unsubRepo repository.UnsubscribeRepository,
	mail mailer.Mailer,
	queue TaskPublisher,
	cfg ReminderServiceConfig,
) ReminderService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &reminderService{
		reminderRepo:     reminderRepo,
		eventRepo:        eventRepo,
		announcementRepo: announcementRepo,
		userRepo:         userRepo,
		unsubRepo:        unsubRepo,
		mail:             mail,
		queue:            queue,
		cfg:              cfg,
	}
}

// HasReminder reports whether a reminder exists for the key. Side-effect-free;
// it backs the toggle state in the UI.
func (s *reminderService) HasReminder(ctx context.Context, userID string, targetType entity.TargetType, targetID string) (bool, error) {
	if !targetType.Valid() {
		return false, entity.ErrInvalidTargetType
	}
	return s.reminderRepo.Exists(ctx, userID, targetType, targetID)
}

// SetReminder computes reminder_at from the target's own trigger instant and
// creates the row. Creation is a single atomic upsert, so two racing toggles
// for the same target produce one row and one ErrReminderAlreadyExists.
func (s *reminderService) SetReminder(ctx context.Context, req *entity.SetReminderRequest) (*entity.Reminder, error) {
	if !req.TargetType.Valid() {
		return nil, entity.ErrInvalidTargetType
	}

	triggerAt, err := s.targetTrigger(ctx, req.TargetType, req.TargetID)
	if err != nil {
		return nil, err
	}

	reminderAt, err := s.cfg.Rules.ReminderTime(string(req.TargetType), triggerAt)
	if err != nil {
		return nil, fmt.Errorf("failed to compute reminder time: %w", err)
	}

	// The rule engine happily computes past instants; rejecting them is this
	// layer's policy.
	if !reminderAt.After(time.Now()) {
		return nil, entity.ErrReminderTooLate
	}

	reminder := &entity.Reminder{
		ID:         uuid.New().String(),
		UserID:     req.UserID,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		ReminderAt: reminderAt,
		Status:     entity.ReminderStatusPending,
	}

	if err := s.reminderRepo.Create(ctx, reminder); err != nil {
		return nil, err
	}

	// Schedule the dispatch task. The postgres poller is the backstop, so a
	// queue failure here only delays the send until the next poll tick.
	if s.queue != nil {
		task := &Task{
			ID:        uuid.New().String(),
			Type:      TaskTypeReminderDue,
			Data:      map[string]interface{}{"reminder_id": reminder.ID},
			ExecuteAt: reminder.ReminderAt,
		}
		if err := s.queue.Publish(ctx, task); err != nil {
			logrus.Errorf("Failed to schedule reminder task for %s: %v", reminder.ID, err)
		}
	}

	return reminder, nil
}

// ClearReminder deletes the row for the key. A missing row returns false, not
// an error: the toggle is already off.
func (s *reminderService) ClearReminder(ctx context.Context, userID string, targetType entity.TargetType, targetID string) (bool, error) {
	if !targetType.Valid() {
		return false, entity.ErrInvalidTargetType
	}
	return s.reminderRepo.DeleteByKey(ctx, userID, targetType, targetID)
}

func (s *reminderService) ListReminders(ctx context.Context, userID string) ([]*entity.ReminderDetails, error) {
	reminders, err := s.reminderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

// DispatchDueReminders sends every pending reminder whose time has come. Each
// row is processed independently; one failure does not stop the batch.
func (s *reminderService) DispatchDueReminders(ctx context.Context) error {
	due, err := s.reminderRepo.GetDuePending(ctx, time.Now(), s.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to load due reminders: %w", err)
	}

	for _, reminder := range due {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.dispatchOne(ctx, reminder); err != nil {
			logrus.Errorf("Failed to dispatch reminder %s: %v", reminder.ID, err)
		}
	}

	return nil
}

// DispatchReminder handles a single scheduled task. The reminder may already
// have been sent by the poller or deleted by the user; both are no-ops.
func (s *reminderService) DispatchReminder(ctx context.Context, id string) error {
	reminder, err := s.reminderRepo.GetByID(ctx, id)
	if err == entity.ErrReminderNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	if reminder.Status != entity.ReminderStatusPending {
		return nil
	}
	if reminder.ReminderAt.After(time.Now()) {
		return nil
	}

	return s.dispatchOne(ctx, reminder)
}

// dispatchOne performs one delivery attempt: re-check unsubscribe state,
// build the email from the target snapshot, send, write the terminal status.
// If the process dies between send and status write the row stays pending and
// is re-sent on the next pass; delivery is at-least-once.
func (s *reminderService) dispatchOne(ctx context.Context, reminder *entity.Reminder) error {
	unsubscribed, err := s.unsubRepo.Matches(ctx, reminder.UserID, entity.EmailTypeReminder)
	if err != nil {
		return fmt.Errorf("failed to check unsubscribe state: %w", err)
	}
	if unsubscribed {
		if _, err := s.reminderRepo.MarkCancelled(ctx, reminder.ID); err != nil {
			return err
		}
		logrus.Infof("Reminder %s cancelled: user %s unsubscribed", reminder.ID, reminder.UserID)
		return nil
	}

	user, err := s.userRepo.GetByID(ctx, reminder.UserID)
	if err == entity.ErrUserNotFound {
		_, merr := s.reminderRepo.MarkFailed(ctx, reminder.ID, "recipient account no longer exists")
		return merr
	}
	if err != nil {
		return fmt.Errorf("failed to resolve recipient: %w", err)
	}

	subject, body, err := s.buildEmail(ctx, reminder, user)
	if err == entity.ErrTargetNotFound {
		// Nothing to remind about anymore.
		_, merr := s.reminderRepo.MarkCancelled(ctx, reminder.ID)
		if merr == nil {
			logrus.Infof("Reminder %s cancelled: target %s/%s deleted",
				reminder.ID, reminder.TargetType, reminder.TargetID)
		}
		return merr
	}
	if err != nil {
		return err
	}

	if err := s.mail.Send(user.Email, subject, markdown.Render(body), ""); err != nil {
		_, merr := s.reminderRepo.MarkFailed(ctx, reminder.ID, truncateError(err))
		if merr != nil {
			return merr
		}
		logrus.Errorf("Reminder %s delivery failed: %v", reminder.ID, err)
		return nil
	}

	updated, err := s.reminderRepo.MarkSent(ctx, reminder.ID, time.Now())
	if err != nil {
		return err
	}
	if !updated {
		logrus.Warnf("Reminder %s was no longer pending after send", reminder.ID)
	}
	return nil
}

// buildEmail renders the reminder body for the target kind.
func (s *reminderService) buildEmail(ctx context.Context, reminder *entity.Reminder, user *entity.User) (subject, body string, err error) {
	unsubURL := fmt.Sprintf("%s/unsubscribe?token=%s",
		s.cfg.BaseURL, token.Encode(reminder.UserID, entity.EmailTypeReminder, s.cfg.TokenTTL))

	switch reminder.TargetType {
	case entity.TargetTypeEvent:
		event, gerr := s.eventRepo.GetByID(ctx, reminder.TargetID)
		if gerr != nil {
			return "", "", gerr
		}
		subject = fmt.Sprintf("Reminder: %s", event.Title)
		body = fmt.Sprintf(
			"# %s\n\nHi %s,\n\nThe event **%s** starts at %s.",
			event.Title, user.Name, event.Title, event.StartsAt.Format("Mon, 2 Jan 2006 15:04 MST"),
		)
		if event.Location != "" {
			body += fmt.Sprintf("\nLocation: %s", event.Location)
		}
	case entity.TargetTypeAnnouncement:
		announcement, gerr := s.announcementRepo.GetByID(ctx, reminder.TargetID)
		if gerr != nil {
			return "", "", gerr
		}
		subject = fmt.Sprintf("Reminder: %s", announcement.Title)
		body = fmt.Sprintf(
			"# %s\n\nHi %s,\n\nThe deadline for **%s** is %s.",
			announcement.Title, user.Name, announcement.Title, announcement.Deadline.Format("Mon, 2 Jan 2006 15:04 MST"),
		)
	default:
		return "", "", entity.ErrInvalidTargetType
	}

	body += fmt.Sprintf("\n\n[Unsubscribe from reminders](%s)", unsubURL)
	return subject, body, nil
}

func (s *reminderService) targetTrigger(ctx context.Context, targetType entity.TargetType, targetID string) (time.Time, error) {
	switch targetType {
	case entity.TargetTypeEvent:
		event, err := s.eventRepo.GetByID(ctx, targetID)
		if err != nil {
			return time.Time{}, err
		}
		return event.TriggerAt(), nil
	case entity.TargetTypeAnnouncement:
		announcement, err := s.announcementRepo.GetByID(ctx, targetID)
		if err != nil {
			return time.Time{}, err
		}
		return announcement.TriggerAt(), nil
	default:
		return time.Time{}, entity.ErrInvalidTargetType
	}
}
