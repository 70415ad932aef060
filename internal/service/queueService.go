package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/ise-alumni/portal-sub001/internal/database/postgres"
	"github.com/ise-alumni/portal-sub001/internal/entity"
	"github.com/ise-alumni/portal-sub001/pkg/mailer"
	"github.com/ise-alumni/portal-sub001/pkg/markdown"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrMailerNotConfigured is returned when the selected transport is missing
// its credentials (only possible for the production relay).
var ErrMailerNotConfigured = errors.New("mail transport is not configured")

const maxErrorMessageLen = 500

type queueService struct {
	queueRepo repository.EmailQueueRepository
	unsubRepo repository.UnsubscribeRepository
	mail      mailer.Mailer
	queue     TaskPublisher
	batchSize int
}

// NewQueueService создает новый экземпляр QueueService
func NewQueueService(
	queueRepo repository.EmailQueueRepository,
	unsubRepo repository.UnsubscribeRepository,
	mail mailer.Mailer,
	queue TaskPublisher,
	batchSize int,
) QueueService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &queueService{
		queueRepo: queueRepo,
		unsubRepo: unsubRepo,
		mail:      mail,
		queue:     queue,
		batchSize: batchSize,
	}
}

// Enqueue creates a pending queue entry. Callers are the portal's account and
// content flows (welcome mail on signup and the like); the entry is not
// delivered until a dispatch pass picks it up.
func (s *queueService) Enqueue(ctx context.Context, req *entity.EnqueueEmailRequest) (*entity.EmailQueueEntry, error) {
	entry := &entity.EmailQueueEntry{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		EmailType: req.EmailType,
		Recipient: req.Recipient,
		Subject:   req.Subject,
		Body:      req.Body,
		Status:    entity.QueueStatusPending,
	}

	if err := s.queueRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	if s.queue != nil {
		task := &Task{
			ID:        uuid.New().String(),
			Type:      TaskTypeDispatchEmail,
			Data:      map[string]interface{}{"entry_id": entry.ID},
			ExecuteAt: time.Now(),
		}
		if err := s.queue.Publish(ctx, task); err != nil {
			// The periodic dispatch pass will still pick the row up.
			logrus.Warnf("Failed to publish dispatch task for entry %s: %v", entry.ID, err)
		}
	}

	return entry, nil
}

func (s *queueService) ListByUser(ctx context.Context, userID string) ([]*entity.EmailQueueEntry, error) {
	return s.queueRepo.ListByUser(ctx, userID)
}

// Dispatch attempts delivery of one entry. The unsubscribe check runs again
// here, immediately before the send, so a preference recorded after enqueue
// still suppresses delivery; the guarded status writes mean a concurrent
// cancellation always wins over a racing send result.
func (s *queueService) Dispatch(ctx context.Context, entry *entity.EmailQueueEntry) error {
	if entry.Status != entity.QueueStatusPending {
		return nil
	}

	unsubscribed, err := s.unsubRepo.Matches(ctx, entry.UserID, entry.EmailType)
	if err != nil {
		return fmt.Errorf("failed to check unsubscribe state: %w", err)
	}
	if unsubscribed {
		if _, err := s.queueRepo.MarkCancelled(ctx, entry.ID); err != nil {
			return err
		}
		logrus.Infof("Queue entry %s cancelled: user %s unsubscribed from %s",
			entry.ID, entry.UserID, entry.EmailType)
		return nil
	}

	html := markdown.Render(entry.Body)

	if err := s.mail.Send(entry.Recipient, entry.Subject, html, ""); err != nil {
		if _, merr := s.queueRepo.MarkFailed(ctx, entry.ID, truncateError(err)); merr != nil {
			return merr
		}
		logrus.Errorf("Queue entry %s delivery failed: %v", entry.ID, err)
		return nil
	}

	updated, err := s.queueRepo.MarkSent(ctx, entry.ID, time.Now())
	if err != nil {
		return err
	}
	if !updated {
		// The row went terminal (cancelled) while we were sending. The email
		// already left; the status stays cancelled regardless.
		logrus.Warnf("Queue entry %s was no longer pending after send", entry.ID)
	}
	return nil
}

// DispatchByID loads one entry and dispatches it. A missing entry is a
// no-op: the row may have been created and cancelled between the task being
// published and consumed.
func (s *queueService) DispatchByID(ctx context.Context, id string) error {
	entry, err := s.queueRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrQueueEntryNotFound) {
			return nil
		}
		return err
	}
	return s.Dispatch(ctx, entry)
}

// DispatchPending claims a batch of pending rows and dispatches each one
// independently.
func (s *queueService) DispatchPending(ctx context.Context) error {
	pending, err := s.queueRepo.GetPending(ctx, s.batchSize)
	if err != nil {
		return fmt.Errorf("failed to load pending queue entries: %w", err)
	}

	for _, entry := range pending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.Dispatch(ctx, entry); err != nil {
			logrus.Errorf("Failed to dispatch queue entry %s: %v", entry.ID, err)
		}
	}

	return nil
}

// CancelPending bulk-cancels pending rows for the scope. Safe with no
// matching rows and safe to repeat.
func (s *queueService) CancelPending(ctx context.Context, userID, emailType string) (int64, error) {
	return s.queueRepo.CancelPending(ctx, userID, emailType)
}

// SendEmail renders and delivers immediately, outside the queue. Used by the
// direct send endpoint.
func (s *queueService) SendEmail(ctx context.Context, req *SendEmailRequest) (string, error) {
	if !s.mail.Configured() {
		return "", ErrMailerNotConfigured
	}

	html := markdown.Render(req.Markdown)

	if err := s.mail.Send(req.To, req.Subject, html, req.From); err != nil {
		return "", err
	}

	return uuid.New().String(), nil
}

// truncateError produces the stored error_message: single line, bounded size.
func truncateError(err error) string {
	msg := strings.Join(strings.Fields(err.Error()), " ")
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen]
	}
	return msg
}
