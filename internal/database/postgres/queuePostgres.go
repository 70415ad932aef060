package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ise-alumni/portal-sub001/internal/entity"
)

type emailQueueRepository struct {
	db *sql.DB
}

func NewEmailQueueRepository(db *sql.DB) EmailQueueRepository {
	return &emailQueueRepository{db: db}
}

func (r *emailQueueRepository) Create(ctx context.Context, entry *entity.EmailQueueEntry) error {
	query := `
		INSERT INTO email_queue (
			id, user_id, email_type, recipient, subject, body,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	now := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.EmailType,
		entry.Recipient,
		entry.Subject,
		entry.Body,
		entry.Status,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create queue entry: %w", err)
	}

	entry.CreatedAt = now
	entry.UpdatedAt = now
	return nil
}

func (r *emailQueueRepository) GetByID(ctx context.Context, id string) (*entity.EmailQueueEntry, error) {
	query := `
		SELECT
			id, user_id, email_type, recipient, subject, body,
			status, sent_at, error_message, created_at, updated_at
		FROM email_queue
		WHERE id = $1
	`

	var entry entity.EmailQueueEntry
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.EmailType,
		&entry.Recipient,
		&entry.Subject,
		&entry.Body,
		&entry.Status,
		&entry.SentAt,
		&entry.ErrorMessage,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrQueueEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue entry: %w", err)
	}

	return &entry, nil
}

func (r *emailQueueRepository) ListByUser(ctx context.Context, userID string) ([]*entity.EmailQueueEntry, error) {
	query := `
		SELECT
			id, user_id, email_type, recipient, subject, body,
			status, sent_at, error_message, created_at, updated_at
		FROM email_queue
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.queryEntries(ctx, query, userID)
}

// GetPending retrieves sendable rows oldest first (FIFO by creation time).
func (r *emailQueueRepository) GetPending(ctx context.Context, limit int) ([]*entity.EmailQueueEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT
			id, user_id, email_type, recipient, subject, body,
			status, sent_at, error_message, created_at, updated_at
		FROM email_queue
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`
	return r.queryEntries(ctx, query, limit)
}

// MarkSent moves a pending row to sent. The status guard means a row
// cancelled between claim and send keeps its cancelled status; the send that
// raced it reports false and the caller treats the email as a duplicate of a
// no-send decision.
func (r *emailQueueRepository) MarkSent(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `UPDATE email_queue SET status = 'sent', sent_at = $1, updated_at = $2 WHERE id = $3 AND status = 'pending'`
	return r.transition(ctx, query, at, time.Now(), id)
}

func (r *emailQueueRepository) MarkFailed(ctx context.Context, id string, errorMessage string) (bool, error) {
	query := `UPDATE email_queue SET status = 'failed', error_message = $1, updated_at = $2 WHERE id = $3 AND status = 'pending'`
	return r.transition(ctx, query, errorMessage, time.Now(), id)
}

func (r *emailQueueRepository) MarkCancelled(ctx context.Context, id string) (bool, error) {
	query := `UPDATE email_queue SET status = 'cancelled', updated_at = $1 WHERE id = $2 AND status = 'pending'`
	return r.transition(ctx, query, time.Now(), id)
}

// CancelPending bulk-cancels the user's pending rows. An empty emailType is
// the wildcard scope and matches every type. Idempotent: already-terminal
// rows are untouched and a second run affects zero rows.
func (r *emailQueueRepository) CancelPending(ctx context.Context, userID, emailType string) (int64, error) {
	var (
		result sql.Result
		err    error
	)

	if emailType == entity.ScopeAll {
		query := `UPDATE email_queue SET status = 'cancelled', updated_at = $1 WHERE user_id = $2 AND status = 'pending'`
		result, err = r.db.ExecContext(ctx, query, time.Now(), userID)
	} else {
		query := `UPDATE email_queue SET status = 'cancelled', updated_at = $1 WHERE user_id = $2 AND email_type = $3 AND status = 'pending'`
		result, err = r.db.ExecContext(ctx, query, time.Now(), userID, emailType)
	}

	if err != nil {
		return 0, fmt.Errorf("failed to cancel pending queue entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

func (r *emailQueueRepository) transition(ctx context.Context, query string, args ...interface{}) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update queue entry status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *emailQueueRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]*entity.EmailQueueEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.EmailQueueEntry
	for rows.Next() {
		var entry entity.EmailQueueEntry
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.EmailType,
			&entry.Recipient,
			&entry.Subject,
			&entry.Body,
			&entry.Status,
			&entry.SentAt,
			&entry.ErrorMessage,
			&entry.CreatedAt,
			&entry.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue entries: %w", err)
	}

	return entries, nil
}
