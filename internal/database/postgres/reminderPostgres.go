package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ise-alumni/portal-sub001/internal/entity"
)

type reminderRepository struct {
	db *sql.DB
}

func NewReminderRepository(db *sql.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

// Create inserts a reminder with an atomic upsert on the (user, target) key.
// A concurrent duplicate — two toggles racing — hits the unique index and
// surfaces as ErrReminderAlreadyExists instead of a second row.
func (r *reminderRepository) Create(ctx context.Context, reminder *entity.Reminder) error {
	query := `
		INSERT INTO reminders (
			id, user_id, target_type, target_id, reminder_at,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, target_type, target_id) DO NOTHING
	`

	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		reminder.ID,
		reminder.UserID,
		reminder.TargetType,
		reminder.TargetID,
		reminder.ReminderAt,
		reminder.Status,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrReminderAlreadyExists
	}

	reminder.CreatedAt = now
	reminder.UpdatedAt = now
	return nil
}

func (r *reminderRepository) GetByID(ctx context.Context, id string) (*entity.Reminder, error) {
	query := `
		SELECT
			id, user_id, target_type, target_id, reminder_at,
			status, sent_at, error_message, created_at, updated_at
		FROM reminders
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *reminderRepository) GetByKey(ctx context.Context, userID string, targetType entity.TargetType, targetID string) (*entity.Reminder, error) {
	query := `
		SELECT
			id, user_id, target_type, target_id, reminder_at,
			status, sent_at, error_message, created_at, updated_at
		FROM reminders
		WHERE user_id = $1 AND target_type = $2 AND target_id = $3
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID, targetType, targetID))
}

func (r *reminderRepository) Exists(ctx context.Context, userID string, targetType entity.TargetType, targetID string) (bool, error) {
	query := `SELECT COUNT(*) FROM reminders WHERE user_id = $1 AND target_type = $2 AND target_id = $3`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, targetType, targetID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check reminder existence: %w", err)
	}
	return count > 0, nil
}

// DeleteByKey removes the reminder for the key. Returns false, not an error,
// when no row existed.
func (r *reminderRepository) DeleteByKey(ctx context.Context, userID string, targetType entity.TargetType, targetID string) (bool, error) {
	query := `DELETE FROM reminders WHERE user_id = $1 AND target_type = $2 AND target_id = $3`

	result, err := r.db.ExecContext(ctx, query, userID, targetType, targetID)
	if err != nil {
		return false, fmt.Errorf("failed to delete reminder: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// ListByUser joins each reminder with its target snapshot. Deleted targets
// leave the detail columns NULL; the reminder row itself is still returned.
func (r *reminderRepository) ListByUser(ctx context.Context, userID string) ([]*entity.ReminderDetails, error) {
	query := `
		SELECT
			r.id, r.user_id, r.target_type, r.target_id, r.reminder_at,
			r.status, r.sent_at, r.error_message, r.created_at, r.updated_at,
			e.title, e.starts_at, e.location,
			a.title, a.deadline
		FROM reminders r
		LEFT JOIN events e ON r.target_type = 'event' AND r.target_id = e.id
		LEFT JOIN announcements a ON r.target_type = 'announcement' AND r.target_id = a.id
		WHERE r.user_id = $1
		ORDER BY r.reminder_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders by user: %w", err)
	}
	defer rows.Close()

	var reminders []*entity.ReminderDetails
	for rows.Next() {
		var d entity.ReminderDetails
		var eventTitle, eventLocation, annTitle sql.NullString
		var eventStart, annDeadline sql.NullTime

		err := rows.Scan(
			&d.ID,
			&d.UserID,
			&d.TargetType,
			&d.TargetID,
			&d.ReminderAt,
			&d.Status,
			&d.SentAt,
			&d.ErrorMessage,
			&d.CreatedAt,
			&d.UpdatedAt,
			&eventTitle,
			&eventStart,
			&eventLocation,
			&annTitle,
			&annDeadline,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}

		switch d.TargetType {
		case entity.TargetTypeEvent:
			if eventTitle.Valid {
				d.TargetTitle = eventTitle.String
				d.TargetLocation = eventLocation.String
			}
			if eventStart.Valid {
				t := eventStart.Time
				d.TargetStartsAt = &t
			}
		case entity.TargetTypeAnnouncement:
			if annTitle.Valid {
				d.TargetTitle = annTitle.String
			}
			if annDeadline.Valid {
				t := annDeadline.Time
				d.TargetDeadline = &t
			}
		}

		reminders = append(reminders, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}

	return reminders, nil
}

// GetDuePending retrieves pending reminders whose reminder_at has passed.
func (r *reminderRepository) GetDuePending(ctx context.Context, before time.Time, limit int) ([]*entity.Reminder, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT
			id, user_id, target_type, target_id, reminder_at,
			status, sent_at, error_message, created_at, updated_at
		FROM reminders
		WHERE status = 'pending' AND reminder_at <= $1
		ORDER BY reminder_at ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*entity.Reminder
	for rows.Next() {
		reminder, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due reminders: %w", err)
	}

	return reminders, nil
}

func (r *reminderRepository) MarkSent(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `UPDATE reminders SET status = 'sent', sent_at = $1, updated_at = $2 WHERE id = $3 AND status = 'pending'`
	return r.transition(ctx, query, at, time.Now(), id)
}

func (r *reminderRepository) MarkFailed(ctx context.Context, id string, errorMessage string) (bool, error) {
	query := `UPDATE reminders SET status = 'failed', error_message = $1, updated_at = $2 WHERE id = $3 AND status = 'pending'`
	return r.transition(ctx, query, errorMessage, time.Now(), id)
}

func (r *reminderRepository) MarkCancelled(ctx context.Context, id string) (bool, error) {
	query := `UPDATE reminders SET status = 'cancelled', updated_at = $1 WHERE id = $2 AND status = 'pending'`
	return r.transition(ctx, query, time.Now(), id)
}

// transition runs a guarded status update; false means the row was missing or
// already terminal, which callers treat as an idempotent no-op.
func (r *reminderRepository) transition(ctx context.Context, query string, args ...interface{}) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update reminder status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *reminderRepository) scanOne(row *sql.Row) (*entity.Reminder, error) {
	reminder, err := r.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, entity.ErrReminderNotFound
	}
	if err != nil {
		return nil, err
	}
	return reminder, nil
}

func (r *reminderRepository) scanRow(row rowScanner) (*entity.Reminder, error) {
	var reminder entity.Reminder
	err := row.Scan(
		&reminder.ID,
		&reminder.UserID,
		&reminder.TargetType,
		&reminder.TargetID,
		&reminder.ReminderAt,
		&reminder.Status,
		&reminder.SentAt,
		&reminder.ErrorMessage,
		&reminder.CreatedAt,
		&reminder.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan reminder: %w", err)
	}
	return &reminder, nil
}
