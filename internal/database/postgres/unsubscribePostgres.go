package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ise-alumni/portal-sub001/internal/entity"
)

type unsubscribeRepository struct {
	db *sql.DB
}

func NewUnsubscribeRepository(db *sql.DB) UnsubscribeRepository {
	return &unsubscribeRepository{db: db}
}

// Upsert records the opt-out. Redeeming the same token twice hits the primary
// key and does nothing further.
func (r *unsubscribeRepository) Upsert(ctx context.Context, userID, emailType string) error {
	query := `
		INSERT INTO unsubscribe_preferences (user_id, email_type, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, email_type) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, userID, emailType, time.Now()); err != nil {
		return fmt.Errorf("failed to upsert unsubscribe preference: %w", err)
	}
	return nil
}

// Matches checks the specific scope and the wildcard: a row for the exact
// email type, or the user's global opt-out (stored with an empty email_type).
func (r *unsubscribeRepository) Matches(ctx context.Context, userID, emailType string) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM unsubscribe_preferences
		WHERE user_id = $1 AND (email_type = $2 OR email_type = '')
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, emailType).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check unsubscribe preference: %w", err)
	}
	return count > 0, nil
}

func (r *unsubscribeRepository) ListByUser(ctx context.Context, userID string) ([]*entity.UnsubscribePreference, error) {
	query := `
		SELECT user_id, email_type, created_at
		FROM unsubscribe_preferences
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsubscribe preferences: %w", err)
	}
	defer rows.Close()

	var prefs []*entity.UnsubscribePreference
	for rows.Next() {
		var p entity.UnsubscribePreference
		if err := rows.Scan(&p.UserID, &p.EmailType, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unsubscribe preference: %w", err)
		}
		prefs = append(prefs, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unsubscribe preferences: %w", err)
	}

	return prefs, nil
}

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*entity.Event, error) {
	query := `SELECT id, title, starts_at, location FROM events WHERE id = $1`

	var event entity.Event
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Title,
		&event.StartsAt,
		&event.Location,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrTargetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &event, nil
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT id, email, name, created_at FROM users WHERE id = $1`

	var user entity.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

type announcementRepository struct {
	db *sql.DB
}

func NewAnnouncementRepository(db *sql.DB) AnnouncementRepository {
	return &announcementRepository{db: db}
}

func (r *announcementRepository) GetByID(ctx context.Context, id string) (*entity.Announcement, error) {
	query := `SELECT id, title, deadline FROM announcements WHERE id = $1`

	var announcement entity.Announcement
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&announcement.ID,
		&announcement.Title,
		&announcement.Deadline,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrTargetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get announcement: %w", err)
	}

	return &announcement, nil
}
