package postgres

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/ise-alumni/portal-sub001/config"

	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL")
	return db, nil
}

func RunMigrations(db *sql.DB) error {
	// Read migration files and execute them
	// This is a simplified version - you might want to use a proper migration tool
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS reminders (
			id UUID PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			target_type VARCHAR(20) NOT NULL,
			target_id VARCHAR(64) NOT NULL,
			reminder_at TIMESTAMPTZ NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			sent_at TIMESTAMPTZ,
			error_message TEXT,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,

		// At most one reminder per user per target
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_reminders_user_target
			ON reminders(user_id, target_type, target_id)`,

		`CREATE TABLE IF NOT EXISTS email_queue (
			id UUID PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			email_type VARCHAR(50) NOT NULL,
			recipient VARCHAR(255) NOT NULL,
			subject VARCHAR(255) NOT NULL,
			body TEXT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			sent_at TIMESTAMPTZ,
			error_message TEXT,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS unsubscribe_preferences (
			user_id VARCHAR(64) NOT NULL,
			email_type VARCHAR(50) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, email_type)
		)`,

		// Read-only collaborator tables, owned by the portal CRUD layer.
		// Created here so the service runs standalone in development.
		`CREATE TABLE IF NOT EXISTS events (
			id VARCHAR(64) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			starts_at TIMESTAMPTZ NOT NULL,
			location VARCHAR(255) DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS announcements (
			id VARCHAR(64) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			deadline TIMESTAMPTZ NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_reminders_status_at ON reminders(status, reminder_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_user_id ON reminders(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_email_queue_status ON email_queue(status)`,
		`CREATE INDEX IF NOT EXISTS idx_email_queue_user_status ON email_queue(user_id, status)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %v", err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
