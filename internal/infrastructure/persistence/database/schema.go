package database

import "fmt"

// tables holds the schema for the popup service. Array and object columns
// (target_pages, steps, theme, quiz answers) store JSON text.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS popups (
		id TEXT PRIMARY KEY,
		shop TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		popup_type TEXT NOT NULL DEFAULT 'single_step',
		trigger_type TEXT NOT NULL,
		trigger_value REAL NOT NULL DEFAULT 0,
		heading TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		button_text TEXT NOT NULL DEFAULT '',
		discount_code TEXT NOT NULL DEFAULT '',
		position TEXT NOT NULL DEFAULT 'center',
		target_pages TEXT NOT NULL DEFAULT '[]',
		target_devices TEXT NOT NULL DEFAULT '[]',
		repeat_in_session INTEGER NOT NULL DEFAULT 0,
		max_views_per_session INTEGER NOT NULL DEFAULT 1,
		steps TEXT NOT NULL DEFAULT '[]',
		theme TEXT NOT NULL DEFAULT '{}',
		total_views INTEGER NOT NULL DEFAULT 0,
		total_conversions INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS user_sessions (
		session_id TEXT PRIMARY KEY,
		shop TEXT NOT NULL DEFAULT '',
		device_type TEXT NOT NULL DEFAULT '',
		first_seen TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_seen TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS popup_analytics (
		id TEXT PRIMARY KEY,
		popup_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		event TEXT NOT NULL,
		step_number INTEGER,
		action TEXT NOT NULL DEFAULT '',
		value TEXT NOT NULL DEFAULT '',
		page_url TEXT NOT NULL DEFAULT '',
		page_type TEXT NOT NULL DEFAULT '',
		device_type TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS quiz_responses (
		id TEXT PRIMARY KEY,
		popup_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		question_id TEXT NOT NULL,
		question TEXT NOT NULL DEFAULT '',
		selected_answers TEXT NOT NULL DEFAULT '[]',
		step_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS email_captures (
		id TEXT PRIMARY KEY,
		popup_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		email TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		quiz_data TEXT NOT NULL DEFAULT '[]',
		discount_given TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_popups_shop ON popups(shop, status)`,
	`CREATE INDEX IF NOT EXISTS idx_analytics_popup ON popup_analytics(popup_id, event)`,
	`CREATE INDEX IF NOT EXISTS idx_analytics_session ON popup_analytics(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_popup ON quiz_responses(popup_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_captures_popup_email ON email_captures(popup_id, email)`,
}

// EnsureSchema executes all necessary queries to build the service's tables
// and indexes. Every statement is idempotent.
func (db *DB) EnsureSchema() error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}
