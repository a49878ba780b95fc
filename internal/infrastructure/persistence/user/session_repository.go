// Package user provides the concrete SQL-based implementations of the
// visitor domain repositories (Session, Capture).
package user

import (
	"time"

	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/infrastructure/persistence/database"
)

// SQLSessionRepository is the SQL-based implementation of the session store.
type SQLSessionRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLSessionRepository creates a new instance of the repository.
func NewSQLSessionRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLSessionRepository {
	return &SQLSessionRepository{
		db:     db,
		logger: logger,
	}
}

// Ensure upserts a session row: first sight inserts it, every later sight
// refreshes last_seen and the device type when the record carries one.
// Runtime-minted ids arrive here with the first delivered record.
func (r *SQLSessionRepository) Ensure(sessionID, shop, deviceType string) error {
	const query = `
		INSERT INTO user_sessions (session_id, shop, device_type)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			last_seen = CURRENT_TIMESTAMP,
			device_type = CASE WHEN excluded.device_type != ''
				THEN excluded.device_type ELSE user_sessions.device_type END`

	start := time.Now()
	_, err := r.db.Exec(query, sessionID, shop, deviceType)
	if err != nil {
		r.logger.Database().Error("Failed to upsert session",
			"error", err.Error(), "sessionId", logging.SanitizeSessionID(sessionID))
		return err
	}

	r.logger.Database().Debug("Session ensured",
		"sessionId", logging.SanitizeSessionID(sessionID), "duration", time.Since(start))
	return nil
}

// CountActiveSince returns the number of sessions seen since the cutoff.
func (r *SQLSessionRepository) CountActiveSince(cutoff time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM user_sessions WHERE last_seen >= ?`

	var count int
	if err := r.db.QueryRow(query, cutoff).Scan(&count); err != nil {
		r.logger.Database().Error("Failed to count active sessions", "error", err.Error())
		return 0, err
	}
	return count, nil
}
