package user

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/papapop/papapop-go/internal/domain/user"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/infrastructure/persistence/database"
	"github.com/papapop/papapop-go/pkg/config"
)

// SQLCaptureRepository is the SQL-based implementation of the lead capture
// store.
type SQLCaptureRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLCaptureRepository creates a new instance of the repository.
func NewSQLCaptureRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLCaptureRepository {
	return &SQLCaptureRepository{
		db:     db,
		logger: logger,
	}
}

// FindByPopupAndEmail retrieves a capture by its dedupe key. A missing row
// returns nil without error.
func (r *SQLCaptureRepository) FindByPopupAndEmail(popupID, email string) (*user.Capture, error) {
	const query = `
		SELECT id, popup_id, session_id, email, first_name, last_name,
		       quiz_data, discount_given, created_at
		FROM email_captures
		WHERE popup_id = ? AND email = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading capture", "popupId", popupID, "email", logging.SanitizeEmail(email))

	var c user.Capture
	var quizData string
	err := r.db.QueryRow(query, popupID, email).Scan(
		&c.ID, &c.PopupID, &c.SessionID, &c.Email, &c.FirstName, &c.LastName,
		&quizData, &c.DiscountGiven, &c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to load capture", "error", err.Error(), "popupId", popupID)
		return nil, err
	}

	if err := json.Unmarshal([]byte(quizData), &c.QuizData); err != nil {
		r.logger.Database().Warn("Capture has malformed quiz data", "captureId", c.ID, "error", err.Error())
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return &c, nil
}

// Store saves a new capture.
func (r *SQLCaptureRepository) Store(c *user.Capture) error {
	const query = `
		INSERT INTO email_captures (id, popup_id, session_id, email, first_name,
		                            last_name, quiz_data, discount_given)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	quizData, err := json.Marshal(c.QuizData)
	if err != nil {
		return err
	}
	if c.QuizData == nil {
		quizData = []byte("[]")
	}

	start := time.Now()
	r.logger.Database().Debug("Executing capture insert", "captureId", c.ID, "popupId", c.PopupID)

	_, err = r.db.Exec(
		query,
		c.ID, c.PopupID, c.SessionID, c.Email, c.FirstName,
		c.LastName, string(quizData), c.DiscountGiven,
	)
	if err != nil {
		r.logger.Database().Error("Failed to store capture", "error", err.Error(), "captureId", c.ID)
		return err
	}

	r.logger.Database().Info("Capture stored",
		"captureId", c.ID, "popupId", c.PopupID,
		"email", logging.SanitizeEmail(c.Email), "duration", time.Since(start))
	return nil
}

// CountByPopup returns the number of captures for a popup.
func (r *SQLCaptureRepository) CountByPopup(popupID string) (int, error) {
	const query = `SELECT COUNT(*) FROM email_captures WHERE popup_id = ?`

	var count int
	if err := r.db.QueryRow(query, popupID).Scan(&count); err != nil {
		r.logger.Database().Error("Failed to count captures", "error", err.Error(), "popupId", popupID)
		return 0, err
	}
	return count, nil
}
