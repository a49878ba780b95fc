// Package analytics provides the concrete SQL-based implementation of the
// popup analytics stores.
package analytics

import (
	"encoding/json"
	"time"

	"github.com/papapop/papapop-go/internal/domain/events"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/infrastructure/persistence/database"
	"github.com/papapop/papapop-go/internal/infrastructure/security"
	"github.com/papapop/papapop-go/pkg/config"
)

// SQLEventRepository is the SQL-based implementation of the analytics store.
type SQLEventRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLEventRepository creates a new instance of the repository.
func NewSQLEventRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLEventRepository {
	return &SQLEventRepository{
		db:     db,
		logger: logger,
	}
}

// StoreEvent saves one analytics event row and returns the row id.
func (r *SQLEventRepository) StoreEvent(ev *events.AnalyticsEvent) (string, error) {
	const query = `
		INSERT INTO popup_analytics (id, popup_id, session_id, event, step_number,
		                             action, value, page_url, page_type, device_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	id := security.GenerateULID()

	_, err := r.db.Exec(
		query,
		id, ev.PopupID, ev.SessionID, ev.Event, ev.StepNumber,
		ev.Action, ev.Value, ev.PageURL, ev.PageType, ev.DeviceType,
	)
	if err != nil {
		r.logger.Database().Error("Failed to store analytics event",
			"error", err.Error(), "popupId", ev.PopupID, "event", ev.Event)
		return "", err
	}

	duration := time.Since(start)
	r.logger.Database().Debug("Analytics event stored",
		"popupId", ev.PopupID, "event", ev.Event, "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return id, nil
}

// StoreQuizResponse saves one quiz response row and returns the row id.
func (r *SQLEventRepository) StoreQuizResponse(resp *events.QuizResponse) (string, error) {
	const query = `
		INSERT INTO quiz_responses (id, popup_id, session_id, question_id,
		                            question, selected_answers, step_order)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	selectedAnswers, err := json.Marshal(resp.SelectedAnswers)
	if err != nil {
		return "", err
	}

	start := time.Now()
	id := security.GenerateULID()

	_, err = r.db.Exec(
		query,
		id, resp.PopupID, resp.SessionID, resp.QuestionID,
		resp.Question, string(selectedAnswers), resp.StepOrder,
	)
	if err != nil {
		r.logger.Database().Error("Failed to store quiz response",
			"error", err.Error(), "popupId", resp.PopupID)
		return "", err
	}

	r.logger.Database().Debug("Quiz response stored",
		"popupId", resp.PopupID, "questionId", resp.QuestionID, "duration", time.Since(start))
	return id, nil
}

// EventCounts holds per-event totals for one popup.
type EventCounts struct {
	Views        int `json:"views"`
	Interactions int `json:"interactions"`
	Conversions  int `json:"conversions"`
	Closes       int `json:"closes"`
}

// CountsByPopup aggregates event totals for one popup.
func (r *SQLEventRepository) CountsByPopup(popupID string) (*EventCounts, error) {
	const query = `
		SELECT
			COUNT(CASE WHEN event = 'view' THEN 1 END),
			COUNT(CASE WHEN event = 'interaction' THEN 1 END),
			COUNT(CASE WHEN event = 'conversion' THEN 1 END),
			COUNT(CASE WHEN event = 'close' THEN 1 END)
		FROM popup_analytics
		WHERE popup_id = ?`

	var counts EventCounts
	err := r.db.QueryRow(query, popupID).Scan(
		&counts.Views, &counts.Interactions, &counts.Conversions, &counts.Closes,
	)
	if err != nil {
		r.logger.Database().Error("Failed to aggregate event counts", "error", err.Error(), "popupId", popupID)
		return nil, err
	}
	return &counts, nil
}

// EventsSince returns the number of analytics rows written since the cutoff.
func (r *SQLEventRepository) EventsSince(cutoff time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM popup_analytics WHERE created_at >= ?`

	var count int
	if err := r.db.QueryRow(query, cutoff).Scan(&count); err != nil {
		r.logger.Database().Error("Failed to count recent events", "error", err.Error())
		return 0, err
	}
	return count, nil
}
