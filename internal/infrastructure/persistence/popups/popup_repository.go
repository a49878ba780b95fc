// Package popups provides the concrete SQL-based implementation of the
// popup definition repository.
package popups

import (
	"encoding/json"
	"time"

	"github.com/papapop/papapop-go/internal/domain/entities/popup"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/infrastructure/persistence/database"
	"github.com/papapop/papapop-go/pkg/config"
)

// SQLPopupRepository is the SQL-based implementation of the popup store.
type SQLPopupRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLPopupRepository creates a new instance of the repository.
func NewSQLPopupRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLPopupRepository {
	return &SQLPopupRepository{
		db:     db,
		logger: logger,
	}
}

// GetActiveByShop retrieves every active popup definition for a shop. Rows
// with malformed JSON columns are skipped with a warning rather than
// failing the whole response.
func (r *SQLPopupRepository) GetActiveByShop(shop string) ([]popup.Definition, error) {
	const query = `
		SELECT id, popup_type, trigger_type, trigger_value, heading, description,
		       button_text, discount_code, position, target_pages, target_devices,
		       repeat_in_session, max_views_per_session, steps, theme
		FROM popups
		WHERE shop = ? AND status = 'active'
		ORDER BY created_at`

	start := time.Now()
	r.logger.Database().Debug("Loading active popups", "shop", shop)

	rows, err := r.db.Query(query, shop)
	if err != nil {
		r.logger.Database().Error("Failed to load active popups", "error", err.Error(), "shop", shop)
		return nil, err
	}
	defer rows.Close()

	var defs []popup.Definition
	for rows.Next() {
		var d popup.Definition
		var repeatInSession int
		var targetPages, targetDevices, steps, theme string
		err := rows.Scan(
			&d.ID, &d.PopupType, &d.TriggerType, &d.TriggerValue,
			&d.Heading, &d.Description, &d.ButtonText, &d.DiscountCode,
			&d.Position, &targetPages, &targetDevices,
			&repeatInSession, &d.MaxViewsPerSession, &steps, &theme,
		)
		if err != nil {
			r.logger.Database().Error("Failed to scan popup row", "error", err.Error(), "shop", shop)
			return nil, err
		}
		d.RepeatInSession = repeatInSession != 0

		if err := unmarshalColumns(&d, targetPages, targetDevices, steps, theme); err != nil {
			r.logger.Database().Warn("Skipping popup with malformed JSON column", "popupId", d.ID, "error", err.Error())
			continue
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Active popups loaded", "shop", shop, "count", len(defs), "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return defs, nil
}

// IncrementViews bumps the denormalized view counter on a popup.
func (r *SQLPopupRepository) IncrementViews(popupID string) error {
	const query = `UPDATE popups SET total_views = total_views + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := r.db.Exec(query, popupID)
	if err != nil {
		r.logger.Database().Error("Failed to increment popup views", "error", err.Error(), "popupId", popupID)
	}
	return err
}

// IncrementConversions bumps the denormalized conversion counter on a popup.
func (r *SQLPopupRepository) IncrementConversions(popupID string) error {
	const query = `UPDATE popups SET total_conversions = total_conversions + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := r.db.Exec(query, popupID)
	if err != nil {
		r.logger.Database().Error("Failed to increment popup conversions", "error", err.Error(), "popupId", popupID)
	}
	return err
}

// Store saves a popup definition for a shop, replacing any existing row
// with the same id.
func (r *SQLPopupRepository) Store(shop string, d *popup.Definition) error {
	const query = `
		INSERT OR REPLACE INTO popups (
			id, shop, status, popup_type, trigger_type, trigger_value, heading,
			description, button_text, discount_code, position, target_pages,
			target_devices, repeat_in_session, max_views_per_session, steps, theme
		) VALUES (?, ?, 'active', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	targetPages, err := json.Marshal(d.TargetPages)
	if err != nil {
		return err
	}
	targetDevices, err := json.Marshal(d.TargetDevices)
	if err != nil {
		return err
	}
	steps, err := json.Marshal(d.Steps)
	if err != nil {
		return err
	}
	theme, err := json.Marshal(d.Theme)
	if err != nil {
		return err
	}

	repeatInSession := 0
	if d.RepeatInSession {
		repeatInSession = 1
	}

	start := time.Now()
	r.logger.Database().Debug("Executing popup insert", "popupId", d.ID, "shop", shop)

	_, err = r.db.Exec(
		query,
		d.ID, shop, d.PopupType, d.TriggerType, d.TriggerValue, d.Heading,
		d.Description, d.ButtonText, d.DiscountCode, d.Position, string(targetPages),
		string(targetDevices), repeatInSession, d.MaxViewsPerSession, string(steps), string(theme),
	)
	if err != nil {
		r.logger.Database().Error("Failed to store popup", "error", err.Error(), "popupId", d.ID)
		return err
	}

	r.logger.Database().Info("Popup stored", "popupId", d.ID, "shop", shop, "duration", time.Since(start))
	return nil
}

func unmarshalColumns(d *popup.Definition, targetPages, targetDevices, steps, theme string) error {
	if err := json.Unmarshal([]byte(targetPages), &d.TargetPages); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(targetDevices), &d.TargetDevices); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(steps), &d.Steps); err != nil {
		return err
	}
	return json.Unmarshal([]byte(theme), &d.Theme)
}
