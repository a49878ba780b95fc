// Package services provides application-level orchestration services
package services

import (
	"fmt"

	popupentity "github.com/papapop/papapop-go/internal/domain/entities/popup"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/infrastructure/persistence/popups"
)

// ConfigService serves popup configurations to storefront runtimes.
type ConfigService struct {
	logger    *logging.ChanneledLogger
	popupRepo *popups.SQLPopupRepository
}

// NewConfigService creates a new config service.
func NewConfigService(logger *logging.ChanneledLogger, popupRepo *popups.SQLPopupRepository) *ConfigService {
	return &ConfigService{
		logger:    logger,
		popupRepo: popupRepo,
	}
}

// GetActivePopups returns the active, valid popup definitions for a shop.
// Definitions failing validation never reach the storefront.
func (s *ConfigService) GetActivePopups(shop string) ([]popupentity.Definition, error) {
	if shop == "" {
		return nil, fmt.Errorf("shop is required")
	}

	defs, err := s.popupRepo.GetActiveByShop(shop)
	if err != nil {
		return nil, err
	}

	valid := make([]popupentity.Definition, 0, len(defs))
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			s.logger.Config().Warn("Excluding invalid popup from config response",
				"popupId", d.ID, "shop", shop, "error", err.Error())
			continue
		}
		valid = append(valid, d)
	}

	s.logger.Config().Debug("Serving popup config", "shop", shop, "count", len(valid))
	return valid, nil
}
