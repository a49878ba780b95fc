package services

import (
	"fmt"

	"github.com/papapop/papapop-go/internal/domain/events"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/internal/infrastructure/persistence/analytics"
	"github.com/papapop/papapop-go/internal/infrastructure/persistence/popups"
	"github.com/papapop/papapop-go/internal/infrastructure/persistence/user"
)

// TrackingService ingests analytics events from storefront runtimes.
type TrackingService struct {
	logger      *logging.ChanneledLogger
	eventRepo   *analytics.SQLEventRepository
	popupRepo   *popups.SQLPopupRepository
	sessionRepo *user.SQLSessionRepository
}

// NewTrackingService creates a new tracking service.
func NewTrackingService(logger *logging.ChanneledLogger, eventRepo *analytics.SQLEventRepository, popupRepo *popups.SQLPopupRepository, sessionRepo *user.SQLSessionRepository) *TrackingService {
	return &TrackingService{
		logger:      logger,
		eventRepo:   eventRepo,
		popupRepo:   popupRepo,
		sessionRepo: sessionRepo,
	}
}

// TrackEvent validates and stores one analytics event, returning the stored
// event id. A view event also bumps the popup's denormalized view counter;
// a failed bump is logged but does not fail the ingest.
func (s *TrackingService) TrackEvent(ev *events.AnalyticsEvent) (string, error) {
	if ev.PopupID == "" || ev.Event == "" || ev.SessionID == "" {
		return "", fmt.Errorf("popupId, event, and sessionId are required")
	}

	if err := s.sessionRepo.Ensure(ev.SessionID, "", ev.DeviceType); err != nil {
		return "", err
	}
	id, err := s.eventRepo.StoreEvent(ev)
	if err != nil {
		return "", err
	}

	if ev.Event == events.EventView {
		if err := s.popupRepo.IncrementViews(ev.PopupID); err != nil {
			s.logger.Database().Warn("View stored but counter bump failed", "popupId", ev.PopupID)
		}
	}

	return id, nil
}
